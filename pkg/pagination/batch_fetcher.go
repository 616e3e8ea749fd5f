package pagination

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/berry-stats/pkg/logging"
)

var batchFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "berry_stats_batch_fetch_duration_seconds",
	Help:    "Duration of a complete batch of detail fetches",
	Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
})

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of fetches in flight. 1 is serial.
	MaxConcurrency int
	// Timeout per item fetch.
	Timeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 5,
		Timeout:        15 * time.Second,
	}
}

// FetchFunc fetches item i. It must write its result by index so the caller
// keeps positional correspondence with the input.
type FetchFunc func(ctx context.Context, i int) error

// BatchFetcher runs indexed fetches through a bounded worker pool.
type BatchFetcher struct {
	config Config
	logger zerolog.Logger
}

// NewBatchFetcher creates a new batch fetcher.
func NewBatchFetcher(config Config) *BatchFetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &BatchFetcher{
		config: config,
		logger: logging.NewLogger(logging.ComponentPagination),
	}
}

// Config returns the effective configuration.
func (bf *BatchFetcher) Config() Config {
	return bf.config
}

// FetchAll calls fetch for every index in [0, n). The first error cancels the
// context handed to the remaining calls and is returned; no further indexes
// are started after it.
func (bf *BatchFetcher) FetchAll(ctx context.Context, n int, fetch FetchFunc) error {
	if n == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		batchFetchDuration.Observe(time.Since(start).Seconds())
	}()

	bf.logger.Debug().
		Int("items", n).
		Int("max_concurrency", bf.config.MaxConcurrency).
		Msg("Starting batch fetch")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bf.config.MaxConcurrency)

	var done atomic.Int64
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}

		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			itemCtx, cancel := context.WithTimeout(gctx, bf.config.Timeout)
			defer cancel()

			if err := fetch(itemCtx, i); err != nil {
				bf.logger.Warn().Err(err).Int("item", i).Msg("Item fetch failed")
				return fmt.Errorf("item %d: %w", i, err)
			}

			if fetched := done.Add(1); fetched%25 == 0 {
				bf.logger.Debug().
					Int64("fetched", fetched).
					Int("total", n).
					Float64("progress_pct", float64(fetched)/float64(n)*100).
					Msg("Fetch progress")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// ctx may have been cancelled before any goroutine observed it.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("batch fetch cancelled: %w", err)
	}

	bf.logger.Debug().
		Int("items", n).
		Dur("duration", time.Since(start)).
		Msg("Batch fetch complete")

	return nil
}
