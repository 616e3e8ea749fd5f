// Package berries fetches the PokeAPI berry catalog and summarizes the
// growth time of every berry in it.
package berries

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/berry-stats/pkg/logging"
	"github.com/Sternrassler/berry-stats/pkg/pagination"
	"github.com/Sternrassler/berry-stats/pkg/stats"
)

// DefaultListingEndpoint is the berry listing, relative to the API root.
const DefaultListingEndpoint = "berry/"

var (
	aggregationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "berry_stats_aggregations_total",
			Help: "Total statistics computations by result",
		},
		[]string{"result"}, // "success", "error"
	)

	catalogSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "berry_stats_catalog_size",
		Help: "Number of berries in the most recently fetched catalog",
	})
)

// JSONFetcher fetches a URL or API-relative endpoint and decodes the JSON
// body into v. *client.Client implements it.
type JSONFetcher interface {
	GetJSON(ctx context.Context, endpoint string, v any) error
}

// Config holds service configuration.
type Config struct {
	// ListingEndpoint is the first listing page, relative to the API root
	// or absolute.
	ListingEndpoint string
	// PageSize is sent as "limit" on the first listing request. 0 leaves
	// the page size to the server.
	PageSize int
	// Batch configures the detail fan-out.
	Batch pagination.Config
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		ListingEndpoint: DefaultListingEndpoint,
		Batch:           pagination.DefaultConfig(),
	}
}

// Service computes berry growth time statistics. It holds no state between
// calls; every call refetches the catalog.
type Service struct {
	fetcher JSONFetcher
	config  Config
	batch   *pagination.BatchFetcher
	logger  zerolog.Logger
}

// NewService creates a service reading through fetcher.
func NewService(fetcher JSONFetcher, config Config) *Service {
	if config.ListingEndpoint == "" {
		config.ListingEndpoint = DefaultListingEndpoint
	}

	return &Service{
		fetcher: fetcher,
		config:  config,
		batch:   pagination.NewBatchFetcher(config.Batch),
		logger:  logging.NewLogger(logging.ComponentBerries),
	}
}

// FetchCatalog walks the listing and returns every berry in page order.
func (s *Service) FetchCatalog(ctx context.Context) ([]CatalogEntry, error) {
	first := s.listingURL()

	catalog, err := pagination.Walk[CatalogEntry](ctx, s.fetcher, first)
	if err != nil {
		if errors.Is(err, pagination.ErrMissingResults) {
			return nil, &MissingFieldError{URL: first, Field: "results", Err: err}
		}
		return nil, fmt.Errorf("fetch berry catalog: %w", err)
	}

	for i, entry := range catalog {
		if entry.Name == "" {
			return nil, &MissingFieldError{URL: first, Field: fmt.Sprintf("results[%d].name", i)}
		}
		if entry.DetailURL == "" {
			return nil, &MissingFieldError{URL: first, Field: fmt.Sprintf("results[%d].url", i)}
		}
	}

	catalogSize.Set(float64(len(catalog)))
	return catalog, nil
}

// ComputeStatistics fetches the detail document of every catalog entry and
// reduces the growth times. It returns the summary and the samples in
// catalog order. An empty catalog fails with ErrEmptyDataset before any
// request is made.
func (s *Service) ComputeStatistics(ctx context.Context, catalog []CatalogEntry) (*Summary, []int, error) {
	summary, samples, err := s.computeStatistics(ctx, catalog)
	if err != nil {
		aggregationsTotal.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Int("berries", len(catalog)).Msg("Statistics computation failed")
		return nil, nil, err
	}

	aggregationsTotal.WithLabelValues("success").Inc()
	return summary, samples, nil
}

func (s *Service) computeStatistics(ctx context.Context, catalog []CatalogEntry) (*Summary, []int, error) {
	if len(catalog) == 0 {
		return nil, nil, ErrEmptyDataset
	}

	start := time.Now()
	samples := make([]int, len(catalog))

	err := s.batch.FetchAll(ctx, len(catalog), func(ctx context.Context, i int) error {
		url := catalog[i].DetailURL

		var rec detailRecord
		if err := s.fetcher.GetJSON(ctx, url, &rec); err != nil {
			return err
		}
		if rec.GrowthTime == nil || *rec.GrowthTime < 0 {
			return &MissingFieldError{URL: url, Field: "growth_time"}
		}

		samples[i] = *rec.GrowthTime
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("fetch berry details: %w", err)
	}

	desc, err := stats.Describe(samples)
	if err != nil {
		return nil, nil, fmt.Errorf("describe growth times: %w", err)
	}

	names := make([]string, len(catalog))
	for i, entry := range catalog {
		names[i] = entry.Name
	}

	s.logger.Info().
		Int("berries", desc.Count).
		Int("min", desc.Min).
		Int("max", desc.Max).
		Float64("mean", desc.Mean).
		Dur("duration", time.Since(start)).
		Msg("Growth time statistics computed")

	return newSummary(names, desc), samples, nil
}

// Statistics fetches the catalog and computes its summary.
func (s *Service) Statistics(ctx context.Context) (*Summary, error) {
	summary, _, err := s.StatisticsWithSamples(ctx)
	return summary, err
}

// StatisticsWithSamples is Statistics that also returns the growth times the
// summary was computed from, in catalog order.
func (s *Service) StatisticsWithSamples(ctx context.Context) (*Summary, []int, error) {
	catalog, err := s.FetchCatalog(ctx)
	if err != nil {
		aggregationsTotal.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Msg("Catalog fetch failed")
		return nil, nil, err
	}
	return s.ComputeStatistics(ctx, catalog)
}

func (s *Service) listingURL() string {
	if s.config.PageSize <= 0 {
		return s.config.ListingEndpoint
	}
	return s.config.ListingEndpoint + "?limit=" + strconv.Itoa(s.config.PageSize)
}
