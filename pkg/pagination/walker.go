package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sternrassler/berry-stats/pkg/logging"
)

var pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "berry_stats_pages_fetched_total",
	Help: "Total listing pages fetched while draining pagination",
})

// ErrMissingResults is returned when a listing page has no "results" array.
var ErrMissingResults = errors.New("listing page has no results array")

// PageFetcher fetches a URL and decodes its JSON body into v.
// *client.Client implements it.
type PageFetcher interface {
	GetJSON(ctx context.Context, url string, v any) error
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Count   int     `json:"count"`
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

// HasNext reports whether another page follows.
func (p *Page[T]) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}

// Walk fetches firstURL and then follows "next" links until a page has none,
// returning every result in page order. There is no page cap; the walk ends
// when the server stops returning "next" or ctx is done. Any failure discards
// what was collected so far.
func Walk[T any](ctx context.Context, fetcher PageFetcher, firstURL string) ([]T, error) {
	logger := logging.NewLogger(logging.ComponentPagination)
	start := time.Now()

	var results []T
	pages := 0
	next := firstURL

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("walk cancelled after %d pages: %w", pages, ctx.Err())
		default:
		}

		var page Page[T]
		if err := fetcher.GetJSON(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", pages+1, err)
		}
		// "results": [] decodes to an empty non-nil slice; absent or null stays nil.
		if page.Results == nil {
			return nil, fmt.Errorf("page %d (%s): %w", pages+1, next, ErrMissingResults)
		}

		pages++
		pagesFetchedTotal.Inc()
		results = append(results, page.Results...)

		logger.Debug().
			Int("page", pages).
			Int("page_results", len(page.Results)).
			Int("count", page.Count).
			Msg("Listing page fetched")

		if !page.HasNext() {
			break
		}
		next = *page.Next
	}

	logger.Info().
		Str("url", firstURL).
		Int("pages", pages).
		Int("entries", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Pagination drained")

	return results, nil
}
