package berries

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/berry-stats/pkg/berries"
	"github.com/Sternrassler/berry-stats/pkg/cache"
	"github.com/Sternrassler/berry-stats/pkg/charts"
)

// ErrorMessage is the only error detail returned to clients.
const ErrorMessage = "There was an error processing the berry statistics."

// StatsService computes the berry summary.
type StatsService interface {
	Statistics(ctx context.Context) (*berries.Summary, error)
	StatisticsWithSamples(ctx context.Context) (*berries.Summary, []int, error)
}

// ResponseCache stores rendered responses.
type ResponseCache interface {
	Get(ctx context.Context, key cache.Key) (*cache.Entry, error)
	Set(ctx context.Context, key cache.Key, entry *cache.Entry) error
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the berry statistics endpoints.
type Handler struct {
	service  StatsService
	renderer charts.Renderer
	cache    ResponseCache
	ttl      time.Duration
}

// NewHandler creates a handler. responseCache may be nil to disable caching;
// ttl still drives the freshness headers.
func NewHandler(service StatsService, renderer charts.Renderer, responseCache ResponseCache, ttl time.Duration) *Handler {
	return &Handler{
		service:  service,
		renderer: renderer,
		cache:    responseCache,
		ttl:      ttl,
	}
}

// GetStats returns the summary as JSON.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.renderStats, writeJSONError)
}

// GetCharts returns an HTML page with the summary and the growth time charts.
func (h *Handler) GetCharts(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.renderCharts, func(w http.ResponseWriter) {
		http.Error(w, ErrorMessage, http.StatusInternalServerError)
	})
}

type renderFunc func(ctx context.Context) (body []byte, contentType string, err error)

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, render renderFunc, fail func(http.ResponseWriter)) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	key := cache.KeyFromURL(r.URL)

	if h.cache != nil {
		entry, err := h.cache.Get(ctx, key)
		switch {
		case err == nil:
			cache.Serve(w, r, entry)
			return
		case !errors.Is(err, cache.ErrCacheMiss):
			logger.Warn().Err(err).Str("key", key.String()).Msg("response cache read failed")
		}
	}

	body, contentType, err := render(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to compute berry statistics")
		fail(w)
		return
	}

	entry := cache.NewEntry(body, contentType, h.ttl)
	if h.cache != nil && h.ttl > 0 {
		if err := h.cache.Set(ctx, key, entry); err != nil {
			logger.Warn().Err(err).Str("key", key.String()).Msg("response cache write failed")
		}
	}

	cache.Serve(w, r, entry)
}

func (h *Handler) renderStats(ctx context.Context) ([]byte, string, error) {
	summary, err := h.service.Statistics(ctx)
	if err != nil {
		return nil, "", err
	}

	body, err := json.Marshal(summary)
	if err != nil {
		return nil, "", err
	}
	return body, "application/json", nil
}

func writeJSONError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(errorResponse{Error: ErrorMessage})
}
