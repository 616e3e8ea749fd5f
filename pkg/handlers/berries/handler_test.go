package berries

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/berry-stats/pkg/berries"
	"github.com/Sternrassler/berry-stats/pkg/cache"
	"github.com/Sternrassler/berry-stats/pkg/charts"
)

type mockStatsService struct {
	mock.Mock
}

func (m *mockStatsService) Statistics(ctx context.Context) (*berries.Summary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*berries.Summary), args.Error(1)
}

func (m *mockStatsService) StatisticsWithSamples(ctx context.Context) (*berries.Summary, []int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*berries.Summary), args.Get(1).([]int), args.Error(2)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key cache.Key) (*cache.Entry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cache.Entry), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key cache.Key, entry *cache.Entry) error {
	args := m.Called(ctx, key, entry)
	return args.Error(0)
}

type stubRenderer struct{}

func (stubRenderer) BarChart(string, []string, []float64) ([]byte, error) {
	return []byte("bar"), nil
}

func (stubRenderer) HistogramChart(string, []charts.Bin) ([]byte, error) {
	return []byte("hist"), nil
}

func testSummary() *berries.Summary {
	return &berries.Summary{
		Names:               []string{"cheri", "chesto", "pecha", "rawst", "aspear"},
		MinGrowthTime:       10,
		MaxGrowthTime:       20,
		MeanGrowthTime:      13.8,
		MedianGrowthTime:    12,
		VarianceGrowthTime:  15.2,
		FrequencyGrowthTime: 12,
	}
}

func newRequest(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	logger := zerolog.New(io.Discard)
	return req.WithContext(logger.WithContext(req.Context()))
}

func TestGetStats(t *testing.T) {
	svc := new(mockStatsService)
	svc.On("Statistics", mock.Anything).Return(testSummary(), nil)

	h := NewHandler(svc, stubRenderer{}, nil, time.Minute)
	rec := httptest.NewRecorder()
	h.GetStats(rec, newRequest("/api/v1/berries/stats"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("ETag"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 10.0, got["min_growth_time"])
	assert.Equal(t, 20.0, got["max_growth_time"])
	assert.Equal(t, 13.8, got["mean_growth_time"])
	assert.Equal(t, 12.0, got["median_growth_time"])
	assert.Equal(t, 15.2, got["variance_growth_time"])
	assert.Equal(t, 12.0, got["frequency_growth_time"])
	assert.Len(t, got["berries_names"], 5)

	svc.AssertExpectations(t)
}

func TestGetStats_Error(t *testing.T) {
	svc := new(mockStatsService)
	svc.On("Statistics", mock.Anything).Return(nil, errors.New("upstream down"))

	h := NewHandler(svc, stubRenderer{}, nil, time.Minute)
	rec := httptest.NewRecorder()
	h.GetStats(rec, newRequest("/api/v1/berries/stats"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "There was an error processing the berry statistics."}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "upstream down")
}

func TestGetStats_CacheHit(t *testing.T) {
	svc := new(mockStatsService)
	entry := cache.NewEntry([]byte(`{"cached":true}`), "application/json", time.Minute)

	c := new(mockCache)
	c.On("Get", mock.Anything, cache.Key{Endpoint: "/api/v1/berries/stats", QueryParams: map[string][]string{}}).
		Return(entry, nil)

	h := NewHandler(svc, stubRenderer{}, c, time.Minute)
	rec := httptest.NewRecorder()
	h.GetStats(rec, newRequest("/api/v1/berries/stats"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"cached":true}`, rec.Body.String())
	svc.AssertNotCalled(t, "Statistics", mock.Anything)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetStats_CacheMissStores(t *testing.T) {
	svc := new(mockStatsService)
	svc.On("Statistics", mock.Anything).Return(testSummary(), nil)

	c := new(mockCache)
	c.On("Get", mock.Anything, mock.Anything).Return(nil, cache.ErrCacheMiss)
	c.On("Set", mock.Anything, mock.Anything, mock.MatchedBy(func(e *cache.Entry) bool {
		return e.ContentType == "application/json" && e.ETag != ""
	})).Return(nil)

	h := NewHandler(svc, stubRenderer{}, c, time.Minute)
	rec := httptest.NewRecorder()
	h.GetStats(rec, newRequest("/api/v1/berries/stats"))

	assert.Equal(t, http.StatusOK, rec.Code)
	c.AssertExpectations(t)
}

func TestGetStats_CacheFailureDegradesToMiss(t *testing.T) {
	svc := new(mockStatsService)
	svc.On("Statistics", mock.Anything).Return(testSummary(), nil)

	c := new(mockCache)
	c.On("Get", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	c.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	h := NewHandler(svc, stubRenderer{}, c, time.Minute)
	rec := httptest.NewRecorder()
	h.GetStats(rec, newRequest("/api/v1/berries/stats"))

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestGetStats_NotModified(t *testing.T) {
	svc := new(mockStatsService)
	entry := cache.NewEntry([]byte(`{"cached":true}`), "application/json", time.Minute)

	c := new(mockCache)
	c.On("Get", mock.Anything, mock.Anything).Return(entry, nil)

	h := NewHandler(svc, stubRenderer{}, c, time.Minute)
	req := newRequest("/api/v1/berries/stats")
	req.Header.Set("If-None-Match", entry.ETag)
	rec := httptest.NewRecorder()
	h.GetStats(rec, req)

	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestGetCharts(t *testing.T) {
	svc := new(mockStatsService)
	svc.On("StatisticsWithSamples", mock.Anything).Return(testSummary(), []int{10, 12, 15, 12, 20}, nil)

	h := NewHandler(svc, stubRenderer{}, nil, time.Minute)
	rec := httptest.NewRecorder()
	h.GetCharts(rec, newRequest("/api/v1/berries/charts"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	// base64("bar") and base64("hist")
	assert.Contains(t, body, `src="data:image/png;base64,YmFy"`)
	assert.Contains(t, body, `src="data:image/png;base64,aGlzdA=="`)
	assert.Contains(t, body, "<li>aspear</li>")
	assert.Contains(t, body, "15.20")
	assert.Equal(t, 2, strings.Count(body, "<img"))
}

func TestGetCharts_RealRenderer(t *testing.T) {
	svc := new(mockStatsService)
	svc.On("StatisticsWithSamples", mock.Anything).Return(testSummary(), []int{10, 12, 15, 12, 20}, nil)

	h := NewHandler(svc, charts.NewPNGRenderer(), nil, time.Minute)
	rec := httptest.NewRecorder()
	h.GetCharts(rec, newRequest("/api/v1/berries/charts"))

	require.Equal(t, http.StatusOK, rec.Code)
	// base64 of the PNG signature
	assert.Equal(t, 2, strings.Count(rec.Body.String(), "data:image/png;base64,iVBORw0KGgo"))
}

func TestGetCharts_Error(t *testing.T) {
	svc := new(mockStatsService)
	svc.On("StatisticsWithSamples", mock.Anything).Return(nil, nil, berries.ErrEmptyDataset)

	h := NewHandler(svc, stubRenderer{}, nil, time.Minute)
	rec := httptest.NewRecorder()
	h.GetCharts(rec, newRequest("/api/v1/berries/charts"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrorMessage)
}
