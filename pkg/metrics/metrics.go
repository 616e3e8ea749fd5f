// Package metrics provides the Prometheus registry and exposition handler for
// berry-stats.
// Component metrics are defined in their respective packages (client,
// pagination, berries, cache) to keep packages modular and avoid circular
// dependencies; web-layer request metrics live here.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by berry-stats.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// HTTPRequests counts served requests by route pattern and status code.
var HTTPRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "berry_stats_http_requests_total",
		Help: "Total HTTP requests served by route and status",
	},
	[]string{"route", "status"},
)

// Handler returns the /metrics exposition handler for the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - pokeapi_requests_total{endpoint, status} (Counter): Upstream requests by endpoint and HTTP status
//   - pokeapi_request_duration_seconds{endpoint} (Histogram): Upstream request duration by endpoint
//   - pokeapi_errors_total{class} (Counter): Upstream errors by class (client, server, network, decode)
//
// Pagination Metrics (pkg/pagination):
//   - berry_stats_pages_fetched_total (Counter): Listing pages fetched
//   - berry_stats_batch_fetch_duration_seconds (Histogram): Duration of a detail fan-out
//
// Aggregation Metrics (pkg/berries):
//   - berry_stats_aggregations_total{result} (Counter): Statistics computations by result
//   - berry_stats_catalog_size (Gauge): Berries in the last fetched catalog
//
// Cache Metrics (pkg/cache):
//   - berry_stats_cache_hits_total (Counter): Responses served from Redis
//   - berry_stats_cache_misses_total (Counter): Lookups without a live entry
//   - berry_stats_cache_errors_total{operation} (Counter): Redis operation errors
//   - berry_stats_304_responses_total (Counter): 304 Not Modified responses served
//
// Server Metrics (this package):
//   - berry_stats_http_requests_total{route, status} (Counter): Requests served
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(berry_stats_cache_hits_total[5m])) /
//   (sum(rate(berry_stats_cache_hits_total[5m])) + sum(rate(berry_stats_cache_misses_total[5m])))
//
//   # Upstream Error Rate
//   rate(pokeapi_errors_total[5m])
//
//   # P95 Upstream Latency
//   histogram_quantile(0.95, rate(pokeapi_request_duration_seconds_bucket[5m]))
//
//   # Failed Aggregations
//   rate(berry_stats_aggregations_total{result="error"}[5m])
