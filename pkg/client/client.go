// Package client provides the PokeAPI HTTP client: a single owned connection
// pool, JSON decoding, error classification and request metrics.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/berry-stats/pkg/logging"
)

// Prometheus metrics for PokeAPI requests.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokeapi_requests_total",
		Help: "Total PokeAPI requests by endpoint and status",
	}, []string{"endpoint", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pokeapi_request_duration_seconds",
		Help:    "PokeAPI request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokeapi_errors_total",
		Help: "Total PokeAPI errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of fetch failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport errors, timeouts and cancellation.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a 2xx response whose body is not the expected JSON.
	ErrorClassDecode ErrorClass = "decode"
)

// DefaultBaseURL is the public PokeAPI v2 root.
const DefaultBaseURL = "https://pokeapi.co/api/v2"

// Client is the PokeAPI client. It owns its *http.Client; call Close when done.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "https://pokeapi.co/api/v2".
	BaseURL string

	// UserAgent is sent with every request.
	UserAgent string

	// Timeout bounds a single request including reading the body.
	Timeout time.Duration

	// Transport overrides the default transport (optional).
	Transport http.RoundTripper
}

// DefaultConfig returns a configuration pointing at the public PokeAPI.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
	}
}

// New creates a new PokeAPI client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport.(*http.Transport).Clone()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		baseURL: base,
		config:  cfg,
		logger:  logging.NewLogger(logging.ComponentClient),
	}, nil
}

// Do executes req and returns the response when the status is 2xx.
// Any other outcome is returned as a *FetchError and the body is closed.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	endpoint := endpointLabel(req.URL.Path)
	target := req.URL.String()

	startTime := time.Now()
	defer func() {
		apiRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("url", target).
		Str("method", req.Method).
		Msg("Executing PokeAPI request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		class := c.classifyError(nil, err)
		apiErrorsTotal.WithLabelValues(string(class)).Inc()
		apiRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Error().Err(err).Str("url", target).Msg("HTTP request failed")
		return nil, &FetchError{
			URL:     target,
			Class:   class,
			Message: "request failed",
			Err:     err,
		}
	}

	apiRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		class := c.classifyError(resp, nil)
		apiErrorsTotal.WithLabelValues(string(class)).Inc()

		c.logger.Warn().
			Str("url", target).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("PokeAPI request error")

		return nil, &FetchError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Class:      class,
			Message:    resp.Status,
		}
	}

	c.logger.Debug().
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(startTime)).
		Msg("PokeAPI request succeeded")

	return resp, nil
}

// Get performs a GET request to an endpoint relative to the base URL
// (e.g. "/berry/") or to an absolute URL.
func (c *Client) Get(ctx context.Context, endpoint string) (*http.Response, error) {
	target := c.ResolveURL(endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{URL: target, Class: ErrorClassClient, Message: "create request", Err: err}
	}

	return c.Do(req)
}

// GetJSON fetches endpoint and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, endpoint string, v any) error {
	resp, err := c.Get(ctx, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).DecodeContext(ctx, v); err != nil {
		apiErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return &FetchError{
			URL:        c.ResolveURL(endpoint),
			StatusCode: resp.StatusCode,
			Class:      ErrorClassDecode,
			Message:    "decode response body",
			Err:        err,
		}
	}

	return nil
}

// ResolveURL returns endpoint unchanged when it is absolute, otherwise it is
// appended to the base URL path.
func (c *Client) ResolveURL(endpoint string) string {
	if u, err := url.Parse(endpoint); err == nil && u.IsAbs() {
		return endpoint
	}
	return c.baseURL.String() + "/" + strings.TrimLeft(endpoint, "/")
}

// BaseURL returns the configured API root without trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// classifyError categorizes a failure for observability.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		c.logger.Debug().Str("class", string(ErrorClassNetwork)).Msg("Error classified")
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		c.logger.Debug().Str("class", string(ErrorClassClient)).Msg("Error classified")
		return ErrorClassClient
	case resp.StatusCode >= 500:
		c.logger.Debug().Str("class", string(ErrorClassServer)).Msg("Error classified")
		return ErrorClassServer
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		// 1xx/3xx that the transport did not resolve.
		return ErrorClassClient
	default:
		return ""
	}
}

// Close releases idle connections held by the client's transport.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

var numericSegment = regexp.MustCompile(`/\d+(/|$)`)

// endpointLabel collapses numeric path segments so detail URLs share one
// metric series ("/api/v2/berry/12/" -> "/api/v2/berry/{id}/").
func endpointLabel(path string) string {
	return numericSegment.ReplaceAllString(path, "/{id}$1")
}
