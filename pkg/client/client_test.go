package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	cfg := DefaultConfig("TestApp/1.0.0 (test@example.com)")
	cfg.BaseURL = baseURL
	cfg.Timeout = 5 * time.Second

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid config",
			config:      DefaultConfig("TestApp/1.0.0"),
			expectError: false,
		},
		{
			name: "empty user agent",
			config: Config{
				BaseURL: DefaultBaseURL,
				Timeout: time.Second,
			},
			expectError: true,
			errorMsg:    "user-agent is required",
		},
		{
			name: "zero timeout",
			config: Config{
				BaseURL:   DefaultBaseURL,
				UserAgent: "TestApp/1.0.0",
			},
			expectError: true,
			errorMsg:    "timeout must be > 0 (got 0s)",
		},
		{
			name: "relative base url",
			config: Config{
				BaseURL:   "/api/v2",
				UserAgent: "TestApp/1.0.0",
				Timeout:   time.Second,
			},
			expectError: true,
			errorMsg:    `base url must be absolute (got "/api/v2")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got nil")
					return
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
					return
				}
				if client == nil {
					t.Error("Client is nil")
				}
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	userAgent := "TestApp/1.0.0"
	cfg := DefaultConfig(userAgent)

	if cfg.UserAgent != userAgent {
		t.Errorf("UserAgent = %q, want %q", cfg.UserAgent, userAgent)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
}

func TestClassifyError(t *testing.T) {
	client := &Client{logger: zerolog.Nop()}

	tests := []struct {
		name       string
		statusCode int
		err        error
		expected   ErrorClass
	}{
		{"network error", 0, io.EOF, ErrorClassNetwork},
		{"client error 404", 404, nil, ErrorClassClient},
		{"client error 429", 429, nil, ErrorClassClient},
		{"server error 500", 500, nil, ErrorClassServer},
		{"server error 503", 503, nil, ErrorClassServer},
		{"unresolved redirect", 302, nil, ErrorClassClient},
		{"success 200", 200, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp *http.Response
			if tt.statusCode > 0 {
				resp = &http.Response{StatusCode: tt.statusCode}
			}

			if got := client.classifyError(resp, tt.err); got != tt.expected {
				t.Errorf("classifyError() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDo_HeadersSet(t *testing.T) {
	var userAgent, accept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		accept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/berry/", nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}
	resp.Body.Close()

	if userAgent != "TestApp/1.0.0 (test@example.com)" {
		t.Errorf("User-Agent = %q", userAgent)
	}
	if accept != "application/json" {
		t.Errorf("Accept = %q, want application/json", accept)
	}
}

func TestDo_NonSuccessStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		expected   ErrorClass
	}{
		{"not found", http.StatusNotFound, ErrorClassClient},
		{"server error", http.StatusInternalServerError, ErrorClassServer},
		{"bad gateway", http.StatusBadGateway, ErrorClassServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts++
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)

			req, _ := http.NewRequest(http.MethodGet, server.URL+"/berry/1/", nil)
			resp, err := client.Do(req)
			if resp != nil {
				t.Error("Expected nil response on non-2xx status")
			}

			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("Expected *FetchError, got %T (%v)", err, err)
			}
			if fe.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", fe.StatusCode, tt.statusCode)
			}
			if fe.Class != tt.expected {
				t.Errorf("Class = %q, want %q", fe.Class, tt.expected)
			}
			// Failures are never retried.
			if attempts != 1 {
				t.Errorf("Server saw %d attempts, want 1", attempts)
			}
		})
	}
}

func TestDo_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := newTestClient(t, url)

	req, _ := http.NewRequest(http.MethodGet, url+"/berry/", nil)
	_, err := client.Do(req)

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected *FetchError, got %T (%v)", err, err)
	}
	if fe.Class != ErrorClassNetwork {
		t.Errorf("Class = %q, want %q", fe.Class, ErrorClassNetwork)
	}
	if fe.Err == nil {
		t.Error("Expected underlying transport error to be wrapped")
	}
}

func TestGet_ResolvesRelativeEndpoint(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL+"/api/v2/")

	resp, err := client.Get(context.Background(), "/berry/")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	resp.Body.Close()

	if gotPath != "/api/v2/berry/" {
		t.Errorf("Path = %q, want /api/v2/berry/", gotPath)
	}
}

func TestResolveURL(t *testing.T) {
	client := newTestClient(t, "https://pokeapi.co/api/v2")

	tests := []struct {
		endpoint string
		want     string
	}{
		{"/berry/", "https://pokeapi.co/api/v2/berry/"},
		{"berry/?limit=100", "https://pokeapi.co/api/v2/berry/?limit=100"},
		{"https://pokeapi.co/api/v2/berry/?offset=20&limit=20", "https://pokeapi.co/api/v2/berry/?offset=20&limit=20"},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			if got := client.ResolveURL(tt.endpoint); got != tt.want {
				t.Errorf("ResolveURL(%q) = %q, want %q", tt.endpoint, got, tt.want)
			}
		})
	}
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		switch r.URL.Path {
		case "/berry/1/":
			w.Write([]byte(`{"name": "cheri", "growth_time": 3, "size": 20}`))
		case "/berry/broken/":
			w.Write([]byte(`{"name": "che`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	t.Run("decodes body", func(t *testing.T) {
		var doc struct {
			Name       string `json:"name"`
			GrowthTime int    `json:"growth_time"`
		}
		if err := client.GetJSON(ctx, "/berry/1/", &doc); err != nil {
			t.Fatalf("GetJSON() failed: %v", err)
		}
		if doc.Name != "cheri" || doc.GrowthTime != 3 {
			t.Errorf("Decoded %+v, want cheri/3", doc)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		var doc map[string]any
		err := client.GetJSON(ctx, "/berry/broken/", &doc)

		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("Expected *FetchError, got %T (%v)", err, err)
		}
		if fe.Class != ErrorClassDecode {
			t.Errorf("Class = %q, want %q", fe.Class, ErrorClassDecode)
		}
		if !strings.HasSuffix(fe.URL, "/berry/broken/") {
			t.Errorf("URL = %q", fe.URL)
		}
	})

	t.Run("not found", func(t *testing.T) {
		var doc map[string]any
		err := client.GetJSON(ctx, "/berry/999/", &doc)
		if !IsFetchError(err) {
			t.Fatalf("Expected fetch error, got %v", err)
		}
	})
}

func TestGetJSON_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var doc map[string]any
	err := client.GetJSON(ctx, "/berry/", &doc)

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected *FetchError, got %T (%v)", err, err)
	}
	if fe.Class != ErrorClassNetwork {
		t.Errorf("Class = %q, want %q", fe.Class, ErrorClassNetwork)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded in chain, got %v", err)
	}
}

func TestEndpointLabel(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/v2/berry/", "/api/v2/berry/"},
		{"/api/v2/berry/12/", "/api/v2/berry/{id}/"},
		{"/api/v2/berry/12", "/api/v2/berry/{id}"},
		{"/api/v2/berry/cheri/", "/api/v2/berry/cheri/"},
	}

	for _, tt := range tests {
		if got := endpointLabel(tt.path); got != tt.want {
			t.Errorf("endpointLabel(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
