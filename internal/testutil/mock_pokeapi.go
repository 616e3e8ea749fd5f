// Package testutil provides a mock PokeAPI server for tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// APIPrefix is the path prefix the mock serves the API under.
const APIPrefix = "/api/v2"

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockBerry is one berry served by the mock listing and detail endpoints.
type MockBerry struct {
	ID         int
	Name       string
	GrowthTime int

	// OmitGrowthTime drops "growth_time" from the detail document.
	OmitGrowthTime bool
}

// MockPokeAPI is a configurable mock PokeAPI server for testing.
type MockPokeAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc
	berries  []MockBerry
	pageSize int

	requestCount int
	pathCounts   map[string]int
	lastHeader   http.Header
}

// NewMockPokeAPI creates a new mock PokeAPI server.
func NewMockPokeAPI() *MockPokeAPI {
	mock := &MockPokeAPI{
		handlers:   make(map[string]http.HandlerFunc),
		pathCounts: make(map[string]int),
		pageSize:   20,
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.pathCounts[r.URL.Path]++
		mock.lastHeader = r.Header.Clone()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server root URL.
func (m *MockPokeAPI) URL() string {
	return m.server.URL
}

// BaseURL returns the API root to configure a client with.
func (m *MockPokeAPI) BaseURL() string {
	return m.server.URL + APIPrefix
}

// Close shuts down the mock server.
func (m *MockPokeAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockPokeAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.pathCounts = make(map[string]int)
	m.lastHeader = nil
}

// SetBerries configures the catalog served by the listing and detail
// endpoints. IDs default to the 1-based position when zero.
func (m *MockPokeAPI) SetBerries(pageSize int, berries ...MockBerry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pageSize > 0 {
		m.pageSize = pageSize
	}
	m.berries = make([]MockBerry, len(berries))
	for i, b := range berries {
		if b.ID == 0 {
			b.ID = i + 1
		}
		m.berries[i] = b
	}
}

// SetHandler sets a custom handler for a specific path.
func (m *MockPokeAPI) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockPokeAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// DetailPath returns the path of the detail document for a berry ID.
func DetailPath(id int) string {
	return fmt.Sprintf("%s/berry/%d/", APIPrefix, id)
}

// ListingPath is the path of the berry listing.
func ListingPath() string {
	return APIPrefix + "/berry/"
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockPokeAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// GetPathCount returns the number of requests made to path.
func (m *MockPokeAPI) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockPokeAPI) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

// defaultHandler serves the configured berries.
func (m *MockPokeAPI) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if r.URL.Path == ListingPath() {
		m.serveListing(w, r)
		return
	}

	idStr, ok := strings.CutPrefix(r.URL.Path, APIPrefix+"/berry/")
	if ok {
		if id, err := strconv.Atoi(strings.TrimSuffix(idStr, "/")); err == nil {
			m.serveDetail(w, id)
			return
		}
	}

	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"detail": "Not found."}`))
}

func (m *MockPokeAPI) serveListing(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	berries := m.berries
	limit := m.pageSize
	m.mu.RUnlock()

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}

	end := offset + limit
	if end > len(berries) {
		end = len(berries)
	}
	if offset > end {
		offset = end
	}

	type entry struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	page := struct {
		Count    int     `json:"count"`
		Next     *string `json:"next"`
		Previous *string `json:"previous"`
		Results  []entry `json:"results"`
	}{
		Count:   len(berries),
		Results: make([]entry, 0, end-offset),
	}

	for _, b := range berries[offset:end] {
		page.Results = append(page.Results, entry{
			Name: b.Name,
			URL:  m.server.URL + DetailPath(b.ID),
		})
	}
	if end < len(berries) {
		next := fmt.Sprintf("%s%s?offset=%d&limit=%d", m.server.URL, ListingPath(), end, limit)
		page.Next = &next
	}

	json.NewEncoder(w).Encode(page)
}

func (m *MockPokeAPI) serveDetail(w http.ResponseWriter, id int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, b := range m.berries {
		if b.ID != id {
			continue
		}
		doc := map[string]any{
			"id":                 b.ID,
			"name":               b.Name,
			"max_harvest":        5,
			"natural_gift_power": 60,
			"size":               20,
		}
		if !b.OmitGrowthTime {
			doc["growth_time"] = b.GrowthTime
		}
		json.NewEncoder(w).Encode(doc)
		return
	}

	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"detail": "Not found."}`))
}

// NewPage renders a listing page body by hand, for tests that need exact
// control over "next" and "results".
func NewPage(next *string, entries ...[2]string) string {
	var b strings.Builder
	b.WriteString(`{"results": [`)
	for i, e := range entries {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, `{"name": %q, "url": %q}`, e[0], e[1])
	}
	b.WriteString(`], "next": `)
	if next == nil {
		b.WriteString("null")
	} else {
		fmt.Fprintf(&b, "%q", *next)
	}
	b.WriteString("}")
	return b.String()
}

// NewJSONResponse creates a 200 OK JSON response.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"detail": "Not found."}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}
