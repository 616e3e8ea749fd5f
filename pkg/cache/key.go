package cache

import (
	"net/url"
	"slices"
	"strings"
)

// KeyPrefix namespaces every key this service writes.
const KeyPrefix = "berry-stats"

// Key identifies a cached response.
type Key struct {
	// Endpoint is the request path, e.g. "/api/v1/berries/stats".
	Endpoint string

	// QueryParams are the request query parameters.
	QueryParams url.Values
}

// KeyFromURL builds a key from a request URL.
func KeyFromURL(u *url.URL) Key {
	return Key{Endpoint: u.Path, QueryParams: u.Query()}
}

// String generates a deterministic key string.
// Format: berry-stats:endpoint:query1=a,b:query2=c
//
// Example:
//
//	berry-stats:api/v1/berries/stats
func (k Key) String() string {
	parts := []string{KeyPrefix}

	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		parts = append(parts, endpoint)
	}

	queryKeys := make([]string, 0, len(k.QueryParams))
	for key := range k.QueryParams {
		queryKeys = append(queryKeys, key)
	}
	slices.Sort(queryKeys)

	for _, key := range queryKeys {
		values := slices.Clone(k.QueryParams[key])
		slices.Sort(values)
		parts = append(parts, key+"="+strings.Join(values, ","))
	}

	return strings.Join(parts, ":")
}
