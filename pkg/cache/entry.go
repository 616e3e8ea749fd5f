package cache

import (
	"time"
)

// Entry is a cached response body.
type Entry struct {
	// Data is the response body.
	Data []byte `json:"data"`

	// ContentType is sent back as the Content-Type header.
	ContentType string `json:"content_type"`

	// ETag is the quoted strong validator of Data.
	ETag string `json:"etag"`

	// Expires is when the entry becomes stale.
	Expires time.Time `json:"expires"`

	// CachedAt is when the entry was created. Served as Last-Modified.
	CachedAt time.Time `json:"cached_at"`
}

// NewEntry builds an entry for data that stays fresh for ttl.
func NewEntry(data []byte, contentType string, ttl time.Duration) *Entry {
	now := time.Now().UTC().Truncate(time.Second)
	return &Entry{
		Data:        data,
		ContentType: contentType,
		ETag:        ETag(data),
		Expires:     now.Add(ttl),
		CachedAt:    now,
	}
}

// IsExpired returns true if the cache entry has expired.
func (e *Entry) IsExpired() bool {
	return !time.Now().Before(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
