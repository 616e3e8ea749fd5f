package cache

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	// DefaultTTL is how long a rendered response stays fresh.
	DefaultTTL = 5 * time.Minute
)

// ETag returns the quoted strong validator for data.
func ETag(data []byte) string {
	return `"` + strconv.FormatUint(xxhash.Sum64(data), 16) + `"`
}

// NotModified reports whether the request's If-None-Match header matches
// the entry, in which case a 304 may be sent instead of the body.
func NotModified(r *http.Request, entry *Entry) bool {
	if entry == nil || entry.ETag == "" {
		return false
	}

	header := r.Header.Get("If-None-Match")
	if header == "" {
		return false
	}

	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		// Weak comparison applies to If-None-Match.
		if strings.TrimPrefix(candidate, "W/") == entry.ETag {
			return true
		}
	}
	return false
}

// WriteHeaders sets the validator and freshness headers of entry on w.
func WriteHeaders(w http.ResponseWriter, entry *Entry) {
	h := w.Header()
	h.Set("ETag", entry.ETag)
	h.Set("Expires", entry.Expires.UTC().Format(http.TimeFormat))
	h.Set("Last-Modified", entry.CachedAt.UTC().Format(http.TimeFormat))
	h.Set("Cache-Control", "public, max-age="+strconv.Itoa(int(entry.TTL().Seconds())))
}

// Serve writes entry as the response to r: 304 without a body when the
// client already holds it, otherwise 200 with the cached body.
func Serve(w http.ResponseWriter, r *http.Request, entry *Entry) {
	WriteHeaders(w, entry)

	if NotModified(r, entry) {
		NotModifiedResponses.Inc()
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", entry.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(entry.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(entry.Data)
}
