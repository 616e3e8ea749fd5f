// Package cache stores rendered API responses in Redis and serves them with
// HTTP validators.
//
// Computing berry statistics means walking the whole upstream catalog, so
// the web layer keeps the rendered body for a fixed TTL:
//
//   - entries carry the body, its content type, a strong ETag and an expiry
//   - the Redis key TTL follows the entry expiry
//   - If-None-Match against a live entry answers 304 without a body
//   - Redis failures are reported to the caller, which treats them as a miss
//
// # Usage
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(rdb)
//
//	key := cache.Key{Endpoint: "/api/v1/berries/stats"}
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		entry = cache.NewEntry(body, "application/json", cache.DefaultTTL)
//		_ = manager.Set(ctx, key, entry)
//	}
//	cache.Serve(w, r, entry)
//
// # Metrics
//
//   - berry_stats_cache_hits_total
//   - berry_stats_cache_misses_total
//   - berry_stats_cache_errors_total{operation}
//   - berry_stats_304_responses_total
package cache
