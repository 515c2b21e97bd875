// Package ratelimiter implements token bucket rate limiting with pluggable
// storage.
//
// A Bucket holds Capacity tokens and gains RefillRate tokens every
// RefillInterval. Each request consumes tokens; when the bucket runs dry the
// request is rejected with enough information for the caller to set
// Retry-After and X-RateLimit headers. Bursts up to Capacity are allowed
// while the long-term rate stays bounded.
//
//	store := ratelimiter.NewMemoryStore()
//	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       100,
//		RefillRate:     10,
//		RefillInterval: time.Second,
//	})
//
//	result, err := limiter.Allow(ctx, clientIP)
//	if !result.Allowed() {
//		// reject with result.RetryAfter()
//	}
//
// The in-memory store is per-process. Keys unused for an hour are dropped by
// the cleanup sweep started with MemoryStore.Start.
package ratelimiter
