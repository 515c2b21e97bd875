// Package cache provides thread-safe caching for embedding vectors with
// LRU eviction and per-entry TTL support.
//
// # Features
//
//   - Generic LRU cache with compile-time type safety
//   - Configurable capacity limits with least-recently-used eviction
//   - Per-entry TTL with a cache-wide default; expired entries are removed
//     lazily on read and count as misses
//   - Hit/miss statistics tracking
//   - Optional eviction callbacks for resource cleanup
//   - Namespaced cache manager keyed by content hash, with an optional
//     Redis backend
//
// # LRU Cache
//
// The primary implementation is LRUCache, which evicts the least recently
// used items when capacity is reached:
//
//	c := cache.NewLRUCache[string, []float32](1000,
//		cache.WithDefaultTTL[string, []float32](time.Hour),
//	)
//
//	c.Set("key", vec)
//	if vec, found := c.Get("key"); found {
//		// cache hit
//	}
//
// # Cache Manager
//
// Manager maintains one independent store per encoder namespace and derives
// keys from the canonical JSON serialization of the input:
//
//	mgr, err := cache.NewManager(cfg, []string{"motion", "gesture", "typing"})
//	if emb, ok, err := mgr.GetEmbedding(ctx, "motion", input); ok {
//		// cached embedding
//	}
//
// A disabled manager keeps its state but answers every lookup with a miss
// and ignores writes.
package cache
