package cache

import (
	"context"
	"encoding/json"
	"math"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore keeps one namespace of embeddings in Redis. Expiry is native
// server-side TTL, so CleanupExpired has nothing to do. Hit/miss counters
// are process-local.
type redisStore struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64
}

func newRedisStore(client *redis.Client, namespace string, defaultTTL time.Duration) *redisStore {
	return &redisStore{
		client:     client,
		prefix:     "encoderd:" + namespace + ":",
		defaultTTL: defaultTTL,
	}
}

func (s *redisStore) Get(ctx context.Context, key string) ([]float32, bool) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		// redis.Nil and transport errors alike degrade to a miss;
		// the caller recomputes and the request still succeeds.
		s.misses.Add(1)
		return nil, false
	}

	var embedding []float32
	if err := json.Unmarshal(data, &embedding); err != nil {
		s.misses.Add(1)
		return nil, false
	}

	s.hits.Add(1)
	return embedding, true
}

func (s *redisStore) Set(ctx context.Context, key string, embedding []float32, ttl time.Duration) {
	data, err := json.Marshal(embedding)
	if err != nil {
		return
	}

	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	// Write failures are tolerated: a missing cache entry only costs a
	// recomputation on the next lookup.
	s.client.Set(ctx, s.prefix+key, data, ttl)
}

func (s *redisStore) Clear(ctx context.Context) {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		s.client.Del(ctx, iter.Val())
	}
}

func (s *redisStore) CleanupExpired(_ context.Context) int {
	return 0
}

func (s *redisStore) Stats(ctx context.Context) Stats {
	size := 0
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		size++
	}

	hits := s.hits.Load()
	misses := s.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = math.Round(float64(hits)/float64(total)*100*100) / 100
	}

	return Stats{
		Size:           size,
		Hits:           hits,
		Misses:         misses,
		HitRatePercent: hitRate,
	}
}
