package ratelimiter

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// staleAfter is how long an untouched bucket survives before the cleanup
// sweep drops it.
const staleAfter = time.Hour

type bucketState struct {
	tokens     int
	lastRefill time.Time
	lastAccess time.Time
}

// MemoryStore keeps bucket state in process memory. Suitable for a single
// instance; state is lost on restart and not shared between replicas.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucketState

	cleanupInterval time.Duration
	logger          *slog.Logger
	now             func() time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often the stale-bucket sweep runs.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if interval > 0 {
			ms.cleanupInterval = interval
		}
	}
}

// WithMemoryStoreLogger sets the logger for cleanup events.
func WithMemoryStoreLogger(logger *slog.Logger) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if logger != nil {
			ms.logger = logger
		}
	}
}

// WithMemoryStoreClock overrides the time source. Intended for tests.
func WithMemoryStoreClock(now func() time.Time) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if now != nil {
			ms.now = now
		}
	}
}

// NewMemoryStore creates an in-memory bucket store. Call Start in a
// goroutine to enable stale-bucket cleanup.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		buckets:         make(map[string]*bucketState),
		cleanupInterval: 5 * time.Minute,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(ms)
	}
	return ms
}

// ConsumeTokens refills the bucket for key, then consumes the requested
// tokens. A rejected request does not drain the bucket; the negative
// remaining only signals the shortfall.
func (ms *MemoryStore) ConsumeTokens(_ context.Context, key string, tokens int, config Config) (int, time.Time, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	b, ok := ms.buckets[key]
	if !ok {
		b = &bucketState{tokens: config.Capacity, lastRefill: now}
		ms.buckets[key] = b
	}

	// Whole elapsed intervals each add RefillRate tokens, capped at
	// capacity. Intervals are bounded so a long-idle bucket cannot
	// overflow the token arithmetic.
	elapsed := now.Sub(b.lastRefill)
	maxIntervals := int64(config.Capacity/config.RefillRate) + 1
	intervals := int64(elapsed / config.RefillInterval)
	if intervals > maxIntervals {
		intervals = maxIntervals
	}
	if intervals > 0 {
		b.tokens = min(b.tokens+int(intervals)*config.RefillRate, config.Capacity)
		b.lastRefill = now
	}
	b.lastAccess = now

	remaining := b.tokens - tokens
	if remaining >= 0 {
		b.tokens = remaining
	}

	return remaining, b.lastRefill.Add(config.RefillInterval), nil
}

// Reset drops the bucket for key.
func (ms *MemoryStore) Reset(_ context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.buckets, key)
	return nil
}

// Len returns the number of tracked buckets.
func (ms *MemoryStore) Len() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	return len(ms.buckets)
}

// Start runs the stale-bucket sweep until ctx is canceled. Returns the
// context error on exit.
func (ms *MemoryStore) Start(ctx context.Context) error {
	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	ms.logger.Info("rate limiter cleanup started", slog.Duration("interval", ms.cleanupInterval))

	for {
		select {
		case <-ctx.Done():
			ms.logger.Info("rate limiter cleanup stopped")
			return ctx.Err()
		case <-ticker.C:
			if removed := ms.removeStale(); removed > 0 {
				ms.logger.Debug("removed stale rate limit buckets", slog.Int("removed", removed))
			}
		}
	}
}

func (ms *MemoryStore) removeStale() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	removed := 0
	for key, b := range ms.buckets {
		if now.Sub(b.lastAccess) > staleAfter {
			delete(ms.buckets, key)
			removed++
		}
	}
	return removed
}
