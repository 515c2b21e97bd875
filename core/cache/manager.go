package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds cache configuration with environment variable support.
type Config struct {
	Enabled bool          `env:"CACHE_ENABLED" envDefault:"true"`
	MaxSize int           `env:"CACHE_MAX_SIZE" envDefault:"1000"`
	TTL     time.Duration `env:"CACHE_TTL" envDefault:"1h"`

	// RedisURL switches the manager to a Redis backend when non-empty.
	RedisURL string `env:"CACHE_REDIS_URL" envDefault:""`

	// CleanupInterval drives the optional background janitor.
	CleanupInterval time.Duration `env:"CACHE_CLEANUP_INTERVAL" envDefault:"5m"`
}

// Store is a single-namespace embedding store. The in-memory implementation
// wraps LRUCache; the Redis implementation delegates expiry and memory
// management to the server.
type Store interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Set(ctx context.Context, key string, embedding []float32, ttl time.Duration)
	Clear(ctx context.Context)
	CleanupExpired(ctx context.Context) int
	Stats(ctx context.Context) Stats
}

// ManagerStats aggregates per-namespace statistics.
type ManagerStats struct {
	Enabled bool             `json:"enabled"`
	Caches  map[string]Stats `json:"caches"`
}

// Manager namespaces one Store per encoder type and derives cache keys from
// raw input structures. Namespaces are fully independent: a hot workload in
// one cannot evict entries from another.
type Manager struct {
	enabled    bool
	namespaces []string
	stores     map[string]Store
	logger     *slog.Logger
}

// ManagerOption configures Manager construction.
type ManagerOption func(*managerOptions)

type managerOptions struct {
	logger *slog.Logger
	now    func() time.Time
	stores map[string]Store
}

// WithManagerLogger sets the logger for cache lifecycle events.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(o *managerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithManagerClock overrides the time source of the in-memory stores.
// Intended for TTL tests; ignored by the Redis backend.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(o *managerOptions) {
		o.now = now
	}
}

// WithStore replaces the store for one namespace. Intended for tests.
func WithStore(namespace string, store Store) ManagerOption {
	return func(o *managerOptions) {
		if o.stores == nil {
			o.stores = make(map[string]Store)
		}
		o.stores[namespace] = store
	}
}

// NewManager creates a manager with one store per namespace. The backend is
// in-memory LRU unless cfg.RedisURL is set.
func NewManager(cfg Config, namespaces []string, opts ...ManagerOption) (*Manager, error) {
	o := &managerOptions{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	var client *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("cache: parse redis url: %w", err)
		}
		client = redis.NewClient(redisOpts)
	}

	m := &Manager{
		enabled:    cfg.Enabled,
		namespaces: append([]string(nil), namespaces...),
		stores:     make(map[string]Store, len(namespaces)),
		logger:     o.logger,
	}

	for _, ns := range namespaces {
		if override, ok := o.stores[ns]; ok {
			m.stores[ns] = override
			continue
		}
		if client != nil {
			m.stores[ns] = newRedisStore(client, ns, cfg.TTL)
			continue
		}
		m.stores[ns] = newMemoryStore(cfg.MaxSize, cfg.TTL, o.now)
	}

	m.logger.Info("cache manager initialized",
		slog.Bool("enabled", cfg.Enabled),
		slog.Int("max_size", cfg.MaxSize),
		slog.Duration("ttl", cfg.TTL),
		slog.Bool("redis", client != nil),
	)

	return m, nil
}

// Enabled reports whether caching is globally enabled.
func (m *Manager) Enabled() bool {
	return m.enabled
}

// GetEmbedding returns the cached embedding for the given namespace and raw
// input. Disabled caching and unknown namespaces answer with a silent miss.
// A key-derivation failure is returned to the caller.
func (m *Manager) GetEmbedding(ctx context.Context, namespace string, input any) ([]float32, bool, error) {
	if !m.enabled {
		return nil, false, nil
	}

	store, ok := m.stores[namespace]
	if !ok {
		return nil, false, nil
	}

	key, err := Key(namespace, input)
	if err != nil {
		return nil, false, err
	}

	emb, found := store.Get(ctx, key)
	return emb, found, nil
}

// SetEmbedding stores an embedding for the given namespace and raw input.
// A non-positive ttl falls back to the store default. Disabled caching and
// unknown namespaces are silent no-ops.
func (m *Manager) SetEmbedding(ctx context.Context, namespace string, input any, embedding []float32, ttl time.Duration) error {
	if !m.enabled {
		return nil
	}

	store, ok := m.stores[namespace]
	if !ok {
		return nil
	}

	key, err := Key(namespace, input)
	if err != nil {
		return err
	}

	store.Set(ctx, key, embedding, ttl)
	return nil
}

// Stats aggregates statistics across all namespaces.
func (m *Manager) Stats(ctx context.Context) ManagerStats {
	stats := ManagerStats{
		Enabled: m.enabled,
		Caches:  make(map[string]Stats, len(m.stores)),
	}
	for ns, store := range m.stores {
		stats.Caches[ns] = store.Stats(ctx)
	}
	return stats
}

// Clear empties the given namespaces, or all of them when none are named.
// Unknown namespaces are ignored.
func (m *Manager) Clear(ctx context.Context, namespaces ...string) {
	if len(namespaces) == 0 {
		namespaces = m.namespaces
	}
	for _, ns := range namespaces {
		if store, ok := m.stores[ns]; ok {
			store.Clear(ctx)
		}
	}
}

// CleanupExpired sweeps every namespace and returns the total number of
// entries removed.
func (m *Manager) CleanupExpired(ctx context.Context) int {
	removed := 0
	for _, store := range m.stores {
		removed += store.CleanupExpired(ctx)
	}
	if removed > 0 {
		m.logger.Info("cleaned up expired cache entries", slog.Int("removed", removed))
	}
	return removed
}

// memoryStore adapts the generic LRUCache to the Store interface.
type memoryStore struct {
	lru *LRUCache[string, []float32]
}

func newMemoryStore(maxSize int, ttl time.Duration, now func() time.Time) *memoryStore {
	return &memoryStore{
		lru: NewLRUCache[string, []float32](maxSize,
			WithDefaultTTL[string, []float32](ttl),
			WithClock[string, []float32](now),
		),
	}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]float32, bool) {
	return s.lru.Get(key)
}

func (s *memoryStore) Set(_ context.Context, key string, embedding []float32, ttl time.Duration) {
	s.lru.SetWithTTL(key, embedding, ttl)
}

func (s *memoryStore) Clear(_ context.Context) {
	s.lru.Clear()
}

func (s *memoryStore) CleanupExpired(_ context.Context) int {
	return s.lru.CleanupExpired()
}

func (s *memoryStore) Stats(_ context.Context) Stats {
	return s.lru.Stats()
}
