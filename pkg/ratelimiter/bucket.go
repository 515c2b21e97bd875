package ratelimiter

import (
	"context"
	"fmt"
	"time"
)

// Config defines the token bucket parameters.
type Config struct {
	// Capacity is the maximum number of tokens the bucket can hold.
	Capacity int

	// RefillRate is the number of tokens added per RefillInterval.
	RefillRate int

	// RefillInterval is how often tokens are added.
	RefillInterval time.Duration
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidConfig)
	}
	if c.RefillRate <= 0 {
		return fmt.Errorf("%w: refill rate must be positive", ErrInvalidConfig)
	}
	if c.RefillInterval <= 0 {
		return fmt.Errorf("%w: refill interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// Result reports the outcome of a token consumption attempt.
type Result struct {
	// Limit is the bucket capacity.
	Limit int

	// Remaining is the token count after the attempt. Negative when the
	// request was rejected.
	Remaining int

	// ResetAt is when the next refill happens.
	ResetAt time.Time
}

// Allowed reports whether the request may proceed.
func (r Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long the client should wait before retrying.
// Zero when the request was allowed.
func (r Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	if wait := time.Until(r.ResetAt); wait > 0 {
		return wait
	}
	return 0
}

// Store persists bucket state per key. Implementations must apply the refill
// and consume atomically.
type Store interface {
	// ConsumeTokens refills the bucket for key per config, then consumes
	// the requested tokens. Remaining may go negative on rejection.
	ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (remaining int, resetAt time.Time, err error)

	// Reset drops the bucket state for key.
	Reset(ctx context.Context, key string) error
}

// Bucket is a token bucket rate limiter over a Store.
type Bucket struct {
	store  Store
	config Config
}

// NewBucket creates a rate limiter with the given storage backend.
func NewBucket(store Store, config Config) (*Bucket, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Bucket{store: store, config: config}, nil
}

// Allow consumes one token for key.
func (b *Bucket) Allow(ctx context.Context, key string) (Result, error) {
	return b.AllowN(ctx, key, 1)
}

// AllowN consumes n tokens for key. A rejected request still advances the
// bucket bookkeeping so ResetAt stays accurate.
func (b *Bucket) AllowN(ctx context.Context, key string, n int) (Result, error) {
	if n <= 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidTokenCount, n)
	}

	remaining, resetAt, err := b.store.ConsumeTokens(ctx, key, n, b.config)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Limit:     b.config.Capacity,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// Reset clears the bucket for key, restoring it to full capacity on the next
// request.
func (b *Bucket) Reset(ctx context.Context, key string) error {
	return b.store.Reset(ctx, key)
}
