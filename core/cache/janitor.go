package cache

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Janitor periodically sweeps expired entries from every namespace of a
// Manager. The sweep is an optimization only: lazy expiry on read keeps the
// cache correct without it.
type Janitor struct {
	manager  *Manager
	interval time.Duration
	logger   *slog.Logger
}

// NewJanitor creates a janitor sweeping at the given interval.
// Non-positive intervals default to five minutes.
func NewJanitor(manager *Manager, interval time.Duration, logger *slog.Logger) *Janitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Janitor{
		manager:  manager,
		interval: interval,
		logger:   logger,
	}
}

// Start runs the sweep loop until the context is cancelled. Blocking; run it
// in a goroutine.
func (j *Janitor) Start(ctx context.Context) error {
	j.logger.InfoContext(ctx, "cache janitor started", slog.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("cache janitor stopping")
			return ctx.Err()
		case <-ticker.C:
			j.manager.CleanupExpired(ctx)
		}
	}
}
