package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behaviorsense/encoderd/core/cache"
)

func TestJanitor_SweepsExpiredEntries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	mgr, err := cache.NewManager(cache.Config{Enabled: true, MaxSize: 10}, testNamespaces)
	require.NoError(t, err)

	require.NoError(t, mgr.SetEmbedding(ctx, "motion", [][]float64{{1}}, []float32{1}, 20*time.Millisecond))

	j := cache.NewJanitor(mgr, 30*time.Millisecond, nil)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- j.Start(runCtx) }()

	assert.Eventually(t, func() bool {
		return mgr.Stats(ctx).Caches["motion"].Size == 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
