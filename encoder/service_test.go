package encoder_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behaviorsense/encoderd/core/cache"
	"github.com/behaviorsense/encoderd/core/metrics"
	"github.com/behaviorsense/encoderd/encoder"
)

// countingModel wraps a placeholder and counts inference calls so tests can
// assert cache effectiveness.
type countingModel struct {
	inner       encoder.Model
	encodeCalls atomic.Int64
	batchCalls  atomic.Int64
	batchSizes  []int
	err         error
}

func newCountingModel() *countingModel {
	return &countingModel{inner: encoder.NewPlaceholder(32)}
}

func (m *countingModel) Encode(ctx context.Context, sample encoder.Sample) ([]float32, error) {
	m.encodeCalls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.inner.Encode(ctx, sample)
}

func (m *countingModel) EncodeBatch(ctx context.Context, samples []encoder.Sample) ([][]float32, error) {
	m.batchCalls.Add(1)
	m.batchSizes = append(m.batchSizes, len(samples))
	if m.err != nil {
		return nil, m.err
	}
	return m.inner.EncodeBatch(ctx, samples)
}

func (m *countingModel) Dimensions() int {
	return m.inner.Dimensions()
}

func newTestService(t *testing.T, model encoder.Model) (*encoder.Service, *metrics.Collector) {
	t.Helper()

	mgr, err := cache.NewManager(cache.Config{Enabled: true, MaxSize: 100}, []string{"motion", "gesture", "typing"})
	require.NoError(t, err)

	collector := metrics.New()
	svc := encoder.NewService(
		map[encoder.Type]encoder.Model{encoder.TypeMotion: model},
		mgr, collector,
	)
	return svc, collector
}

func TestServiceEncode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sample := encoder.Sample{{0.1, 0.2}, {0.3, 0.4}}

	t.Run("miss then hit", func(t *testing.T) {
		t.Parallel()

		model := newCountingModel()
		svc, collector := newTestService(t, model)

		first, err := svc.Encode(ctx, encoder.TypeMotion, sample)
		require.NoError(t, err)
		require.Len(t, first, 32)

		second, err := svc.Encode(ctx, encoder.TypeMotion, sample)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		// Second call is served from cache without touching the model.
		assert.Equal(t, int64(1), model.encodeCalls.Load())

		snap := collector.Snapshot()
		assert.Equal(t, uint64(1), snap.Cache.Hits)
		assert.Equal(t, uint64(1), snap.Cache.Misses)
	})

	t.Run("records inference time on miss", func(t *testing.T) {
		t.Parallel()

		svc, collector := newTestService(t, newCountingModel())

		_, err := svc.Encode(ctx, encoder.TypeMotion, sample)
		require.NoError(t, err)

		snap := collector.Snapshot()
		assert.Contains(t, snap.ModelInferenceMS, "motion_encoder")
	})

	t.Run("model not loaded", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, newCountingModel())

		_, err := svc.Encode(ctx, encoder.TypeTyping, sample)
		assert.ErrorIs(t, err, encoder.ErrModelNotLoaded)
	})

	t.Run("invalid input rejected before inference", func(t *testing.T) {
		t.Parallel()

		model := newCountingModel()
		svc, _ := newTestService(t, model)

		_, err := svc.Encode(ctx, encoder.TypeMotion, encoder.Sample{})
		assert.ErrorIs(t, err, encoder.ErrInvalidInput)
		assert.Zero(t, model.encodeCalls.Load())
	})

	t.Run("model error propagates", func(t *testing.T) {
		t.Parallel()

		model := newCountingModel()
		model.err = encoder.ErrInferenceFailed
		svc, _ := newTestService(t, model)

		_, err := svc.Encode(ctx, encoder.TypeMotion, sample)
		assert.ErrorIs(t, err, encoder.ErrInferenceFailed)
	})

	t.Run("empty embedding rejected", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, emptyModel{})

		_, err := svc.Encode(ctx, encoder.TypeMotion, sample)
		assert.ErrorIs(t, err, encoder.ErrEmptyEmbedding)
	})
}

func TestServiceEncodeBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	samples := []encoder.Sample{
		{{1, 2}, {3, 4}},
		{{5, 6}},
		{{7, 8}, {9, 10}},
	}

	t.Run("all misses", func(t *testing.T) {
		t.Parallel()

		model := newCountingModel()
		svc, _ := newTestService(t, model)

		embeddings, err := svc.EncodeBatch(ctx, encoder.TypeMotion, samples)
		require.NoError(t, err)
		require.Len(t, embeddings, 3)
		assert.Equal(t, int64(1), model.batchCalls.Load())
		assert.Equal(t, []int{3}, model.batchSizes)
	})

	t.Run("partial cache serves only misses to the model", func(t *testing.T) {
		t.Parallel()

		model := newCountingModel()
		svc, collector := newTestService(t, model)

		// Warm the middle sample through the single-sample path.
		warm, err := svc.Encode(ctx, encoder.TypeMotion, samples[1])
		require.NoError(t, err)

		embeddings, err := svc.EncodeBatch(ctx, encoder.TypeMotion, samples)
		require.NoError(t, err)
		require.Len(t, embeddings, 3)

		// Order is preserved and the cached position matches the warm value.
		assert.Equal(t, warm, embeddings[1])
		assert.Equal(t, []int{2}, model.batchSizes)

		snap := collector.Snapshot()
		assert.Equal(t, uint64(1), snap.Cache.Hits)
	})

	t.Run("fully cached batch skips the model", func(t *testing.T) {
		t.Parallel()

		model := newCountingModel()
		svc, _ := newTestService(t, model)

		_, err := svc.EncodeBatch(ctx, encoder.TypeMotion, samples)
		require.NoError(t, err)

		_, err = svc.EncodeBatch(ctx, encoder.TypeMotion, samples)
		require.NoError(t, err)
		assert.Equal(t, int64(1), model.batchCalls.Load())
	})

	t.Run("count mismatch detected", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, shortBatchModel{})

		_, err := svc.EncodeBatch(ctx, encoder.TypeMotion, samples)
		assert.ErrorIs(t, err, encoder.ErrEmbeddingCountMismatch)
	})

	t.Run("empty batch rejected", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, newCountingModel())

		_, err := svc.EncodeBatch(ctx, encoder.TypeMotion, nil)
		assert.ErrorIs(t, err, encoder.ErrInvalidInput)
	})
}

func TestServiceDisabledCache(t *testing.T) {
	t.Parallel()

	mgr, err := cache.NewManager(cache.Config{Enabled: false}, []string{"motion"})
	require.NoError(t, err)

	model := newCountingModel()
	svc := encoder.NewService(
		map[encoder.Type]encoder.Model{encoder.TypeMotion: model},
		mgr, metrics.New(),
	)

	ctx := context.Background()
	sample := encoder.Sample{{1, 2}}

	_, err = svc.Encode(ctx, encoder.TypeMotion, sample)
	require.NoError(t, err)
	_, err = svc.Encode(ctx, encoder.TypeMotion, sample)
	require.NoError(t, err)

	// Every call reaches the model when caching is off.
	assert.Equal(t, int64(2), model.encodeCalls.Load())
}

func TestServiceModelStatus(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, newCountingModel())

	status := svc.ModelStatus()
	require.Len(t, status, 3)

	assert.True(t, status["motion"].Loaded)
	assert.Equal(t, 32, status["motion"].Dimensions)
	assert.Equal(t, "motion_encoder", status["motion"].Name)

	assert.False(t, status["gesture"].Loaded)
	assert.False(t, status["typing"].Loaded)
}

// emptyModel returns zero-length embeddings.
type emptyModel struct{}

func (emptyModel) Encode(context.Context, encoder.Sample) ([]float32, error) {
	return []float32{}, nil
}

func (emptyModel) EncodeBatch(_ context.Context, samples []encoder.Sample) ([][]float32, error) {
	out := make([][]float32, len(samples))
	for i := range out {
		out[i] = []float32{}
	}
	return out, nil
}

func (emptyModel) Dimensions() int { return 0 }

// shortBatchModel returns fewer embeddings than samples.
type shortBatchModel struct{}

func (shortBatchModel) Encode(context.Context, encoder.Sample) ([]float32, error) {
	return []float32{1}, nil
}

func (shortBatchModel) EncodeBatch(_ context.Context, samples []encoder.Sample) ([][]float32, error) {
	out := make([][]float32, len(samples)-1)
	for i := range out {
		out[i] = []float32{1}
	}
	return out, nil
}

func (shortBatchModel) Dimensions() int { return 1 }
