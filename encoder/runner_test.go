package encoder_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behaviorsense/encoderd/encoder"
)

func TestRunnerModelEncode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sample := encoder.Sample{{0.1, 0.2}, {0.3, 0.4}}

	t.Run("successful encode", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/encode", r.URL.Path)

			var req struct {
				Model     string        `json:"model"`
				Sequences [][][]float64 `json:"sequences"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "motion_encoder", req.Model)
			require.Len(t, req.Sequences, 1)

			json.NewEncoder(w).Encode(map[string]any{
				"embeddings": [][]float32{{0.5, 0.5, 0.5}},
			})
		}))
		defer srv.Close()

		model := encoder.NewRunnerModel(srv.URL, "motion_encoder")
		embedding, err := model.Encode(ctx, sample)
		require.NoError(t, err)
		assert.Equal(t, []float32{0.5, 0.5, 0.5}, embedding)
	})

	t.Run("404 maps to model not loaded", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		model := encoder.NewRunnerModel(srv.URL, "motion_encoder", encoder.WithMaxRetries(0))
		_, err := model.Encode(ctx, sample)
		assert.ErrorIs(t, err, encoder.ErrModelNotLoaded)
	})

	t.Run("503 maps to model not loaded", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		model := encoder.NewRunnerModel(srv.URL, "motion_encoder", encoder.WithMaxRetries(0))
		_, err := model.Encode(ctx, sample)
		assert.ErrorIs(t, err, encoder.ErrModelNotLoaded)
	})

	t.Run("400 maps to invalid input without retry", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		model := encoder.NewRunnerModel(srv.URL, "motion_encoder", encoder.WithMaxRetries(3))
		_, err := model.Encode(ctx, sample)
		assert.ErrorIs(t, err, encoder.ErrInvalidInput)
		assert.Equal(t, int64(1), calls.Load())
	})

	t.Run("500 retried then surfaces inference failure", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		model := encoder.NewRunnerModel(srv.URL, "motion_encoder", encoder.WithMaxRetries(1))
		_, err := model.Encode(ctx, sample)
		assert.ErrorIs(t, err, encoder.ErrInferenceFailed)
		assert.Equal(t, int64(2), calls.Load())
	})

	t.Run("transient failure recovers within retry budget", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"embeddings": [][]float32{{1}},
			})
		}))
		defer srv.Close()

		model := encoder.NewRunnerModel(srv.URL, "motion_encoder", encoder.WithMaxRetries(2))
		embedding, err := model.Encode(ctx, sample)
		require.NoError(t, err)
		assert.Equal(t, []float32{1}, embedding)
	})

	t.Run("embedding count mismatch", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"embeddings": [][]float32{{1}, {2}},
			})
		}))
		defer srv.Close()

		model := encoder.NewRunnerModel(srv.URL, "motion_encoder", encoder.WithMaxRetries(0))
		_, err := model.Encode(ctx, sample)
		assert.ErrorIs(t, err, encoder.ErrEmbeddingCountMismatch)
	})
}

func TestRunnerModelEncodeBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	samples := []encoder.Sample{{{1, 2}}, {{3, 4}}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Sequences [][][]float64 `json:"sequences"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Sequences, 2)

		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{0.1}, {0.2}},
		})
	}))
	defer srv.Close()

	model := encoder.NewRunnerModel(srv.URL, "motion_encoder")
	embeddings, err := model.EncodeBatch(ctx, samples)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1}, {0.2}}, embeddings)
}

func TestRunnerModelCircuitBreaker(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sample := encoder.Sample{{1}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	model := encoder.NewRunnerModel(srv.URL, "motion_encoder", encoder.WithMaxRetries(0))

	// Five consecutive failures trip the breaker.
	for i := 0; i < 5; i++ {
		_, err := model.Encode(ctx, sample)
		require.ErrorIs(t, err, encoder.ErrModelNotLoaded)
	}

	// Subsequent calls fail fast without reaching the runner.
	_, err := model.Encode(ctx, sample)
	assert.ErrorIs(t, err, encoder.ErrModelNotLoaded)
}

func TestRunnerModelDimensions(t *testing.T) {
	t.Parallel()

	model := encoder.NewRunnerModel("http://localhost:1", "motion_encoder")
	assert.Equal(t, encoder.DefaultDimensions, model.Dimensions())

	custom := encoder.NewRunnerModel("http://localhost:1", "motion_encoder", encoder.WithDimensions(128))
	assert.Equal(t, 128, custom.Dimensions())
}
