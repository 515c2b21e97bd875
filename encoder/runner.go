package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// RunnerModel calls a remote model runner over HTTP. It retries transient
// failures with exponential backoff and trips a circuit breaker when the
// runner stays unhealthy, so callers fail fast instead of piling up.
type RunnerModel struct {
	baseURL    string
	modelName  string
	dimensions int
	client     *http.Client
	breaker    *gobreaker.CircuitBreaker
	maxRetries uint64
}

// RunnerOption customizes a RunnerModel.
type RunnerOption func(*RunnerModel)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) RunnerOption {
	return func(r *RunnerModel) {
		if client != nil {
			r.client = client
		}
	}
}

// WithDimensions overrides the advertised embedding size.
func WithDimensions(dimensions int) RunnerOption {
	return func(r *RunnerModel) {
		if dimensions > 0 {
			r.dimensions = dimensions
		}
	}
}

// WithMaxRetries bounds the retry attempts for transient failures.
func WithMaxRetries(n uint64) RunnerOption {
	return func(r *RunnerModel) {
		r.maxRetries = n
	}
}

// NewRunnerModel creates a model backed by the runner at baseURL serving
// the named model.
func NewRunnerModel(baseURL, modelName string, opts ...RunnerOption) *RunnerModel {
	r := &RunnerModel{
		baseURL:    baseURL,
		modelName:  modelName,
		dimensions: DefaultDimensions,
		client:     &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "model-runner-" + modelName,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return r
}

type runnerRequest struct {
	Model     string        `json:"model"`
	Sequences [][][]float64 `json:"sequences"`
}

type runnerResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Encode sends a single sequence to the runner.
func (r *RunnerModel) Encode(ctx context.Context, sample Sample) ([]float32, error) {
	embeddings, err := r.EncodeBatch(ctx, []Sample{sample})
	if err != nil {
		return nil, err
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("%w: got %d embeddings for 1 sample", ErrEmbeddingCountMismatch, len(embeddings))
	}
	return embeddings[0], nil
}

// EncodeBatch sends all sequences in one runner call, preserving order.
func (r *RunnerModel) EncodeBatch(ctx context.Context, samples []Sample) ([][]float32, error) {
	sequences := make([][][]float64, len(samples))
	for i, s := range samples {
		sequences[i] = s
	}
	body, err := json.Marshal(runnerRequest{Model: r.modelName, Sequences: sequences})
	if err != nil {
		return nil, fmt.Errorf("encode runner request: %w", err)
	}

	result, err := r.breaker.Execute(func() (any, error) {
		return r.post(ctx, body)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("%w: circuit breaker open for %s", ErrModelNotLoaded, r.modelName)
		}
		return nil, err
	}

	embeddings := result.([][]float32)
	if len(embeddings) != len(samples) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d samples", ErrEmbeddingCountMismatch, len(embeddings), len(samples))
	}
	return embeddings, nil
}

// Dimensions returns the vector size this model produces.
func (r *RunnerModel) Dimensions() int {
	return r.dimensions
}

func (r *RunnerModel) post(ctx context.Context, body []byte) ([][]float32, error) {
	var embeddings [][]float32

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/encode", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := r.client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInferenceFailed, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			var rr runnerResponse
			if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
				return backoff.Permanent(fmt.Errorf("decode runner response: %w", err))
			}
			embeddings = rr.Embeddings
			return nil
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusServiceUnavailable:
			io.Copy(io.Discard, resp.Body)
			return backoff.Permanent(fmt.Errorf("%w: runner returned %d for %s", ErrModelNotLoaded, resp.StatusCode, r.modelName))
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			io.Copy(io.Discard, resp.Body)
			return backoff.Permanent(fmt.Errorf("%w: runner rejected request with %d", ErrInvalidInput, resp.StatusCode))
		default:
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("%w: runner returned %d", ErrInferenceFailed, resp.StatusCode)
		}
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), r.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return embeddings, nil
}
