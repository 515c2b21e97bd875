package encoder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/behaviorsense/encoderd/core/cache"
	"github.com/behaviorsense/encoderd/core/logger"
	"github.com/behaviorsense/encoderd/core/metrics"
)

// Config holds encoder configuration with environment variable support.
type Config struct {
	Dimensions        int           `env:"ENCODER_DIMENSIONS" envDefault:"256"`
	RunnerURL         string        `env:"ENCODER_RUNNER_URL" envDefault:""`
	MaxBatchSize      int           `env:"ENCODER_MAX_BATCH_SIZE" envDefault:"100"`
	MaxSequenceLength int           `env:"ENCODER_MAX_SEQUENCE_LENGTH" envDefault:"10000"`
	InferenceTimeout  time.Duration `env:"ENCODER_INFERENCE_TIMEOUT" envDefault:"30s"`
}

// Service orchestrates the encode pipeline: validate the input, consult the
// cache, run inference on a miss, and write the result back. Cache failures
// never fail a request; they degrade to a model call.
type Service struct {
	models    map[Type]Model
	cache     *cache.Manager
	collector *metrics.Collector
	limits    Limits
	timeout   time.Duration
	logger    *slog.Logger
}

// ServiceOption configures Service construction.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger for cache write failures and slow calls.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithLimits overrides the default input limits.
func WithLimits(limits Limits) ServiceOption {
	return func(s *Service) {
		s.limits = limits
	}
}

// WithInferenceTimeout bounds a single model call. Zero disables the bound.
func WithInferenceTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.timeout = d
	}
}

// NewService wires models to the cache manager and metrics collector.
func NewService(models map[Type]Model, cacheMgr *cache.Manager, collector *metrics.Collector, opts ...ServiceOption) *Service {
	s := &Service{
		models:    models,
		cache:     cacheMgr,
		collector: collector,
		limits:    Limits{}.withDefaults(),
		timeout:   30 * time.Second,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limits returns the input limits the service enforces.
func (s *Service) Limits() Limits {
	return s.limits
}

// Encode produces an embedding for a single sample, serving from cache when
// possible. Concurrent misses on the same input may each run inference; the
// duplicate work is bounded by model latency and accepted.
func (s *Service) Encode(ctx context.Context, typ Type, sample Sample) ([]float32, error) {
	model, ok := s.models[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotLoaded, typ)
	}
	if err := ValidateSample(sample, s.limits); err != nil {
		return nil, err
	}

	if embedding, found := s.lookup(ctx, typ, sample); found {
		return embedding, nil
	}

	embedding, err := s.infer(ctx, typ, model, sample)
	if err != nil {
		return nil, err
	}

	s.store(ctx, typ, sample, embedding)
	return embedding, nil
}

// EncodeBatch produces embeddings for a batch of samples in input order.
// Cached samples are served directly; the model is called once for the
// misses only.
func (s *Service) EncodeBatch(ctx context.Context, typ Type, samples []Sample) ([][]float32, error) {
	model, ok := s.models[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotLoaded, typ)
	}
	if err := ValidateBatch(samples, s.limits); err != nil {
		return nil, err
	}

	embeddings := make([][]float32, len(samples))
	var missed []Sample
	var missedIdx []int

	for i, sample := range samples {
		if embedding, found := s.lookup(ctx, typ, sample); found {
			embeddings[i] = embedding
			continue
		}
		missed = append(missed, sample)
		missedIdx = append(missedIdx, i)
	}

	if len(missed) == 0 {
		return embeddings, nil
	}

	computed, err := s.inferBatch(ctx, typ, model, missed)
	if err != nil {
		return nil, err
	}
	if len(computed) != len(missed) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d samples", ErrEmbeddingCountMismatch, len(computed), len(missed))
	}

	for i, embedding := range computed {
		idx := missedIdx[i]
		embeddings[idx] = embedding
		s.store(ctx, typ, samples[idx], embedding)
	}
	return embeddings, nil
}

// ModelStatus reports, per known encoder type, whether a model is loaded and
// its embedding size. Used by the status endpoint.
func (s *Service) ModelStatus() map[string]ModelInfo {
	status := make(map[string]ModelInfo, len(Types()))
	for _, typ := range Types() {
		info := ModelInfo{Name: typ.ModelName()}
		if model, ok := s.models[typ]; ok {
			info.Loaded = true
			info.Dimensions = model.Dimensions()
		}
		status[typ.String()] = info
	}
	return status
}

// ModelInfo describes one encoder model for status reporting.
type ModelInfo struct {
	Name       string `json:"name"`
	Loaded     bool   `json:"loaded"`
	Dimensions int    `json:"dimensions,omitempty"`
}

func (s *Service) lookup(ctx context.Context, typ Type, sample Sample) ([]float32, bool) {
	embedding, found, err := s.cache.GetEmbedding(ctx, typ.String(), sample)
	if err != nil {
		s.logger.Warn("cache lookup failed", logger.Model(typ.String()), logger.Error(err))
		s.collector.RecordCacheMiss()
		return nil, false
	}
	if found {
		s.collector.RecordCacheHit()
		return embedding, true
	}
	s.collector.RecordCacheMiss()
	return nil, false
}

func (s *Service) store(ctx context.Context, typ Type, sample Sample, embedding []float32) {
	if err := s.cache.SetEmbedding(ctx, typ.String(), sample, embedding, 0); err != nil {
		s.logger.Warn("cache write failed", logger.Model(typ.String()), logger.Error(err))
	}
}

func (s *Service) infer(ctx context.Context, typ Type, model Model, sample Sample) ([]float32, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	embedding, err := model.Encode(ctx, sample)
	s.collector.RecordInferenceTime(typ.ModelName(), time.Since(start))
	if err != nil {
		return nil, err
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyEmbedding, typ.ModelName())
	}
	return embedding, nil
}

func (s *Service) inferBatch(ctx context.Context, typ Type, model Model, samples []Sample) ([][]float32, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	embeddings, err := model.EncodeBatch(ctx, samples)
	s.collector.RecordInferenceTime(typ.ModelName(), time.Since(start))
	if err != nil {
		return nil, err
	}
	for _, embedding := range embeddings {
		if len(embedding) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyEmbedding, typ.ModelName())
		}
	}
	return embeddings, nil
}
