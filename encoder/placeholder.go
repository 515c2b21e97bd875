package encoder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"math/rand"
)

// Placeholder is a deterministic stand-in model used when no trained
// encoder is wired in. It derives embeddings from a hash of the input so
// identical samples always map to identical vectors, which keeps cache
// behavior and integration tests realistic without model weights.
type Placeholder struct {
	dimensions int
}

// NewPlaceholder creates a placeholder model producing vectors of the
// given size. Non-positive dimensions fall back to DefaultDimensions.
func NewPlaceholder(dimensions int) *Placeholder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Placeholder{dimensions: dimensions}
}

// Encode returns a unit-normalized vector seeded by the sample contents.
func (p *Placeholder) Encode(ctx context.Context, sample Sample) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(sample) == 0 {
		return nil, ErrInvalidInput
	}
	return p.generate(sample), nil
}

// EncodeBatch encodes each sample independently, preserving input order.
func (p *Placeholder) EncodeBatch(ctx context.Context, samples []Sample) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(samples))
	for _, sample := range samples {
		embedding, err := p.Encode(ctx, sample)
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, embedding)
	}
	return embeddings, nil
}

// Dimensions returns the vector size this model produces.
func (p *Placeholder) Dimensions() int {
	return p.dimensions
}

func (p *Placeholder) generate(sample Sample) []float32 {
	h := sha256.New()
	var buf [8]byte
	for _, row := range sample {
		for _, v := range row {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
		h.Write([]byte{0})
	}
	seed := int64(binary.LittleEndian.Uint64(h.Sum(nil)[:8]))
	rng := rand.New(rand.NewSource(seed))

	vec := make([]float32, p.dimensions)
	var norm float64
	for i := range vec {
		v := rng.NormFloat64()
		vec[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}
