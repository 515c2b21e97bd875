package encoder

import "context"

// DefaultDimensions is the embedding size produced by the trained encoders.
const DefaultDimensions = 256

// Model converts biometric sequences to fixed-length embedding vectors.
// Implementations are expected to be safe for concurrent use.
type Model interface {
	// Encode converts a single sequence to a vector embedding.
	Encode(ctx context.Context, sample Sample) ([]float32, error)

	// EncodeBatch converts multiple sequences to vector embeddings.
	// Returns embeddings in the same order as the input samples.
	EncodeBatch(ctx context.Context, samples []Sample) ([][]float32, error)

	// Dimensions returns the vector size this model produces.
	Dimensions() int
}
