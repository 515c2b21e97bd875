package encoder

import "errors"

var (
	// ErrUnknownType indicates an unrecognized encoder type.
	ErrUnknownType = errors.New("unknown encoder type")

	// ErrModelNotLoaded indicates the model for a type is unavailable.
	ErrModelNotLoaded = errors.New("encoder model not loaded")

	// ErrInvalidInput indicates the input sequence failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBatchTooLarge indicates the batch exceeds the configured limit.
	ErrBatchTooLarge = errors.New("batch size exceeds limit")

	// ErrEmptyEmbedding indicates the model returned no embedding.
	ErrEmptyEmbedding = errors.New("empty embedding returned")

	// ErrEmbeddingCountMismatch indicates a batch result does not match the input count.
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")

	// ErrInferenceFailed indicates the model runner call failed.
	ErrInferenceFailed = errors.New("inference failed")
)
