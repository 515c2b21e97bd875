package encoder

import (
	"fmt"
	"math"
)

// Default input limits applied when a Limits field is zero.
const (
	DefaultMaxSequenceLength = 10000
	DefaultMaxFeatures       = 128
	DefaultMaxBatchSize      = 100
)

// Limits bounds the accepted input sizes. Zero fields use the package
// defaults.
type Limits struct {
	MaxSequenceLength int
	MaxFeatures       int
	MaxBatchSize      int
}

func (l Limits) withDefaults() Limits {
	if l.MaxSequenceLength <= 0 {
		l.MaxSequenceLength = DefaultMaxSequenceLength
	}
	if l.MaxFeatures <= 0 {
		l.MaxFeatures = DefaultMaxFeatures
	}
	if l.MaxBatchSize <= 0 {
		l.MaxBatchSize = DefaultMaxBatchSize
	}
	return l
}

// ValidateSample checks that a sample is non-empty, rectangular, within
// the configured limits, and contains only finite values.
func ValidateSample(sample Sample, limits Limits) error {
	limits = limits.withDefaults()

	if len(sample) == 0 {
		return fmt.Errorf("%w: empty sequence", ErrInvalidInput)
	}
	if len(sample) > limits.MaxSequenceLength {
		return fmt.Errorf("%w: sequence length %d exceeds limit %d", ErrInvalidInput, len(sample), limits.MaxSequenceLength)
	}

	width := len(sample[0])
	if width == 0 {
		return fmt.Errorf("%w: empty feature row", ErrInvalidInput)
	}
	if width > limits.MaxFeatures {
		return fmt.Errorf("%w: feature count %d exceeds limit %d", ErrInvalidInput, width, limits.MaxFeatures)
	}

	for i, row := range sample {
		if len(row) != width {
			return fmt.Errorf("%w: inconsistent feature count at row %d (got %d, want %d)", ErrInvalidInput, i, len(row), width)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite value at row %d column %d", ErrInvalidInput, i, j)
			}
		}
	}
	return nil
}

// ValidateBatch checks the batch size bound and every sample in the batch.
func ValidateBatch(samples []Sample, limits Limits) error {
	limits = limits.withDefaults()

	if len(samples) == 0 {
		return fmt.Errorf("%w: empty batch", ErrInvalidInput)
	}
	if len(samples) > limits.MaxBatchSize {
		return fmt.Errorf("%w: batch size %d exceeds limit %d", ErrBatchTooLarge, len(samples), limits.MaxBatchSize)
	}
	for i, sample := range samples {
		if err := ValidateSample(sample, limits); err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
	}
	return nil
}
