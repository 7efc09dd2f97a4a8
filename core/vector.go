package core

import (
	"fmt"
	"math"
)

// EmbeddingVector is a fixed-length semantic vector with a model tag.
// Vectors are immutable; the Euclidean norm is computed once at
// construction and cached.
type EmbeddingVector struct {
	values []float32
	model  string
	norm   float64
}

// NewEmbeddingVector creates a validated vector. The slice is copied,
// must have at least one dimension, and every component must be finite.
func NewEmbeddingVector(values []float32, model string) (EmbeddingVector, error) {
	if len(values) == 0 {
		return EmbeddingVector{}, fmt.Errorf("%w: %w", ErrInvalidVector, ErrEmptyVector)
	}
	copied := make([]float32, len(values))
	var sumSquares float64
	for i, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return EmbeddingVector{}, fmt.Errorf("%w: %w at index %d", ErrInvalidVector, ErrNonFiniteValue, i)
		}
		copied[i] = v
		sumSquares += f * f
	}
	return EmbeddingVector{
		values: copied,
		model:  model,
		norm:   math.Sqrt(sumSquares),
	}, nil
}

// Dimension returns the number of components.
func (v EmbeddingVector) Dimension() int { return len(v.values) }

// Model returns the tag of the model that produced the vector.
func (v EmbeddingVector) Model() string { return v.model }

// Norm returns the cached Euclidean norm.
func (v EmbeddingVector) Norm() float64 { return v.norm }

// Values returns a copy of the vector components.
func (v EmbeddingVector) Values() []float32 {
	copied := make([]float32, len(v.values))
	copy(copied, v.values)
	return copied
}

// IsZero reports whether the vector is the uninitialized zero value.
func (v EmbeddingVector) IsZero() bool { return v.values == nil }

// Cosine returns the cosine similarity between two vectors of equal
// dimension. A zero-norm operand yields similarity 0.
func (v EmbeddingVector) Cosine(other EmbeddingVector) (float64, error) {
	if len(v.values) != len(other.values) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(v.values), len(other.values))
	}
	if v.norm == 0 || other.norm == 0 {
		return 0, nil
	}
	var dot float64
	for i := range v.values {
		dot += float64(v.values[i]) * float64(other.values[i])
	}
	return dot / (v.norm * other.norm), nil
}

// Euclidean returns the Euclidean distance between two vectors of equal
// dimension.
func (v EmbeddingVector) Euclidean(other EmbeddingVector) (float64, error) {
	if len(v.values) != len(other.values) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(v.values), len(other.values))
	}
	var sum float64
	for i := range v.values {
		d := float64(v.values[i]) - float64(other.values[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// Manhattan returns the Manhattan distance between two vectors of equal
// dimension.
func (v EmbeddingVector) Manhattan(other EmbeddingVector) (float64, error) {
	if len(v.values) != len(other.values) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(v.values), len(other.values))
	}
	var sum float64
	for i := range v.values {
		sum += math.Abs(float64(v.values[i]) - float64(other.values[i]))
	}
	return sum, nil
}

// Normalized returns a unit-length copy of the vector. A zero vector is
// returned unchanged.
func (v EmbeddingVector) Normalized() EmbeddingVector {
	if v.norm == 0 || v.IsZero() {
		return v
	}
	values := make([]float32, len(v.values))
	for i, val := range v.values {
		values[i] = float32(float64(val) / v.norm)
	}
	return EmbeddingVector{values: values, model: v.model, norm: 1}
}

// MeanVector computes the component-wise mean of the given vectors.
// All vectors must share a dimension; the model tag is taken from the
// first vector.
func MeanVector(vectors []EmbeddingVector) (EmbeddingVector, error) {
	if len(vectors) == 0 {
		return EmbeddingVector{}, fmt.Errorf("%w: %w", ErrInvalidVector, ErrEmptyVector)
	}
	dim := vectors[0].Dimension()
	sums := make([]float64, dim)
	for _, vec := range vectors {
		if vec.Dimension() != dim {
			return EmbeddingVector{}, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, dim, vec.Dimension())
		}
		for i, val := range vec.values {
			sums[i] += float64(val)
		}
	}
	mean := make([]float32, dim)
	for i, sum := range sums {
		mean[i] = float32(sum / float64(len(vectors)))
	}
	return NewEmbeddingVector(mean, vectors[0].model)
}
