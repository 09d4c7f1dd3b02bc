package vector

import "errors"

var (
	// ErrDimensionMismatch is returned when vectors that must share a
	// dimensionality do not.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrEmptySet is returned when an operation requires at least one vector.
	ErrEmptySet = errors.New("empty vector set")

	// ErrEmptyVector is returned for zero-length vectors.
	ErrEmptyVector = errors.New("empty vector")

	// ErrZeroNorm is returned when a similarity is undefined because a vector
	// has zero norm.
	ErrZeroNorm = errors.New("zero-norm vector")

	// ErrMalformedVector is returned when a nested numeric array cannot be
	// reduced to a flat vector, or when a vector has NaN or infinite
	// components.
	ErrMalformedVector = errors.New("malformed vector")
)
