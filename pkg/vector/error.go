package vector

import "errors"

var (
	// ErrDimensionMismatch is returned when a vector's length disagrees with
	// the collection's configured dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrWriteFailed is returned when an upsert could not be completed.
	ErrWriteFailed = errors.New("index write failed")

	// ErrSearchFailed is returned when a similarity query could not be completed.
	ErrSearchFailed = errors.New("index search failed")

	// ErrConnection is returned when the index backend is unreachable.
	ErrConnection = errors.New("index connection failed")
)
