package vector

import "errors"

var (
	// ErrDimensionMismatch is returned when a vector's dimension disagrees
	// with the store's established dimension. It indicates a corrupted or
	// mixed-provider store and is never silently ignored.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrConnection is returned when a backing vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")
)
