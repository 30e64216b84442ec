package parmap

import "errors"

var (
	// ErrCapacityExceeded is returned when a requested bucket count is
	// beyond the largest table the container can build.
	ErrCapacityExceeded = errors.New("parmap: requested bucket count exceeds capacity")

	// ErrInvalidLoadFactor is returned for non-positive max load factors.
	ErrInvalidLoadFactor = errors.New("parmap: max load factor must be positive")
)
