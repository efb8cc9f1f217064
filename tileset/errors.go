package tileset

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is the sentinel behind argument errors.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidGeometricError is returned for a negative or NaN geometric error.
	ErrInvalidGeometricError = fmt.Errorf("%w: geometric error must be a finite value >= 0", ErrInvalidArgument)
	// ErrSubdivisionDisabled is returned when a tile carries a subdivision
	// scheme but the set was created without WithSubdivision.
	ErrSubdivisionDisabled = errors.New("subdivision column disabled")
	// ErrDisposed is returned by operations on a disposed set.
	ErrDisposed = errors.New("tile set disposed")
)

// ErrInvalidCapacity is returned when the initial capacity is not a positive
// multiple of the growth chunk.
type ErrInvalidCapacity struct {
	Capacity int
	Chunk    int
}

func (e *ErrInvalidCapacity) Error() string {
	return fmt.Sprintf("invalid capacity %d: must be a positive multiple of %d", e.Capacity, e.Chunk)
}

func (e *ErrInvalidCapacity) Unwrap() error { return ErrInvalidArgument }
