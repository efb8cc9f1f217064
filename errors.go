package tilekit

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by operations on a closed Kit.
	ErrClosed = errors.New("tilekit: closed")
	// ErrDuplicateName is returned when a dataset name is already registered.
	ErrDuplicateName = errors.New("tilekit: duplicate dataset name")
	// ErrNotFound is returned when no tile set is registered under a name.
	ErrNotFound = errors.New("tilekit: tile set not found")
)

// ErrInvalidConfig reports a configuration value that cannot be applied.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidConfig struct {
	Field string
	Value string
	cause error
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("tilekit: invalid config %s=%q", e.Field, e.Value)
}

func (e *ErrInvalidConfig) Unwrap() error { return e.cause }
