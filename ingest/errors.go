package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed is the sentinel behind every MalformedError.
	ErrMalformed = errors.New("malformed tileset")
	// ErrUnsupportedVersion is returned for an asset version other than 1.0 or 1.1.
	ErrUnsupportedVersion = errors.New("unsupported tileset version")
)

// MalformedError locates a validation failure in the document.
type MalformedError struct {
	// Path is the JSON path of the offending element, e.g. "root.children[2].boundingVolume".
	Path   string
	Reason string
	cause  error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrMalformed, e.Path, e.Reason)
}

func (e *MalformedError) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrMalformed, e.cause}
	}
	return []error{ErrMalformed}
}

func malformed(path, format string, args ...any) error {
	return &MalformedError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
