package volume

import (
	"errors"
	"fmt"
)

// ErrUnsupportedShapeType is the sentinel wrapped by ErrUnsupportedShape.
var ErrUnsupportedShapeType = errors.New("unsupported shape")

// ErrUnsupportedShape reports a slot whose tag names no known shape.
type ErrUnsupportedShape struct {
	Slot int
	Type Type
}

func (e *ErrUnsupportedShape) Error() string {
	return fmt.Sprintf("unsupported shape %s at slot %d", e.Type, e.Slot)
}

func (e *ErrUnsupportedShape) Unwrap() error { return ErrUnsupportedShapeType }
