package volume

import (
	"fmt"

	"github.com/hupe1980/tilekit/geometry"
)

// Type tags the shape held by a Ref.
type Type uint8

const (
	// TypeNone marks an empty slot.
	TypeNone Type = iota
	// TypeBox is an oriented box.
	TypeBox
	// TypeRegion is a geographic region.
	TypeRegion
	// TypeSphere is a sphere.
	TypeSphere
)

// String returns the 3D Tiles property name of the type.
func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeBox:
		return "box"
	case TypeRegion:
		return "region"
	case TypeSphere:
		return "sphere"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Ref is the compact (type, pool index) handle of a stored volume.
type Ref struct {
	Type  Type
	Index uint32
}

// Volume is a bounding volume passed by value into a Store.
// Only the payload matching Type is meaningful.
type Volume struct {
	Type   Type
	Box    geometry.Box
	Region geometry.Region
	Sphere geometry.Sphere
}

// FromBox wraps a box.
func FromBox(b geometry.Box) Volume { return Volume{Type: TypeBox, Box: b} }

// FromRegion wraps a region.
func FromRegion(r geometry.Region) Volume { return Volume{Type: TypeRegion, Region: r} }

// FromSphere wraps a sphere.
func FromSphere(s geometry.Sphere) Volume { return Volume{Type: TypeSphere, Sphere: s} }

// Bounds reduces the volume to axis-aligned bounds.
func (v Volume) Bounds() (geometry.Bounds, error) {
	switch v.Type {
	case TypeBox:
		return v.Box.Bounds(), nil
	case TypeRegion:
		return v.Region.Bounds(), nil
	case TypeSphere:
		return v.Sphere.Bounds(), nil
	default:
		return geometry.Bounds{}, &ErrUnsupportedShape{Type: v.Type}
	}
}

// IsFinite reports whether the active payload has only finite components.
func (v Volume) IsFinite() bool {
	switch v.Type {
	case TypeBox:
		return v.Box.IsFinite()
	case TypeRegion:
		return v.Region.IsFinite()
	case TypeSphere:
		return v.Sphere.IsFinite()
	default:
		return false
	}
}
