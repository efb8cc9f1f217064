// Package volume stores bounding volumes as a tagged union in native memory.
//
// Instead of an interface per volume, a Store keeps one typed pool per shape
// (boxes, regions, spheres) and a slot array of compact Refs. A Ref is a
// (Type, Index) pair; lookups switch on the tag, so there is neither a heap
// object nor dynamic dispatch per volume.
//
//	s, _ := volume.NewStore(64)
//	slot, _ := s.Append(volume.FromSphere(geometry.Sphere{Radius: 10}))
//	b, err := s.Bounds(slot)
//
// Slots are pre-sized by the caller with Grow; Add writes to an existing slot.
// The typed accessors (Box, Region, Sphere) trust the caller: asking a
// sphere-tagged slot for its Box yields an unspecified value. Bounds is the one
// checked path and fails with ErrUnsupportedShape on an unknown tag.
package volume
