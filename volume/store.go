package volume

import (
	"errors"

	"github.com/hupe1980/tilekit/geometry"
	"github.com/hupe1980/tilekit/internal/assert"
	"github.com/hupe1980/tilekit/internal/column"
	"github.com/hupe1980/tilekit/internal/conv"
)

// Store holds bounding volumes in per-shape pools addressed through slots.
//
// Thread safety: none. One writer; readers after the writer's batch completes.
type Store struct {
	refs    *column.Column[Ref]
	boxes   *column.Column[geometry.Box]
	regions *column.Column[geometry.Region]
	spheres *column.Column[geometry.Sphere]
}

// NewStore creates a store with capacity slots reserved.
// Pools start empty and grow on demand since the shape mix is unknown.
func NewStore(capacity int, opts ...column.Option) (*Store, error) {
	s := &Store{}
	var err error
	if s.refs, err = column.New[Ref](capacity, append(opts, column.WithName("volume.refs"))...); err != nil {
		return nil, err
	}
	if s.boxes, err = column.New[geometry.Box](0, append(opts, column.WithName("volume.boxes"))...); err != nil {
		return nil, errors.Join(err, s.Dispose())
	}
	if s.regions, err = column.New[geometry.Region](0, append(opts, column.WithName("volume.regions"))...); err != nil {
		return nil, errors.Join(err, s.Dispose())
	}
	if s.spheres, err = column.New[geometry.Sphere](0, append(opts, column.WithName("volume.spheres"))...); err != nil {
		return nil, errors.Join(err, s.Dispose())
	}
	return s, nil
}

// Len returns the number of slots.
func (s *Store) Len() int { return s.refs.Len() }

// Cap returns the number of reserved slots.
func (s *Store) Cap() int { return s.refs.Cap() }

// Grow extends the slot array to at least n slots. New slots are TypeNone.
func (s *Store) Grow(n int) error {
	if n <= s.refs.Len() {
		return nil
	}
	return s.refs.Resize(n)
}

// Reserve makes sure slots slots are reserved and that one more volume of
// each listed shape fits its pool without growth.
func (s *Store) Reserve(slots int, shapes ...Type) error {
	if err := s.refs.Grow(slots); err != nil {
		return err
	}
	var boxes, regions, spheres int
	for _, t := range shapes {
		switch t {
		case TypeBox:
			boxes++
		case TypeRegion:
			regions++
		case TypeSphere:
			spheres++
		}
	}
	if err := s.boxes.Grow(s.boxes.Len() + boxes); err != nil {
		return err
	}
	if err := s.regions.Grow(s.regions.Len() + regions); err != nil {
		return err
	}
	return s.spheres.Grow(s.spheres.Len() + spheres)
}

// Add stores v in the pool matching its type and records the reference at
// slot index. The slot must exist (see Grow). A volume with an unknown tag is
// recorded as-is; Bounds reports it.
func (s *Store) Add(index int, v Volume) error {
	assert.That(index >= 0 && index < s.refs.Len(), "volume slot %d outside %d slots", index, s.refs.Len())

	var (
		n   int
		err error
	)
	switch v.Type {
	case TypeBox:
		n = s.boxes.Len()
		err = s.boxes.Append(v.Box)
	case TypeRegion:
		n = s.regions.Len()
		err = s.regions.Append(v.Region)
	case TypeSphere:
		n = s.spheres.Len()
		err = s.spheres.Append(v.Sphere)
	}
	if err != nil {
		return err
	}

	idx, err := conv.IntToUint32(n)
	if err != nil {
		return err
	}
	s.refs.Set(index, Ref{Type: v.Type, Index: idx})
	return nil
}

// Append grows the slot array by one and stores v there.
func (s *Store) Append(v Volume) (int, error) {
	slot := s.refs.Len()
	if err := s.Grow(slot + 1); err != nil {
		return 0, err
	}
	if err := s.Add(slot, v); err != nil {
		_ = s.refs.Resize(slot)
		return 0, err
	}
	return slot, nil
}

// Ref returns the reference stored at slot i.
func (s *Store) Ref(i int) Ref { return s.refs.At(i) }

// Type returns the shape tag at slot i.
func (s *Store) Type(i int) Type { return s.refs.At(i).Type }

// Box returns the box at slot i. The slot must be TypeBox.
func (s *Store) Box(i int) geometry.Box {
	ref := s.refs.At(i)
	assert.That(ref.Type == TypeBox, "slot %d holds %s, not box", i, ref.Type)
	return s.boxes.At(int(ref.Index))
}

// Region returns the region at slot i. The slot must be TypeRegion.
func (s *Store) Region(i int) geometry.Region {
	ref := s.refs.At(i)
	assert.That(ref.Type == TypeRegion, "slot %d holds %s, not region", i, ref.Type)
	return s.regions.At(int(ref.Index))
}

// Sphere returns the sphere at slot i. The slot must be TypeSphere.
func (s *Store) Sphere(i int) geometry.Sphere {
	ref := s.refs.At(i)
	assert.That(ref.Type == TypeSphere, "slot %d holds %s, not sphere", i, ref.Type)
	return s.spheres.At(int(ref.Index))
}

// Volume reassembles the tagged value stored at slot i.
func (s *Store) Volume(i int) Volume {
	ref := s.refs.At(i)
	switch ref.Type {
	case TypeBox:
		return FromBox(s.boxes.At(int(ref.Index)))
	case TypeRegion:
		return FromRegion(s.regions.At(int(ref.Index)))
	case TypeSphere:
		return FromSphere(s.spheres.At(int(ref.Index)))
	default:
		return Volume{Type: ref.Type}
	}
}

// Bounds returns the axis-aligned bounds of slot i.
func (s *Store) Bounds(i int) (geometry.Bounds, error) {
	ref := s.refs.At(i)
	switch ref.Type {
	case TypeBox:
		return s.boxes.At(int(ref.Index)).Bounds(), nil
	case TypeRegion:
		return s.regions.At(int(ref.Index)).Bounds(), nil
	case TypeSphere:
		return s.spheres.At(int(ref.Index)).Bounds(), nil
	default:
		return geometry.Bounds{}, &ErrUnsupportedShape{Slot: i, Type: ref.Type}
	}
}

// Counts returns the pool sizes.
func (s *Store) Counts() (boxes, regions, spheres int) {
	return s.boxes.Len(), s.regions.Len(), s.spheres.Len()
}

// Clear drops every slot and pool entry, keeping the reservations.
func (s *Store) Clear() {
	s.refs.Clear()
	s.boxes.Clear()
	s.regions.Clear()
	s.spheres.Clear()
}

// Dispose releases all memory. The store must not be used afterwards.
func (s *Store) Dispose() error {
	var errs []error
	if s.refs != nil {
		errs = append(errs, s.refs.Dispose())
	}
	if s.boxes != nil {
		errs = append(errs, s.boxes.Dispose())
	}
	if s.regions != nil {
		errs = append(errs, s.regions.Dispose())
	}
	if s.spheres != nil {
		errs = append(errs, s.spheres.Dispose())
	}
	return errors.Join(errs...)
}

// ReservedBytes returns the bytes reserved across slots and pools.
func (s *Store) ReservedBytes() int64 {
	return s.refs.ReservedBytes() + s.boxes.ReservedBytes() + s.regions.ReservedBytes() + s.spheres.ReservedBytes()
}

// UsedBytes returns the bytes occupied across slots and pools.
func (s *Store) UsedBytes() int64 {
	return s.refs.UsedBytes() + s.boxes.UsedBytes() + s.regions.UsedBytes() + s.spheres.UsedBytes()
}
