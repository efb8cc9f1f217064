package snapshot

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hupe1980/tilekit/geometry"
	"github.com/hupe1980/tilekit/tileset"
	"github.com/hupe1980/tilekit/volume"
)

// encoder appends little-endian tile records to a byte slice.
type encoder struct {
	buf []byte
}

func (e *encoder) u8(v uint8) { e.buf = append(e.buf, v) }

func (e *encoder) u32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }

func (e *encoder) f64(vs ...float64) {
	for _, v := range vs {
		e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v))
	}
}

func (e *encoder) str(s string) {
	e.u32(uint32(len(s))) //nolint:gosec // URIs are bounded by the arena
	e.buf = append(e.buf, s...)
}

func (e *encoder) volume(v volume.Volume) {
	e.u8(uint8(v.Type))
	switch v.Type {
	case volume.TypeBox:
		a := v.Box.Array()
		e.f64(a[:]...)
	case volume.TypeRegion:
		a := v.Region.Array()
		e.f64(a[:]...)
	case volume.TypeSphere:
		a := v.Sphere.Array()
		e.f64(a[:]...)
	}
}

func (e *encoder) ids(ids []tileset.TileID) {
	e.u32(uint32(len(ids))) //nolint:gosec // bounded by tile count
	for _, id := range ids {
		e.u32(uint32(id))
	}
}

// tile writes one record:
//
//	f64 geometric error | u8 refine | u8 subdivision | volume
//	u8 has transform [16 x f64] | ids children
//	u32 content count { str uri | volume }
func (e *encoder) tile(t tileset.Tile) {
	e.f64(t.GeometricError())
	e.u8(uint8(t.Refinement()))
	e.u8(uint8(t.Subdivision()))
	e.volume(t.BoundingVolume())

	if m := t.Transform(); m.IsIdentity() {
		e.u8(0)
	} else {
		e.u8(1)
		e.f64(m[:]...)
	}

	e.ids(t.Children())

	contents := t.Contents()
	e.u32(uint32(contents.Len())) //nolint:gosec // bounded by the bucket
	for i := range contents.Len() {
		e.str(contents.URI(i))
		e.volume(contents.Volume(i))
	}
}

// decoder reads records written by encoder. The first short read sets err;
// later reads return zero values.
type decoder struct {
	buf []byte
	off int
	err error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || len(d.buf)-d.off < n {
		d.err = fmt.Errorf("%w: truncated record at offset %d", ErrCorrupt, d.off)
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) u8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) u32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *decoder) f64s(dst []float64) {
	for i := range dst {
		b := d.take(8)
		if b == nil {
			return
		}
		dst[i] = math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
}

func (d *decoder) f64() float64 {
	var v [1]float64
	d.f64s(v[:])
	return v[0]
}

func (d *decoder) str() string {
	return string(d.take(int(d.u32())))
}

func (d *decoder) volume() volume.Volume {
	t := volume.Type(d.u8())
	switch t {
	case volume.TypeBox:
		var a [12]float64
		d.f64s(a[:])
		return volume.FromBox(geometry.BoxFromArray(a))
	case volume.TypeRegion:
		var a [6]float64
		d.f64s(a[:])
		return volume.FromRegion(geometry.RegionFromArray(a))
	case volume.TypeSphere:
		var a [4]float64
		d.f64s(a[:])
		return volume.FromSphere(geometry.SphereFromArray(a))
	default:
		return volume.Volume{Type: t}
	}
}

// ids decodes an id list into dst, reusing its storage.
func (d *decoder) ids(dst []tileset.TileID) []tileset.TileID {
	n := int(d.u32())
	if d.err != nil || n > (len(d.buf)-d.off)/4 {
		d.take(n * 4)
		return dst[:0]
	}
	dst = dst[:0]
	for range n {
		dst = append(dst, tileset.TileID(d.u32()))
	}
	return dst
}

// tile decodes one record into spec, reusing its slices.
func (d *decoder) tile(spec *tileset.TileSpec, transform *geometry.Matrix4) {
	spec.GeometricError = d.f64()
	spec.Refine = tileset.Refinement(d.u8())
	spec.Subdivision = tileset.Subdivision(d.u8())
	spec.Volume = d.volume()

	spec.Transform = nil
	if d.u8() == 1 {
		d.f64s(transform[:])
		spec.Transform = transform
	}

	spec.Children = d.ids(spec.Children)

	n := int(d.u32())
	spec.Contents = spec.Contents[:0]
	for range n {
		if d.err != nil {
			return
		}
		spec.Contents = append(spec.Contents, tileset.ContentSpec{URI: d.str(), Volume: d.volume()})
	}
}

func (d *decoder) done() bool { return d.off == len(d.buf) }
