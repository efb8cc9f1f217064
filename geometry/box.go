package geometry

// Box is an oriented bounding box: a center and three half-axis vectors.
type Box struct {
	Center   Vec3
	HalfAxes [3]Vec3
}

// NewBox returns the axis-aligned box with the given center and full size.
func NewBox(center, size Vec3) Box {
	h := size.Scale(0.5)
	return Box{
		Center: center,
		HalfAxes: [3]Vec3{
			{X: h.X},
			{Y: h.Y},
			{Z: h.Z},
		},
	}
}

// BoxFromArray decodes the 12-number 3D Tiles layout
// [cx, cy, cz, xx, xy, xz, yx, yy, yz, zx, zy, zz].
func BoxFromArray(a [12]float64) Box {
	return Box{
		Center: Vec3{a[0], a[1], a[2]},
		HalfAxes: [3]Vec3{
			{a[3], a[4], a[5]},
			{a[6], a[7], a[8]},
			{a[9], a[10], a[11]},
		},
	}
}

// Array encodes the box in the 3D Tiles layout.
func (b Box) Array() [12]float64 {
	x, y, z := b.HalfAxes[0], b.HalfAxes[1], b.HalfAxes[2]
	return [12]float64{
		b.Center.X, b.Center.Y, b.Center.Z,
		x.X, x.Y, x.Z,
		y.X, y.Y, y.Z,
		z.X, z.Y, z.Z,
	}
}

// Bounds returns the axis-aligned bounds enclosing the box.
func (b Box) Bounds() Bounds {
	ext := b.HalfAxes[0].Abs().Add(b.HalfAxes[1].Abs()).Add(b.HalfAxes[2].Abs())
	return Bounds{
		Min: b.Center.Sub(ext),
		Max: b.Center.Add(ext),
	}
}

// IsFinite reports whether every component is finite.
func (b Box) IsFinite() bool {
	return b.Center.IsFinite() && b.HalfAxes[0].IsFinite() && b.HalfAxes[1].IsFinite() && b.HalfAxes[2].IsFinite()
}
