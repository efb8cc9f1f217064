package geometry

// Sphere is a bounding sphere.
type Sphere struct {
	Center Vec3
	Radius float64
}

// SphereFromArray decodes the 4-number 3D Tiles layout [cx, cy, cz, radius].
func SphereFromArray(a [4]float64) Sphere {
	return Sphere{Center: Vec3{a[0], a[1], a[2]}, Radius: a[3]}
}

// Array encodes the sphere in the 3D Tiles layout.
func (s Sphere) Array() [4]float64 {
	return [4]float64{s.Center.X, s.Center.Y, s.Center.Z, s.Radius}
}

// Bounds returns the axis-aligned cube enclosing the sphere.
func (s Sphere) Bounds() Bounds {
	r := Vec3{s.Radius, s.Radius, s.Radius}
	return Bounds{
		Min: s.Center.Sub(r),
		Max: s.Center.Add(r),
	}
}

// IsFinite reports whether every component is finite.
func (s Sphere) IsFinite() bool {
	return s.Center.IsFinite() && isFinite(s.Radius)
}
