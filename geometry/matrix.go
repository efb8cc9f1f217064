package geometry

// Matrix4 is a column-major 4x4 matrix, the layout of the 3D Tiles
// "transform" property.
type Matrix4 [16]float64

// Identity returns the identity matrix.
func Identity() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation returns a matrix translating by t.
func Translation(t Vec3) Matrix4 {
	m := Identity()
	m[12], m[13], m[14] = t.X, t.Y, t.Z
	return m
}

// IsIdentity reports whether m is exactly the identity matrix.
func (m Matrix4) IsIdentity() bool { return m == Identity() }

// At returns the element in the given row and column.
func (m Matrix4) At(row, col int) float64 { return m[col*4+row] }

// Mul returns m * o.
func (m Matrix4) Mul(o Matrix4) Matrix4 {
	var r Matrix4
	for col := range 4 {
		for row := range 4 {
			var sum float64
			for k := range 4 {
				sum += m[k*4+row] * o[col*4+k]
			}
			r[col*4+row] = sum
		}
	}
	return r
}

// TransformPoint applies m to p (w = 1).
func (m Matrix4) TransformPoint(p Vec3) Vec3 {
	return Vec3{
		m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12],
		m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13],
		m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14],
	}
}

// IsFinite reports whether every element is finite.
func (m Matrix4) IsFinite() bool {
	for _, v := range m {
		if !isFinite(v) {
			return false
		}
	}
	return true
}
