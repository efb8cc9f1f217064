package geometry

import "math"

// Region is a geographic extent: longitude/latitude in radians (WGS84) plus a
// height range in meters.
type Region struct {
	West, South, East, North float64
	MinHeight, MaxHeight     float64
}

// RegionFromArray decodes the 6-number 3D Tiles layout
// [west, south, east, north, minimum height, maximum height].
func RegionFromArray(a [6]float64) Region {
	return Region{
		West: a[0], South: a[1], East: a[2], North: a[3],
		MinHeight: a[4], MaxHeight: a[5],
	}
}

// Array encodes the region in the 3D Tiles layout.
func (r Region) Array() [6]float64 {
	return [6]float64{r.West, r.South, r.East, r.North, r.MinHeight, r.MaxHeight}
}

// CrossesAntimeridian reports whether the region wraps across longitude ±π,
// which 3D Tiles encodes as West > East.
func (r Region) CrossesAntimeridian() bool { return r.West > r.East }

// Bounds returns the region as bounds in (longitude, latitude, height) space.
// A region crossing the antimeridian has East unwrapped by 2π, so Max.X may
// exceed π but never falls below Min.X.
func (r Region) Bounds() Bounds {
	east := r.East
	if r.CrossesAntimeridian() {
		east += 2 * math.Pi
	}
	return Bounds{
		Min: Vec3{r.West, r.South, r.MinHeight},
		Max: Vec3{east, r.North, r.MaxHeight},
	}
}

// IsFinite reports whether every component is finite.
func (r Region) IsFinite() bool {
	return Vec3{r.West, r.South, r.MinHeight}.IsFinite() && Vec3{r.East, r.North, r.MaxHeight}.IsFinite()
}
