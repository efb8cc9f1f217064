// Package geometry defines the bounding-volume primitives of a tile hierarchy.
//
// Box, Region and Sphere mirror the three 3D Tiles bounding-volume kinds. They
// are plain pointer-free values so they can be stored in native columns, and
// each reduces to an axis-aligned double-precision Bounds:
//
//	box := geometry.NewBox(geometry.Vec3{X: 10}, geometry.Vec3{X: 2, Y: 2, Z: 2})
//	b := box.Bounds() // Min {9 -1 -1}, Max {11 1 1}
//
// Matrix4 is the column-major 4x4 tile transform.
package geometry
