package tileset

import (
	"github.com/hupe1980/tilekit/geometry"
	"github.com/hupe1980/tilekit/volume"
)

// Tile is a read-only view of one tile. It pairs the owning set with a tile id
// and reads every attribute from the set's columns on demand.
type Tile struct {
	set *TileSet
	id  TileID
}

// ID returns the tile id.
func (t Tile) ID() TileID { return t.id }

// GeometricError returns the tile's geometric error.
func (t Tile) GeometricError() float64 { return t.set.GetGeometricError(t.id) }

// BoundingVolume returns the tile's bounding volume.
func (t Tile) BoundingVolume() volume.Volume { return t.set.GetVolume(t.id) }

// Bounds returns the tile's axis-aligned bounds.
func (t Tile) Bounds() (geometry.Bounds, error) { return t.set.GetBounds(t.id) }

// Transform returns the tile transform.
func (t Tile) Transform() geometry.Matrix4 { return t.set.GetTransform(t.id) }

// Refinement returns the method of refinement.
func (t Tile) Refinement() Refinement { return t.set.GetMethodOfRefinement(t.id) }

// Subdivision returns the subdivision scheme.
func (t Tile) Subdivision() Subdivision { return t.set.GetSubdivision(t.id) }

// ChildCount returns the number of children.
func (t Tile) ChildCount() int { return int(t.set.children.GetBlock(int(t.id)).Length) }

// IsLeaf reports whether the tile has no children.
func (t Tile) IsLeaf() bool { return t.ChildCount() == 0 }

// Child returns a view of the i-th child.
func (t Tile) Child(i int) Tile { return Tile{set: t.set, id: t.set.GetChildren(t.id)[i]} }

// Children returns the child ids.
func (t Tile) Children() []TileID { return t.set.GetChildren(t.id) }

// Contents returns a view of the tile's content records.
func (t Tile) Contents() TileContents {
	return TileContents{set: t.set, items: t.set.GetContents(t.id)}
}

// IsWarm reports whether the tile is in the warm set.
func (t Tile) IsWarm() bool { return t.set.IsWarm(t.id) }

// IsHot reports whether the tile is in the hot set.
func (t Tile) IsHot() bool { return t.set.IsHot(t.id) }

// TileContents is a read-only view of one tile's content records.
type TileContents struct {
	set   *TileSet
	items []Content
}

// Len returns the number of contents.
func (c TileContents) Len() int { return len(c.items) }

// At returns the i-th record.
func (c TileContents) At(i int) Content { return c.items[i] }

// URI returns the URI of the i-th content.
func (c TileContents) URI(i int) string { return c.set.ResolveURI(c.items[i].URI) }

// Volume returns the bounding volume of the i-th content.
func (c TileContents) Volume(i int) volume.Volume { return c.set.ContentVolume(c.items[i]) }

// Bounds returns the axis-aligned bounds of the i-th content.
func (c TileContents) Bounds(i int) (geometry.Bounds, error) { return c.set.ContentBounds(c.items[i]) }
