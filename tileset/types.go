package tileset

import (
	"fmt"

	"github.com/hupe1980/tilekit/geometry"
	"github.com/hupe1980/tilekit/stringarena"
	"github.com/hupe1980/tilekit/volume"
)

// TileID identifies a tile. Ids are assigned in append order starting at 0.
type TileID uint32

// Refinement is the method of refinement of a tile's content.
type Refinement uint8

const (
	// RefineReplace replaces the content with the children's content.
	RefineReplace Refinement = iota
	// RefineAdd renders children's content in addition to this content.
	RefineAdd
)

// String returns the 3D Tiles spelling.
func (r Refinement) String() string {
	switch r {
	case RefineReplace:
		return "REPLACE"
	case RefineAdd:
		return "ADD"
	default:
		return fmt.Sprintf("Refinement(%d)", uint8(r))
	}
}

// Valid reports whether r is a known method.
func (r Refinement) Valid() bool { return r <= RefineAdd }

// Subdivision is the implicit subdivision scheme of a tile.
type Subdivision uint8

const (
	// SubdivisionNone is an explicit tile.
	SubdivisionNone Subdivision = iota
	// SubdivisionQuadtree splits into four children.
	SubdivisionQuadtree
	// SubdivisionOctree splits into eight children.
	SubdivisionOctree
)

// String returns the 3D Tiles spelling.
func (s Subdivision) String() string {
	switch s {
	case SubdivisionNone:
		return "NONE"
	case SubdivisionQuadtree:
		return "QUADTREE"
	case SubdivisionOctree:
		return "OCTREE"
	default:
		return fmt.Sprintf("Subdivision(%d)", uint8(s))
	}
}

// Valid reports whether s is a known scheme.
func (s Subdivision) Valid() bool { return s <= SubdivisionOctree }

// Content is a stored content record: the URI handle plus the slot of its
// bounding volume in the set's content volume store.
type Content struct {
	URI    stringarena.Handle
	Volume uint32
}

// ContentSpec describes one payload passed to AddTile.
// A zero Volume inherits the tile's bounding volume.
type ContentSpec struct {
	URI    string
	Volume volume.Volume
}

// TileSpec holds the attributes of a new tile.
type TileSpec struct {
	Volume         volume.Volume
	GeometricError float64
	Contents       []ContentSpec
	Children       []TileID
	Refine         Refinement
	Subdivision    Subdivision
	// Transform is the tile transform. Nil means identity.
	Transform *geometry.Matrix4
}
