// Package tileset implements the columnar, append-only tile-hierarchy store.
//
// A TileSet keeps one row per tile across parallel native columns (geometric
// error, refinement, optional subdivision, transform, bounding volume,
// children block, contents block). Tiles are created only by AddTile, which
// returns a stable id equal to the append position. There is no per-tile
// update or delete; Clear resets the whole set and Dispose releases it.
//
// Besides tile attributes the set records two membership lists driven by an
// external scheduler: warm (prefetched) and hot (in use this cycle). Adding a
// member is idempotent and O(1).
//
// Thread safety: none. A TileSet assumes a single writer; readers run only
// after a writer's batch completes. Independent sets may be used concurrently.
//
// Tile and TileContents are non-owning views. They are invalidated by Clear,
// growth and Dispose and must not be cached across those operations.
package tileset
