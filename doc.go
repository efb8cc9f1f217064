// Package tilekit stores streamed 3D tile hierarchies in columnar native memory.
//
// Tilekit holds one TileSet per dataset: a structure-of-arrays store of tile
// attributes and relations (geometric error, refinement, transform, bounding
// volume, children, contents) that never allocates per tile on the Go heap.
// An external scheduler reads tiles through views and records which tiles are
// prefetched (warm) or in use (hot); Tilekit only stores these decisions.
//
// # Packages
//
//   - tileset: the core store and its Tile / TileContents views
//   - volume: tagged-union bounding volumes (box, region, sphere)
//   - bucket, stringarena: the shared-array allocators behind relations and URIs
//   - ingest: 3D Tiles tileset.json loader
//   - snapshot: compressed, checksummed binary snapshots
//   - telemetry: per-store statistics, registry and Prometheus collector
//
// # Quick start
//
//	kit := tilekit.New(tilekit.WithMemoryLimit(512 << 20))
//	defer kit.Close()
//
//	ts, err := kit.NewTileSet("buildings", 1024)
//	if err != nil {
//		log.Fatal(err)
//	}
//	leaf, _ := ts.AddTile(tileset.TileSpec{
//		Volume:         volume.FromSphere(geometry.Sphere{Radius: 10}),
//		GeometricError: 0,
//		Contents:       []tileset.ContentSpec{{URI: "tile_0.glb"}},
//	})
//	root, _ := ts.AddTile(tileset.TileSpec{
//		Volume:         volume.FromSphere(geometry.Sphere{Radius: 100}),
//		GeometricError: 100,
//		Children:       []tileset.TileID{leaf},
//	})
//	ts.WarmTile(root)
//
// Loading an existing tileset:
//
//	f, _ := os.Open("tileset.json")
//	ts, res, err := kit.Load(ctx, f, "terrain")
//
// # Memory model
//
// Columns live in anonymous memory mappings outside the Go heap (or aligned
// heap memory with WithHeapMemory) and grow in fixed 64-row chunks. Clear keeps
// the reservation; Dispose releases it exactly once. A Kit charges every
// reservation against one memory budget.
//
// # Thread safety
//
// A TileSet has no internal locking and assumes a single writer. Kit methods
// are safe for concurrent use; independent tile sets may be mutated from
// different goroutines.
//
// # Debug builds
//
// Building with -tags tilekit_debug turns contract violations (block overflow,
// out-of-range ids, wrong-typed volume access, double Dispose) into panics.
package tilekit
