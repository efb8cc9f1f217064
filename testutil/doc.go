// Package testutil provides testing utilities for Tilekit.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded generators for bounding volumes and tile hierarchies.
//
// # Random Volumes
//
//	rng := testutil.NewRNG(seed)
//	v := rng.Volume()          // box, region or sphere
//	s := rng.Sphere(100)       // radius in [0, 100)
//
// # Random Hierarchies
//
//	root, err := rng.Tree(ts, testutil.TreeShape{Depth: 4, Fanout: 4, Contents: 1})
package testutil
