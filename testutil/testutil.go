package testutil

import (
	"math"
	"math/rand"
	"strconv"
	"sync"

	"github.com/hupe1980/tilekit/geometry"
	"github.com/hupe1980/tilekit/tileset"
	"github.com/hupe1980/tilekit/volume"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // test data
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

func (r *RNG) vec(scale float64) geometry.Vec3 {
	return geometry.Vec3{
		X: (r.rand.Float64()*2 - 1) * scale,
		Y: (r.rand.Float64()*2 - 1) * scale,
		Z: (r.rand.Float64()*2 - 1) * scale,
	}
}

// Sphere returns a sphere centered in [-scale, scale)^3 with radius in [0, scale).
func (r *RNG) Sphere(scale float64) geometry.Sphere {
	r.mu.Lock()
	defer r.mu.Unlock()
	return geometry.Sphere{Center: r.vec(scale), Radius: r.rand.Float64() * scale}
}

// Box returns an axis-aligned box with half extents in [0, scale).
func (r *RNG) Box(scale float64) geometry.Box {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.vec(scale)
	size := geometry.Vec3{
		X: r.rand.Float64() * 2 * scale,
		Y: r.rand.Float64() * 2 * scale,
		Z: r.rand.Float64() * 2 * scale,
	}
	return geometry.NewBox(c, size)
}

// Region returns a valid geographic region in radians.
func (r *RNG) Region() geometry.Region {
	r.mu.Lock()
	defer r.mu.Unlock()
	west := (r.rand.Float64()*2 - 1) * math.Pi
	south := (r.rand.Float64() - 0.5) * math.Pi
	minH := r.rand.Float64() * 100
	return geometry.Region{
		West:      west,
		South:     south,
		East:      math.Min(west+r.rand.Float64()*0.01, math.Pi),
		North:     math.Min(south+r.rand.Float64()*0.01, math.Pi/2),
		MinHeight: minH,
		MaxHeight: minH + r.rand.Float64()*100,
	}
}

// Volume returns a random box, region or sphere.
func (r *RNG) Volume() volume.Volume {
	switch r.Intn(3) {
	case 0:
		return volume.FromBox(r.Box(1000))
	case 1:
		return volume.FromRegion(r.Region())
	default:
		return volume.FromSphere(r.Sphere(1000))
	}
}

// TreeShape describes a generated hierarchy.
type TreeShape struct {
	Depth    int
	Fanout   int
	Contents int
	// TransformEvery attaches a translation to every n-th tile when positive.
	TransformEvery int
}

// Tiles returns the number of tiles a full tree of this shape holds.
func (s TreeShape) Tiles() int {
	n, level := 0, 1
	for range s.Depth {
		n += level
		level *= s.Fanout
	}
	return n
}

// Tree appends a full tree of the given shape to ts, children before parents,
// and returns the root id. Content URIs are unique per tile.
func (r *RNG) Tree(ts *tileset.TileSet, shape TreeShape) (tileset.TileID, error) {
	t := &treeBuilder{rng: r, ts: ts, shape: shape}
	return t.build(shape.Depth, 1000)
}

type treeBuilder struct {
	rng   *RNG
	ts    *tileset.TileSet
	shape TreeShape
	n     int
}

func (b *treeBuilder) build(depth int, geometricError float64) (tileset.TileID, error) {
	var children []tileset.TileID
	if depth > 1 {
		children = make([]tileset.TileID, 0, b.shape.Fanout)
		for range b.shape.Fanout {
			id, err := b.build(depth-1, geometricError/2)
			if err != nil {
				return 0, err
			}
			children = append(children, id)
		}
	} else {
		geometricError = 0
	}

	spec := tileset.TileSpec{
		Volume:         b.rng.Volume(),
		GeometricError: geometricError,
		Children:       children,
		Refine:         tileset.Refinement(b.rng.Intn(2)),
	}
	for i := range b.shape.Contents {
		spec.Contents = append(spec.Contents, tileset.ContentSpec{
			URI: "tiles/" + strconv.Itoa(b.n) + "/" + strconv.Itoa(i) + ".glb",
		})
	}
	if b.shape.TransformEvery > 0 && b.n%b.shape.TransformEvery == 0 {
		m := geometry.Translation(geometry.Vec3{X: float64(b.n + 1)})
		spec.Transform = &m
	}
	b.n++
	return b.ts.AddTile(spec)
}
