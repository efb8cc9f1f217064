package tileset

import (
	"bytes"
	"log/slog"
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tilekit/geometry"
	"github.com/hupe1980/tilekit/internal/resource"
	"github.com/hupe1980/tilekit/telemetry"
	"github.com/hupe1980/tilekit/volume"
)

func newSet(t *testing.T, opts ...Option) *TileSet {
	t.Helper()
	ts, err := New("test", 64, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if !ts.Disposed() {
			require.NoError(t, ts.Dispose())
		}
	})
	return ts
}

func sphere(r float64) volume.Volume {
	return volume.FromSphere(geometry.Sphere{Radius: r})
}

func TestNew_InvalidCapacity(t *testing.T) {
	for _, c := range []int{0, -64, 1, 63, 65, 100} {
		_, err := New("bad", c)
		var capErr *ErrInvalidCapacity
		require.ErrorAs(t, err, &capErr, "capacity %d", c)
		assert.Equal(t, c, capErr.Capacity)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestNew_ReservedCoversUsed(t *testing.T) {
	ts := newSet(t)

	assert.Equal(t, 0, ts.Len())
	assert.Equal(t, 64, ts.Cap())
	assert.GreaterOrEqual(t, ts.ReservedBytes(), ts.UsedBytes())
	assert.Equal(t, int64(0), ts.UsedBytes())
}

func TestAddTile_IDsFollowAppendOrder(t *testing.T) {
	ts := newSet(t, WithHeapMemory(), WithSubdivision())

	for i := range 200 {
		id, err := ts.AddTile(TileSpec{Volume: sphere(1), GeometricError: float64(i)})
		require.NoError(t, err)
		require.Equal(t, TileID(i), id)
	}

	assert.Equal(t, 200, ts.Len())
	assert.Equal(t, 256, ts.Cap())
	assert.Equal(t, 200, ts.geometricErrors.Len())
	assert.Equal(t, 200, ts.refinements.Len())
	assert.Equal(t, 200, ts.subdivisions.Len())
	assert.Equal(t, 200, ts.transforms.Len())
	assert.Equal(t, 200, ts.volumes.Len())
	assert.Equal(t, 200, ts.children.Len())
	assert.Equal(t, 200, ts.contents.Len())
	assert.Equal(t, 200, ts.warm.index.Len())
	assert.Equal(t, 200, ts.hot.index.Len())
	assert.Equal(t, float64(150), ts.GetGeometricError(150))
}

func TestAddTile_Defaults(t *testing.T) {
	ts := newSet(t)

	id, err := ts.AddTile(TileSpec{Volume: sphere(1)})
	require.NoError(t, err)

	assert.Equal(t, RefineReplace, ts.GetMethodOfRefinement(id))
	assert.Equal(t, SubdivisionNone, ts.GetSubdivision(id))
	assert.Equal(t, geometry.Identity(), ts.GetTransform(id))
	assert.Empty(t, ts.GetChildren(id))
	assert.Empty(t, ts.GetContents(id))
}

func TestAddTile_ContentURI(t *testing.T) {
	ts := newSet(t)

	id, err := ts.AddTile(TileSpec{
		Volume:         sphere(5),
		GeometricError: 100,
		Contents:       []ContentSpec{{URI: "tile_0.glb"}},
	})
	require.NoError(t, err)
	assert.Equal(t, TileID(0), id)
	assert.Equal(t, float64(100), ts.GetGeometricError(0))

	contents := ts.GetContents(0)
	require.Len(t, contents, 1)
	assert.Equal(t, "tile_0.glb", ts.ResolveURI(contents[0].URI))

	// A content without a volume inherits the tile's.
	b, err := ts.ContentBounds(contents[0])
	require.NoError(t, err)
	assert.Equal(t, geometry.Vec3{X: 5, Y: 5, Z: 5}, b.Max)
}

func TestAddTile_Children(t *testing.T) {
	ts := newSet(t)

	a, err := ts.AddTile(TileSpec{Volume: sphere(1), GeometricError: 1})
	require.NoError(t, err)
	b, err := ts.AddTile(TileSpec{Volume: sphere(1), GeometricError: 1})
	require.NoError(t, err)
	root, err := ts.AddTile(TileSpec{Volume: sphere(2), GeometricError: 10, Children: []TileID{a, b}})
	require.NoError(t, err)

	assert.Equal(t, TileID(0), a)
	assert.Equal(t, TileID(1), b)
	assert.Equal(t, TileID(2), root)
	assert.Equal(t, []TileID{0, 1}, ts.GetChildren(root))

	// Later tiles never change an existing block.
	_, err = ts.AddTile(TileSpec{Volume: sphere(3), Children: []TileID{root, a, b}})
	require.NoError(t, err)
	assert.Equal(t, []TileID{0, 1}, ts.GetChildren(root))
	assert.Len(t, ts.GetChildren(root), 2)
}

func TestAddTile_TopDownChildren(t *testing.T) {
	ts := newSet(t)

	root, err := ts.AddTile(TileSpec{Volume: sphere(2), Children: []TileID{1, 2}})
	require.NoError(t, err)
	for range 2 {
		_, err := ts.AddTile(TileSpec{Volume: sphere(1)})
		require.NoError(t, err)
	}

	assert.Equal(t, []TileID{1, 2}, ts.GetChildren(root))
	assert.Equal(t, 2, ts.Tile(root).ChildCount())
}

func TestAddTile_Validation(t *testing.T) {
	ts := newSet(t)

	tests := []struct {
		name string
		spec TileSpec
		err  error
	}{
		{"negative error", TileSpec{GeometricError: -1}, ErrInvalidGeometricError},
		{"nan error", TileSpec{GeometricError: math.NaN()}, ErrInvalidGeometricError},
		{"inf error", TileSpec{GeometricError: math.Inf(1)}, ErrInvalidGeometricError},
		{"bad refine", TileSpec{Refine: Refinement(9)}, ErrInvalidArgument},
		{"bad subdivision", TileSpec{Subdivision: Subdivision(9)}, ErrInvalidArgument},
		{"subdivision disabled", TileSpec{Subdivision: SubdivisionOctree}, ErrSubdivisionDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.AddTile(tt.spec)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, 0, ts.Len())
		})
	}
}

func TestAddTile_SubdivisionAndTransform(t *testing.T) {
	ts := newSet(t, WithSubdivision())

	m := geometry.Translation(geometry.Vec3{X: 1, Y: 2, Z: 3})
	id, err := ts.AddTile(TileSpec{
		Volume:      sphere(1),
		Refine:      RefineAdd,
		Subdivision: SubdivisionQuadtree,
		Transform:   &m,
	})
	require.NoError(t, err)

	assert.Equal(t, SubdivisionQuadtree, ts.GetSubdivision(id))
	assert.Equal(t, RefineAdd, ts.GetMethodOfRefinement(id))
	assert.Equal(t, m, ts.GetTransform(id))
}

func TestBounds_MatchShapes(t *testing.T) {
	ts := newSet(t)

	box := geometry.NewBox(geometry.Vec3{X: 10, Y: 20, Z: 30}, geometry.Vec3{X: 4, Y: 6, Z: 8})
	region := geometry.Region{West: -1, South: -0.5, East: 1, North: 0.5, MinHeight: 0, MaxHeight: 100}
	sph := geometry.Sphere{Center: geometry.Vec3{X: 1}, Radius: 2}

	cases := []struct {
		v    volume.Volume
		want geometry.Bounds
	}{
		{volume.FromBox(box), box.Bounds()},
		{volume.FromRegion(region), region.Bounds()},
		{volume.FromSphere(sph), sph.Bounds()},
	}
	for _, c := range cases {
		id, err := ts.AddTile(TileSpec{Volume: c.v})
		require.NoError(t, err)

		assert.Equal(t, c.v.Type, ts.GetBoundingVolume(id).Type)
		b, err := ts.GetBounds(id)
		require.NoError(t, err)
		assert.Equal(t, c.want, b)
	}
}

func TestBounds_RegionAcrossAntimeridian(t *testing.T) {
	ts := newSet(t)

	region := geometry.Region{West: 3, South: -0.2, East: -3, North: 0.2, MinHeight: 0, MaxHeight: 50}
	id, err := ts.AddTile(TileSpec{Volume: volume.FromRegion(region)})
	require.NoError(t, err)

	b, err := ts.GetBounds(id)
	require.NoError(t, err)
	assert.False(t, b.IsEmpty())
	assert.Greater(t, b.Max.X, b.Min.X)
	assert.InDelta(t, 2*math.Pi-6, b.Max.X-b.Min.X, 1e-12)
}

func TestBounds_UnsupportedShape(t *testing.T) {
	ts := newSet(t)

	id, err := ts.AddTile(TileSpec{Volume: volume.Volume{Type: volume.Type(42)}})
	require.NoError(t, err)

	_, err = ts.GetBounds(id)
	assert.ErrorIs(t, err, volume.ErrUnsupportedShapeType)
}

func TestWarmHot_Idempotent(t *testing.T) {
	ts := newSet(t)
	for range 4 {
		_, err := ts.AddTile(TileSpec{Volume: sphere(1)})
		require.NoError(t, err)
	}

	p1 := ts.WarmTile(2)
	p2 := ts.WarmTile(2)
	assert.Equal(t, p1, p2)
	assert.Equal(t, 1, ts.WarmCount())

	assert.Equal(t, 1, ts.WarmTile(0))
	assert.Equal(t, 0, ts.WarmTile(2))
	assert.Equal(t, []TileID{2, 0}, ts.WarmTiles())

	// Warming does not heat and heating does not warm.
	assert.True(t, ts.IsWarm(2))
	assert.False(t, ts.IsHot(2))
	assert.Equal(t, 0, ts.HeatTile(3))
	assert.True(t, ts.IsHot(3))
	assert.False(t, ts.IsWarm(3))
	assert.Equal(t, 1, ts.HotCount())
}

func TestWarmHot_StateMachine(t *testing.T) {
	ts := newSet(t)
	for range 5 {
		_, err := ts.AddTile(TileSpec{Volume: sphere(1)})
		require.NoError(t, err)
	}

	for _, id := range []TileID{0, 1, 2, 3} {
		ts.WarmTile(id)
	}
	ts.HeatTile(1)
	ts.HeatTile(3)

	assert.Equal(t, []uint32{0, 2}, ts.EvictionCandidates().ToArray())

	// Hot -> Warm.
	assert.True(t, ts.CoolTile(3))
	assert.False(t, ts.CoolTile(3))
	assert.True(t, ts.IsWarm(3))
	assert.Equal(t, []uint32{0, 2, 3}, ts.EvictionCandidates().ToArray())

	// Eviction swaps the last member into the freed position.
	assert.True(t, ts.EvictTile(0))
	assert.False(t, ts.EvictTile(4))
	assert.Equal(t, []TileID{3, 1, 2}, ts.WarmTiles())
	pos, ok := ts.WarmPosition(3)
	assert.True(t, ok)
	assert.Equal(t, 0, pos)
	_, ok = ts.WarmPosition(0)
	assert.False(t, ok)

	ts.ClearHot()
	assert.Equal(t, 0, ts.HotCount())
	assert.False(t, ts.IsHot(1))
	assert.Equal(t, 3, ts.WarmCount())
	assert.Equal(t, []uint32{1, 2, 3}, ts.WarmBitmap().ToArray())
	assert.True(t, ts.HotBitmap().IsEmpty())

	// Re-heating after a cycle starts at position 0 again.
	assert.Equal(t, 0, ts.HeatTile(2))
	pos, ok = ts.HotPosition(2)
	assert.True(t, ok)
	assert.Equal(t, 0, pos)
}

func TestClear_ResetsActualKeepsReserved(t *testing.T) {
	ts := newSet(t)

	for i := range 70 {
		_, err := ts.AddTile(TileSpec{
			Volume:   sphere(1),
			Contents: []ContentSpec{{URI: "tiles/a.glb"}},
			Children: []TileID{TileID(i)},
		})
		require.NoError(t, err)
	}
	ts.WarmTile(5)
	ts.HeatTile(6)

	reserved := ts.ReservedBytes()
	capacity := ts.Cap()

	ts.Clear()
	assert.Equal(t, 0, ts.Len())
	assert.Equal(t, capacity, ts.Cap())
	assert.Equal(t, reserved, ts.ReservedBytes())
	assert.Equal(t, int64(0), ts.UsedBytes())
	assert.Equal(t, 0, ts.WarmCount())
	assert.Equal(t, 0, ts.HotCount())
	assert.Equal(t, 0, ts.Strings().Len())

	id, err := ts.AddTile(TileSpec{Volume: sphere(1), Contents: []ContentSpec{{URI: "b.glb"}}})
	require.NoError(t, err)
	assert.Equal(t, TileID(0), id)
	assert.Equal(t, 1, ts.Len())
	assert.False(t, ts.IsWarm(0))
	assert.Equal(t, "b.glb", ts.Tile(0).Contents().URI(0))
	assert.GreaterOrEqual(t, ts.ReservedBytes(), ts.UsedBytes())
}

func TestDispose_Once(t *testing.T) {
	rc := resource.NewController(resource.Config{})
	ts, err := New("once", 64, WithMemoryAcquirer(rc))
	require.NoError(t, err)
	assert.Equal(t, ts.ReservedBytes(), rc.MemoryUsage())

	require.NoError(t, ts.Dispose())
	assert.True(t, ts.Disposed())
	assert.Equal(t, int64(0), rc.MemoryUsage())

	_, err = ts.AddTile(TileSpec{})
	assert.ErrorIs(t, err, ErrDisposed)
	assert.ErrorIs(t, ts.Reserve(128), ErrDisposed)
}

func TestMemoryBudget_FailedAddLeavesSetUnchanged(t *testing.T) {
	rc := resource.NewController(resource.Config{})
	probe, err := New("probe", 64, WithHeapMemory(), WithMemoryAcquirer(rc))
	require.NoError(t, err)
	initial := rc.MemoryUsage()
	require.NoError(t, probe.Dispose())

	// Room for the initial columns plus one chunk of spheres.
	spheres := int64(unsafe.Sizeof(geometry.Sphere{})) * 64
	limited := resource.NewController(resource.Config{MemoryLimitBytes: initial + spheres})
	ts, err := New("limited", 64, WithHeapMemory(), WithMemoryAcquirer(limited))
	require.NoError(t, err)
	defer ts.Dispose()

	for range 64 {
		_, err := ts.AddTile(TileSpec{Volume: sphere(1), Children: []TileID{0}})
		require.NoError(t, err)
	}
	used := ts.UsedBytes()

	_, err = ts.AddTile(TileSpec{Volume: sphere(1), Children: []TileID{0}})
	require.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	assert.Equal(t, 64, ts.Len())
	assert.Equal(t, used, ts.UsedBytes())
	assert.Equal(t, 64, ts.children.Len())
	assert.Equal(t, 64, ts.volumes.Len())
}

func TestViews(t *testing.T) {
	ts := newSet(t)

	leaf, err := ts.AddTile(TileSpec{
		Volume:         sphere(1),
		GeometricError: 0,
		Refine:         RefineAdd,
		Contents: []ContentSpec{
			{URI: "leaf.b3dm"},
			{URI: "leaf.pnts", Volume: volume.FromBox(geometry.NewBox(geometry.Vec3{}, geometry.Vec3{X: 2, Y: 2, Z: 2}))},
		},
	})
	require.NoError(t, err)
	root, err := ts.AddTile(TileSpec{Volume: sphere(10), GeometricError: 50, Children: []TileID{leaf}})
	require.NoError(t, err)

	r := ts.Tile(root)
	assert.Equal(t, root, r.ID())
	assert.Equal(t, float64(50), r.GeometricError())
	assert.Equal(t, volume.TypeSphere, r.BoundingVolume().Type)
	assert.Equal(t, RefineReplace, r.Refinement())
	assert.Equal(t, SubdivisionNone, r.Subdivision())
	assert.Equal(t, geometry.Identity(), r.Transform())
	assert.False(t, r.IsLeaf())
	assert.Equal(t, []TileID{leaf}, r.Children())

	l := r.Child(0)
	assert.Equal(t, leaf, l.ID())
	assert.True(t, l.IsLeaf())
	assert.Equal(t, RefineAdd, l.Refinement())

	c := l.Contents()
	require.Equal(t, 2, c.Len())
	assert.Equal(t, "leaf.b3dm", c.URI(0))
	assert.Equal(t, "leaf.pnts", c.URI(1))
	assert.Equal(t, volume.TypeSphere, c.Volume(0).Type)
	assert.Equal(t, volume.TypeBox, c.Volume(1).Type)
	b, err := c.Bounds(1)
	require.NoError(t, err)
	assert.Equal(t, geometry.Vec3{X: 1, Y: 1, Z: 1}, b.Max)
	assert.Equal(t, c.At(1), ts.GetContents(leaf)[1])

	ts.WarmTile(leaf)
	assert.True(t, l.IsWarm())
	assert.False(t, l.IsHot())

	var ids []TileID
	for tile := range ts.Tiles() {
		ids = append(ids, tile.ID())
	}
	assert.Equal(t, []TileID{0, 1}, ids)

	lb, err := l.Bounds()
	require.NoError(t, err)
	assert.Equal(t, geometry.Vec3{X: -1, Y: -1, Z: -1}, lb.Min)
}

func TestCollect(t *testing.T) {
	ts := newSet(t)

	_, err := ts.AddTile(TileSpec{Volume: sphere(1), Contents: []ContentSpec{{URI: "abc.glb"}}})
	require.NoError(t, err)
	_, err = ts.AddTile(TileSpec{Volume: sphere(1), Contents: []ContentSpec{{URI: "de.glb"}}})
	require.NoError(t, err)
	ts.WarmTile(0)
	ts.WarmTile(1)
	ts.HeatTile(1)

	var s telemetry.Stats
	ts.Collect(&s)

	assert.Equal(t, ts.ID(), s.DataSetID)
	assert.Equal(t, "test", s.Name())
	assert.Equal(t, int64(64), s.TilesAllocated)
	assert.Equal(t, int64(2), s.TilesActual)
	assert.Equal(t, int64(len("abc.glb")+len("de.glb")), s.StringsActual)
	assert.GreaterOrEqual(t, s.StringsAllocated, s.StringsActual)
	assert.Equal(t, int64(2), s.UrisActual)
	assert.Equal(t, int64(64), s.UrisAllocated)
	assert.Equal(t, int64(2), s.WarmCount)
	assert.Equal(t, int64(1), s.HotCount)
	assert.Equal(t, ts.ReservedBytes(), s.NativeReservedBytes)
	assert.Equal(t, ts.UsedBytes(), s.NativeUsedBytes)
	assert.GreaterOrEqual(t, s.NativeReservedBytes, s.NativeUsedBytes)
}

func TestLogger_LifecycleOnly(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ts, err := New("logged", 64, WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "tile set created")

	buf.Reset()
	for range 10 {
		_, err := ts.AddTile(TileSpec{Volume: sphere(1)})
		require.NoError(t, err)
	}
	assert.Empty(t, buf.String())

	ts.Clear()
	assert.Contains(t, buf.String(), "tile set cleared")
	require.NoError(t, ts.Dispose())
	assert.Contains(t, buf.String(), "tile set disposed")
}

func TestDataSetIDsAreUnique(t *testing.T) {
	a := newSet(t)
	b := newSet(t)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestAddTile_NoAllocationsOnceReserved(t *testing.T) {
	ts, err := New("alloc", 256, WithHeapMemory())
	require.NoError(t, err)
	defer ts.Dispose()

	spec := TileSpec{
		Volume:         volume.FromSphere(geometry.Sphere{Radius: 1}),
		GeometricError: 10,
		Contents:       []ContentSpec{{URI: "tile_0.glb"}},
	}
	withChildren := spec
	withChildren.Children = []TileID{0}
	withChildren.Contents = []ContentSpec{
		{URI: "tile_0.glb"},
		{URI: "tile_0.pnts", Volume: volume.FromBox(geometry.NewBox(geometry.Vec3{}, geometry.Vec3{X: 1, Y: 1, Z: 1}))},
	}

	// Fill once so every column and pool holds its final reservation.
	for i := range ts.Cap() {
		s := spec
		if i > 0 {
			s = withChildren
		}
		_, err := ts.AddTile(s)
		require.NoError(t, err)
	}
	ts.Clear()

	_, err = ts.AddTile(spec)
	require.NoError(t, err)
	allocs := testing.AllocsPerRun(100, func() {
		if _, err := ts.AddTile(withChildren); err != nil {
			t.Fatal(err)
		}
	})
	assert.Zero(t, allocs)

	allocs = testing.AllocsPerRun(100, func() {
		_, _ = ts.GetBounds(1)
		_ = ts.GetChildren(1)
		_ = ts.GetContents(1)
		_ = ts.GetTransform(1)
	})
	assert.Zero(t, allocs)
}

func BenchmarkAddTile(b *testing.B) {
	ts, err := New("bench", 1<<16, WithExpectedStringBytes(1<<20))
	require.NoError(b, err)
	defer ts.Dispose()

	spec := TileSpec{
		Volume:         volume.FromSphere(geometry.Sphere{Radius: 1}),
		GeometricError: 10,
		Contents:       []ContentSpec{{URI: "tiles/0/0/0.glb"}},
		Children:       []TileID{1, 2, 3, 4},
	}

	for b.Loop() {
		if ts.Len() == ts.Cap() {
			ts.Clear()
		}
		if _, err := ts.AddTile(spec); err != nil {
			b.Fatal(err)
		}
	}
}
