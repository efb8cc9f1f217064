package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tilekit/codec"
	"github.com/hupe1980/tilekit/geometry"
	"github.com/hupe1980/tilekit/internal/resource"
	"github.com/hupe1980/tilekit/testutil"
	"github.com/hupe1980/tilekit/tileset"
	"github.com/hupe1980/tilekit/volume"
)

func buildSet(t *testing.T, opts ...tileset.Option) *tileset.TileSet {
	t.Helper()
	ts, err := tileset.New("city", 64, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ts.Dispose() })

	m := geometry.Translation(geometry.Vec3{X: 5, Y: 6, Z: 7})
	for i := range 100 {
		spec := tileset.TileSpec{
			Volume:         volume.FromSphere(geometry.Sphere{Center: geometry.Vec3{X: float64(i)}, Radius: 10}),
			GeometricError: float64(100 - i),
			Refine:         tileset.Refinement(i % 2),
			Contents: []tileset.ContentSpec{
				{URI: "tiles/mesh.glb"},
				{URI: "tiles/points.pnts", Volume: volume.FromBox(geometry.NewBox(geometry.Vec3{}, geometry.Vec3{X: 1, Y: 1, Z: 1}))},
			},
		}
		if i > 0 {
			spec.Children = []tileset.TileID{tileset.TileID(i - 1)}
		}
		if i%10 == 0 {
			spec.Transform = &m
			spec.Volume = volume.FromRegion(geometry.Region{West: -1, South: -1, East: 1, North: 1, MaxHeight: 10})
		}
		_, err := ts.AddTile(spec)
		require.NoError(t, err)
	}
	ts.WarmTile(7)
	ts.WarmTile(3)
	ts.WarmTile(99)
	ts.HeatTile(3)
	return ts
}

func assertEqualSets(t *testing.T, want, got *tileset.TileSet) {
	t.Helper()
	require.Equal(t, want.Len(), got.Len())
	assert.Equal(t, want.Name(), got.Name())
	for id := range want.Len() {
		tid := tileset.TileID(id)
		w, g := want.Tile(tid), got.Tile(tid)
		assert.Equal(t, w.GeometricError(), g.GeometricError())
		assert.Equal(t, w.Refinement(), g.Refinement())
		assert.Equal(t, w.Subdivision(), g.Subdivision())
		assert.Equal(t, w.BoundingVolume(), g.BoundingVolume())
		assert.Equal(t, w.Transform(), g.Transform())
		assert.Equal(t, w.Children(), g.Children())

		wc, gc := w.Contents(), g.Contents()
		require.Equal(t, wc.Len(), gc.Len())
		for i := range wc.Len() {
			assert.Equal(t, wc.URI(i), gc.URI(i))
			assert.Equal(t, wc.Volume(i), gc.Volume(i))
		}
	}
	assert.Equal(t, want.WarmTiles(), got.WarmTiles())
	assert.Equal(t, want.HotTiles(), got.HotTiles())
}

func TestWriteRead(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			src := buildSet(t)

			var buf bytes.Buffer
			info, err := Write(t.Context(), &buf, src, WithCompression(c))
			require.NoError(t, err)
			assert.Equal(t, int64(buf.Len()), info.Bytes)
			assert.Equal(t, 100, info.Tiles)
			assert.Equal(t, 99, info.Children)
			assert.Equal(t, 200, info.Contents)
			assert.Equal(t, 3, info.Warm)
			assert.Equal(t, 1, info.Hot)
			if c != CompressionNone {
				// Repetitive records always compress.
				assert.Equal(t, c, info.Compression)
				assert.Less(t, info.Bytes, info.RawBytes)
			}

			got, rinfo, err := Read(t.Context(), &buf, WithTileSetOptions(tileset.WithHeapMemory()))
			require.NoError(t, err)
			defer got.Dispose()

			assert.Equal(t, info.Bytes, rinfo.Bytes)
			assert.Equal(t, "go-json", rinfo.Codec)
			assertEqualSets(t, src, got)
			assert.Equal(t, 128, got.Cap())
		})
	}
}

func TestWriteRead_SubdivisionAndCodec(t *testing.T) {
	src, err := tileset.New("implicit", 64, tileset.WithSubdivision())
	require.NoError(t, err)
	defer src.Dispose()

	_, err = src.AddTile(tileset.TileSpec{
		Volume:      volume.FromSphere(geometry.Sphere{Radius: 1}),
		Subdivision: tileset.SubdivisionOctree,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = Write(t.Context(), &buf, src, WithCodec(codec.JSON{}))
	require.NoError(t, err)

	got, info, err := Read(t.Context(), &buf)
	require.NoError(t, err)
	defer got.Dispose()

	assert.Equal(t, "json", info.Codec)
	assert.True(t, got.SubdivisionEnabled())
	assert.Equal(t, tileset.SubdivisionOctree, got.GetSubdivision(0))
}

func TestWriteRead_Empty(t *testing.T) {
	src, err := tileset.New("empty", 64)
	require.NoError(t, err)
	defer src.Dispose()

	var buf bytes.Buffer
	_, err = Write(t.Context(), &buf, src)
	require.NoError(t, err)

	got, _, err := Read(t.Context(), &buf)
	require.NoError(t, err)
	defer got.Dispose()
	assert.Equal(t, 0, got.Len())
	assert.Equal(t, 64, got.Cap())
}

func TestRead_Corrupt(t *testing.T) {
	src := buildSet(t)
	var buf bytes.Buffer
	_, err := Write(t.Context(), &buf, src, WithCompression(CompressionNone))
	require.NoError(t, err)
	data := buf.Bytes()

	flipped := bytes.Clone(data)
	flipped[len(flipped)-10] ^= 0xFF
	_, _, err = Read(t.Context(), bytes.NewReader(flipped))
	assert.ErrorIs(t, err, ErrCorrupt)

	_, _, err = Read(t.Context(), bytes.NewReader(data[:len(data)-1]))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestRead_ImplausibleLengths(t *testing.T) {
	src := buildSet(t)
	var buf bytes.Buffer
	_, err := Write(t.Context(), &buf, src, WithCompression(CompressionNone))
	require.NoError(t, err)
	data := buf.Bytes()

	const (
		compressionOff = 6
		rawLenOff      = 28
		bodyLenOff     = 36
	)
	// The checksum covers meta and body only, so these headers still verify.
	patch := func(c Compression, rawLen, bodyLen uint64) []byte {
		out := bytes.Clone(data)
		out[compressionOff] = byte(c)
		if rawLen > 0 {
			binary.LittleEndian.PutUint64(out[rawLenOff:], rawLen)
		}
		if bodyLen > 0 {
			binary.LittleEndian.PutUint64(out[bodyLenOff:], bodyLen)
		}
		return out
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"lz4 raw length beyond block ratio", patch(CompressionLZ4, 1<<30, 0)},
		{"zstd raw length beyond decoded size", patch(CompressionZSTD, 1<<30, 0)},
		{"uncompressed raw length differs from body", patch(CompressionNone, 1<<30, 0)},
		{"body length beyond file", patch(CompressionNone, 1<<30, 1<<30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Read(t.Context(), bytes.NewReader(tt.data), WithMaxBodyBytes(1<<40))
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestRead_Incompatible(t *testing.T) {
	src := buildSet(t)
	var buf bytes.Buffer
	_, err := Write(t.Context(), &buf, src)
	require.NoError(t, err)
	data := buf.Bytes()

	badMagic := bytes.Clone(data)
	copy(badMagic, "NOPE")
	_, _, err = Read(t.Context(), bytes.NewReader(badMagic))
	assert.ErrorIs(t, err, ErrIncompatibleFormat)

	badVersion := bytes.Clone(data)
	binary.LittleEndian.PutUint16(badVersion[4:], Version+1)
	_, _, err = Read(t.Context(), bytes.NewReader(badVersion))
	assert.ErrorIs(t, err, ErrIncompatibleFormat)

	badCodec := bytes.Clone(data)
	copy(badCodec[8:], "msgpack\x00")
	_, _, err = Read(t.Context(), bytes.NewReader(badCodec))
	assert.ErrorIs(t, err, ErrIncompatibleFormat)

	_, _, err = Read(t.Context(), bytes.NewReader(data[:10]))
	assert.ErrorIs(t, err, ErrIncompatibleFormat)
}

func TestRead_MaxBodyBytes(t *testing.T) {
	src := buildSet(t)
	var buf bytes.Buffer
	_, err := Write(t.Context(), &buf, src)
	require.NoError(t, err)

	_, _, err = Read(t.Context(), &buf, WithMaxBodyBytes(16))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestWrite_Canceled(t *testing.T) {
	src := buildSet(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := Write(ctx, &bytes.Buffer{}, src)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWrite_IOLimiter(t *testing.T) {
	src := buildSet(t)
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 30})

	var buf bytes.Buffer
	info, err := Write(t.Context(), &buf, src, WithIOLimiter(rc))
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), info.Bytes)
}

func TestCompress_Incompressible(t *testing.T) {
	raw := []byte{1, 2, 3}
	out, applied, err := compress(raw, CompressionZSTD)
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, applied)
	assert.Equal(t, raw, out)

	_, _, err = compress(raw, Compression(9))
	assert.ErrorIs(t, err, ErrIncompatibleFormat)
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	got, err := ParseCompression("ZSTD")
	require.NoError(t, err)
	assert.Equal(t, CompressionZSTD, got)

	_, err = ParseCompression("brotli")
	assert.ErrorIs(t, err, ErrIncompatibleFormat)
}

func TestWriteRead_RandomTree(t *testing.T) {
	shape := testutil.TreeShape{Depth: 4, Fanout: 3, Contents: 2, TransformEvery: 7}
	ts, err := tileset.New("random", 64, tileset.WithHeapMemory())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ts.Dispose() })
	require.NoError(t, ts.Reserve(shape.Tiles()))

	root, err := testutil.NewRNG(99).Tree(ts, shape)
	require.NoError(t, err)
	ts.WarmTile(root)

	var buf bytes.Buffer
	_, err = Write(context.Background(), &buf, ts)
	require.NoError(t, err)

	got, _, err := Read(context.Background(), &buf, WithTileSetOptions(tileset.WithHeapMemory()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = got.Dispose() })

	require.Equal(t, ts.Len(), got.Len())
	for tile := range ts.Tiles() {
		other := got.Tile(tile.ID())
		assert.Equal(t, tile.GeometricError(), other.GeometricError())
		assert.Equal(t, tile.BoundingVolume(), other.BoundingVolume())
		assert.Equal(t, tile.Transform(), other.Transform())
		assert.Equal(t, tile.Refinement(), other.Refinement())
		assert.Equal(t, tile.Children(), other.Children())
		require.Equal(t, tile.Contents().Len(), other.Contents().Len())
		for i := range tile.Contents().Len() {
			assert.Equal(t, tile.Contents().URI(i), other.Contents().URI(i))
		}
	}
	assert.Equal(t, []tileset.TileID{root}, got.WarmTiles())
}
