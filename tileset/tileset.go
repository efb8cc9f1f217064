package tileset

import (
	"errors"
	"iter"
	"math"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/tilekit/bucket"
	"github.com/hupe1980/tilekit/geometry"
	"github.com/hupe1980/tilekit/internal/assert"
	"github.com/hupe1980/tilekit/internal/column"
	"github.com/hupe1980/tilekit/stringarena"
	"github.com/hupe1980/tilekit/telemetry"
	"github.com/hupe1980/tilekit/volume"
)

// ChunkSize is the growth increment of every per-tile column. Initial
// capacities must be multiples of it.
const ChunkSize = column.ChunkSize

// defaultURIBytes is the per-tile URI text reserved when
// WithExpectedStringBytes is not given.
const defaultURIBytes = 32

var nextDataSetID atomic.Uint64

// TileSet is the columnar tile store of one dataset.
type TileSet struct {
	id      uint64
	name    string
	opts    options
	colOpts []column.Option

	geometricErrors *column.Column[float64]
	refinements     *column.Column[Refinement]
	subdivisions    *column.Column[Subdivision] // nil without WithSubdivision
	transforms      *column.Column[geometry.Matrix4]
	volumes         *volume.Store // slot == tile id
	children        *bucket.Allocator[TileID]
	contents        *bucket.Allocator[Content]
	contentVolumes  *volume.Store
	strings         *stringarena.Arena

	warm *membership
	hot  *membership

	// Reused by AddTile so appending a tile does not allocate.
	scratch      []Content
	shapeScratch []volume.Type
	disposed     bool
}

// New creates a tile set with room for capacity tiles. capacity must be a
// positive multiple of column.ChunkSize.
func New(name string, capacity int, optFns ...Option) (*TileSet, error) {
	if capacity <= 0 || capacity%ChunkSize != 0 {
		return nil, &ErrInvalidCapacity{Capacity: capacity, Chunk: ChunkSize}
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.expectedChildren <= 0 {
		opts.expectedChildren = capacity
	}
	if opts.expectedContents <= 0 {
		opts.expectedContents = capacity
	}
	if opts.expectedStringSize <= 0 {
		opts.expectedStringSize = capacity * defaultURIBytes
	}

	ts := &TileSet{
		id:   nextDataSetID.Add(1),
		name: name,
		opts: opts,
		colOpts: []column.Option{
			column.WithAllocator(opts.allocator),
			column.WithMemoryAcquirer(opts.acquirer),
			column.WithLogger(opts.logger),
		},
	}
	if err := ts.init(capacity); err != nil {
		return nil, errors.Join(err, ts.release())
	}

	opts.logger.Debug("tile set created",
		"dataset_id", ts.id,
		"dataset", name,
		"capacity", capacity,
		"allocator", opts.allocator.Name(),
		"subdivision", opts.subdivision,
	)
	return ts, nil
}

func (ts *TileSet) init(capacity int) error {
	var err error
	if ts.geometricErrors, err = column.New[float64](capacity, ts.columnOpts("tiles.geometric_error")...); err != nil {
		return err
	}
	if ts.refinements, err = column.New[Refinement](capacity, ts.columnOpts("tiles.refine")...); err != nil {
		return err
	}
	if ts.opts.subdivision {
		if ts.subdivisions, err = column.New[Subdivision](capacity, ts.columnOpts("tiles.subdivision")...); err != nil {
			return err
		}
	}
	if ts.transforms, err = column.New[geometry.Matrix4](capacity, ts.columnOpts("tiles.transform")...); err != nil {
		return err
	}
	if ts.volumes, err = volume.NewStore(capacity, ts.colOpts...); err != nil {
		return err
	}
	if ts.children, err = bucket.New[TileID](ts.opts.expectedChildren, capacity, ts.colOpts...); err != nil {
		return err
	}
	if ts.contents, err = bucket.New[Content](ts.opts.expectedContents, capacity, ts.colOpts...); err != nil {
		return err
	}
	if ts.contentVolumes, err = volume.NewStore(ts.opts.expectedContents, ts.colOpts...); err != nil {
		return err
	}
	if ts.strings, err = stringarena.New(ts.opts.expectedStringSize, ts.opts.expectedContents, ts.colOpts...); err != nil {
		return err
	}
	if ts.warm, err = newMembership(capacity, ts.columnOpts("tiles.warm")...); err != nil {
		return err
	}
	ts.hot, err = newMembership(capacity, ts.columnOpts("tiles.hot")...)
	return err
}

func (ts *TileSet) columnOpts(name string) []column.Option {
	return append(ts.colOpts[:len(ts.colOpts):len(ts.colOpts)], column.WithName(name))
}

// ID returns the process-unique dataset id.
func (ts *TileSet) ID() uint64 { return ts.id }

// Name returns the dataset name.
func (ts *TileSet) Name() string { return ts.name }

// Len returns the number of tiles.
func (ts *TileSet) Len() int { return ts.geometricErrors.Len() }

// Cap returns the number of reserved tile rows.
func (ts *TileSet) Cap() int { return ts.geometricErrors.Cap() }

// SubdivisionEnabled reports whether the set carries the subdivision column.
func (ts *TileSet) SubdivisionEnabled() bool { return ts.subdivisions != nil }

// Strings returns the URI arena.
func (ts *TileSet) Strings() *stringarena.Arena { return ts.strings }

// Reserve makes sure n tiles fit without growing any per-tile column.
func (ts *TileSet) Reserve(n int) error {
	if ts.disposed {
		return ErrDisposed
	}
	if err := ts.geometricErrors.Grow(n); err != nil {
		return err
	}
	if err := ts.refinements.Grow(n); err != nil {
		return err
	}
	if ts.subdivisions != nil {
		if err := ts.subdivisions.Grow(n); err != nil {
			return err
		}
	}
	if err := ts.transforms.Grow(n); err != nil {
		return err
	}
	if err := ts.volumes.Reserve(n); err != nil {
		return err
	}
	if err := ts.children.Reserve(n, ts.children.ItemCount()); err != nil {
		return err
	}
	if err := ts.contents.Reserve(n, ts.contents.ItemCount()); err != nil {
		return err
	}
	if err := ts.warm.grow(n); err != nil {
		return err
	}
	return ts.hot.grow(n)
}

// AddTile appends one tile and returns its id. It is the only way to create
// rows. Content URIs are interned into the set's string arena.
//
// Invalid arguments are rejected before any column is touched. All memory the
// tile needs is reserved up front, so a failed reservation leaves the set
// unchanged.
func (ts *TileSet) AddTile(spec TileSpec) (TileID, error) {
	if ts.disposed {
		return 0, ErrDisposed
	}
	if err := ts.validate(&spec); err != nil {
		return 0, err
	}

	n := ts.Len()
	if err := ts.reserveTile(n, &spec); err != nil {
		return 0, err
	}

	id := TileID(n) //nolint:gosec // bounded by validate

	transform := geometry.Identity()
	if spec.Transform != nil {
		transform = *spec.Transform
	}

	ts.scratch = ts.scratch[:0]
	for _, c := range spec.Contents {
		h, err := ts.strings.Add(c.URI)
		if err != nil {
			return 0, err
		}
		v := c.Volume
		if v.Type == volume.TypeNone {
			v = spec.Volume
		}
		slot, err := ts.contentVolumes.Append(v)
		if err != nil {
			return 0, err
		}
		ts.scratch = append(ts.scratch, Content{URI: h, Volume: uint32(slot)}) //nolint:gosec // slot < MaxUint32
	}

	if err := errors.Join(
		ts.geometricErrors.Append(spec.GeometricError),
		ts.refinements.Append(spec.Refine),
		ts.appendSubdivision(spec.Subdivision),
		ts.transforms.Append(transform),
		ts.warm.track(),
		ts.hot.track(),
	); err != nil {
		return 0, err
	}
	if _, err := ts.volumes.Append(spec.Volume); err != nil {
		return 0, err
	}
	if _, err := ts.children.Add(spec.Children); err != nil {
		return 0, err
	}
	if _, err := ts.contents.Add(ts.scratch); err != nil {
		return 0, err
	}
	return id, nil
}

func (ts *TileSet) validate(spec *TileSpec) error {
	if math.IsNaN(spec.GeometricError) || math.IsInf(spec.GeometricError, 0) || spec.GeometricError < 0 {
		return ErrInvalidGeometricError
	}
	if !spec.Refine.Valid() {
		return ErrInvalidArgument
	}
	if !spec.Subdivision.Valid() {
		return ErrInvalidArgument
	}
	if spec.Subdivision != SubdivisionNone && ts.subdivisions == nil {
		return ErrSubdivisionDisabled
	}
	if uint64(ts.Len()) >= math.MaxUint32 {
		return ErrInvalidArgument
	}
	return nil
}

func (ts *TileSet) reserveTile(n int, spec *TileSpec) error {
	if err := ts.Reserve(n + 1); err != nil {
		return err
	}
	if err := ts.volumes.Reserve(n+1, spec.Volume.Type); err != nil {
		return err
	}

	uriBytes := 0
	ts.shapeScratch = ts.shapeScratch[:0]
	for _, c := range spec.Contents {
		uriBytes += len(c.URI)
		if c.Volume.Type == volume.TypeNone {
			ts.shapeScratch = append(ts.shapeScratch, spec.Volume.Type)
		} else {
			ts.shapeScratch = append(ts.shapeScratch, c.Volume.Type)
		}
	}
	if err := ts.contentVolumes.Reserve(ts.contentVolumes.Len()+len(spec.Contents), ts.shapeScratch...); err != nil {
		return err
	}
	if err := ts.strings.Reserve(ts.strings.Len()+len(spec.Contents), ts.strings.ByteLen()+uriBytes); err != nil {
		return err
	}
	if err := ts.children.Reserve(n+1, ts.children.ItemCount()+len(spec.Children)); err != nil {
		return err
	}
	return ts.contents.Reserve(n+1, ts.contents.ItemCount()+len(spec.Contents))
}

func (ts *TileSet) appendSubdivision(s Subdivision) error {
	if ts.subdivisions == nil {
		return nil
	}
	return ts.subdivisions.Append(s)
}

func (ts *TileSet) checkID(id TileID) {
	assert.That(int(id) < ts.Len(), "tile %d out of range (%d tiles)", id, ts.Len())
}

// GetGeometricError returns the geometric error of tile id.
func (ts *TileSet) GetGeometricError(id TileID) float64 { return ts.geometricErrors.At(int(id)) }

// GetBoundingVolume returns the bounding-volume reference of tile id.
func (ts *TileSet) GetBoundingVolume(id TileID) volume.Ref { return ts.volumes.Ref(int(id)) }

// GetVolume returns the bounding volume of tile id by value.
func (ts *TileSet) GetVolume(id TileID) volume.Volume { return ts.volumes.Volume(int(id)) }

// GetBounds returns the axis-aligned bounds of tile id. It fails with
// volume.ErrUnsupportedShape when the stored tag is unknown.
func (ts *TileSet) GetBounds(id TileID) (geometry.Bounds, error) { return ts.volumes.Bounds(int(id)) }

// GetTransform returns the transform of tile id.
func (ts *TileSet) GetTransform(id TileID) geometry.Matrix4 { return ts.transforms.At(int(id)) }

// GetMethodOfRefinement returns the refinement of tile id.
func (ts *TileSet) GetMethodOfRefinement(id TileID) Refinement { return ts.refinements.At(int(id)) }

// GetSubdivision returns the subdivision of tile id, or SubdivisionNone when
// the column is disabled.
func (ts *TileSet) GetSubdivision(id TileID) Subdivision {
	if ts.subdivisions == nil {
		ts.checkID(id)
		return SubdivisionNone
	}
	return ts.subdivisions.At(int(id))
}

// GetChildren returns the children of tile id in creation order.
// The slice aliases native memory; do not modify it.
func (ts *TileSet) GetChildren(id TileID) []TileID { return ts.children.Get(int(id)) }

// GetContents returns the content records of tile id.
// The slice aliases native memory; do not modify it.
func (ts *TileSet) GetContents(id TileID) []Content { return ts.contents.Get(int(id)) }

// ResolveURI returns the URI text of h.
func (ts *TileSet) ResolveURI(h stringarena.Handle) string { return ts.strings.Resolve(h) }

// ContentVolume returns the bounding volume of c.
func (ts *TileSet) ContentVolume(c Content) volume.Volume { return ts.contentVolumes.Volume(int(c.Volume)) }

// ContentBounds returns the axis-aligned bounds of c.
func (ts *TileSet) ContentBounds(c Content) (geometry.Bounds, error) {
	return ts.contentVolumes.Bounds(int(c.Volume))
}

// WarmTile adds id to the warm set and returns its position. Adding a
// member again returns the existing position.
func (ts *TileSet) WarmTile(id TileID) int {
	ts.checkID(id)
	return ts.warm.add(id)
}

// HeatTile adds id to the hot set and returns its position. It does not
// warm the tile.
func (ts *TileSet) HeatTile(id TileID) int {
	ts.checkID(id)
	return ts.hot.add(id)
}

// CoolTile removes id from the hot set. The last hot tile takes its position.
func (ts *TileSet) CoolTile(id TileID) bool {
	ts.checkID(id)
	return ts.hot.remove(id)
}

// EvictTile removes id from both sets. It reports whether id was a member of
// either.
func (ts *TileSet) EvictTile(id TileID) bool {
	ts.checkID(id)
	warm := ts.warm.remove(id)
	hot := ts.hot.remove(id)
	return warm || hot
}

// ClearHot empties the hot set, typically at the start of an update cycle.
func (ts *TileSet) ClearHot() { ts.hot.reset() }

// IsWarm reports whether id is in the warm set.
func (ts *TileSet) IsWarm(id TileID) bool { return ts.warm.contains(id) }

// IsHot reports whether id is in the hot set.
func (ts *TileSet) IsHot(id TileID) bool { return ts.hot.contains(id) }

// WarmPosition returns the position of id in the warm set.
func (ts *TileSet) WarmPosition(id TileID) (int, bool) { return ts.warm.position(id) }

// HotPosition returns the position of id in the hot set.
func (ts *TileSet) HotPosition(id TileID) (int, bool) { return ts.hot.position(id) }

// WarmTiles returns the warm set in position order. The slice aliases native
// memory and is invalidated by the next membership change.
func (ts *TileSet) WarmTiles() []TileID { return ts.warm.list() }

// HotTiles returns the hot set in position order. The slice aliases native
// memory and is invalidated by the next membership change.
func (ts *TileSet) HotTiles() []TileID { return ts.hot.list() }

// WarmCount returns the size of the warm set.
func (ts *TileSet) WarmCount() int { return ts.warm.count() }

// HotCount returns the size of the hot set.
func (ts *TileSet) HotCount() int { return ts.hot.count() }

// WarmBitmap returns a copy of the warm set as a bitmap.
func (ts *TileSet) WarmBitmap() *roaring.Bitmap { return ts.warm.bitmap.Clone() }

// HotBitmap returns a copy of the hot set as a bitmap.
func (ts *TileSet) HotBitmap() *roaring.Bitmap { return ts.hot.bitmap.Clone() }

// EvictionCandidates returns the tiles that are warm but not hot.
func (ts *TileSet) EvictionCandidates() *roaring.Bitmap {
	return roaring.AndNot(ts.warm.bitmap, ts.hot.bitmap)
}

// Tile returns a view of tile id.
func (ts *TileSet) Tile(id TileID) Tile {
	ts.checkID(id)
	return Tile{set: ts, id: id}
}

// Tiles iterates over all tiles in id order.
func (ts *TileSet) Tiles() iter.Seq[Tile] {
	return func(yield func(Tile) bool) {
		for i := range ts.Len() {
			if !yield(Tile{set: ts, id: TileID(i)}) { //nolint:gosec // i < MaxUint32
				return
			}
		}
	}
}

// Clear removes every tile and membership and keeps all reservations.
// The next AddTile returns id 0. Views and handles become invalid.
func (ts *TileSet) Clear() {
	tiles := ts.Len()
	ts.geometricErrors.Clear()
	ts.refinements.Clear()
	if ts.subdivisions != nil {
		ts.subdivisions.Clear()
	}
	ts.transforms.Clear()
	ts.volumes.Clear()
	ts.children.Clear()
	ts.contents.Clear()
	ts.contentVolumes.Clear()
	ts.strings.Clear()
	ts.warm.clear()
	ts.hot.clear()

	ts.opts.logger.Debug("tile set cleared", "dataset_id", ts.id, "dataset", ts.name, "tiles", tiles)
}

// Dispose releases all native memory. It must be called exactly once; a
// second call returns ErrDisposed.
func (ts *TileSet) Dispose() error {
	assert.That(!ts.disposed, "tile set %q disposed twice", ts.name)
	if ts.disposed {
		return ErrDisposed
	}
	reserved := ts.ReservedBytes()
	err := ts.release()
	ts.opts.logger.Debug("tile set disposed", "dataset_id", ts.id, "dataset", ts.name, "released_bytes", reserved)
	return err
}

func (ts *TileSet) release() error {
	ts.disposed = true
	var errs []error
	if ts.geometricErrors != nil {
		errs = append(errs, ts.geometricErrors.Dispose())
	}
	if ts.refinements != nil {
		errs = append(errs, ts.refinements.Dispose())
	}
	if ts.subdivisions != nil {
		errs = append(errs, ts.subdivisions.Dispose())
	}
	if ts.transforms != nil {
		errs = append(errs, ts.transforms.Dispose())
	}
	if ts.volumes != nil {
		errs = append(errs, ts.volumes.Dispose())
	}
	if ts.children != nil {
		errs = append(errs, ts.children.Dispose())
	}
	if ts.contents != nil {
		errs = append(errs, ts.contents.Dispose())
	}
	if ts.contentVolumes != nil {
		errs = append(errs, ts.contentVolumes.Dispose())
	}
	if ts.strings != nil {
		errs = append(errs, ts.strings.Dispose())
	}
	if ts.warm != nil {
		errs = append(errs, ts.warm.dispose())
	}
	if ts.hot != nil {
		errs = append(errs, ts.hot.dispose())
	}
	ts.scratch = nil
	ts.shapeScratch = nil
	return errors.Join(errs...)
}

// Disposed reports whether Dispose has been called.
func (ts *TileSet) Disposed() bool { return ts.disposed }

// ReservedBytes returns the native bytes reserved by every column.
func (ts *TileSet) ReservedBytes() int64 {
	n := ts.geometricErrors.ReservedBytes() +
		ts.refinements.ReservedBytes() +
		ts.transforms.ReservedBytes() +
		ts.volumes.ReservedBytes() +
		ts.children.ReservedBytes() +
		ts.contents.ReservedBytes() +
		ts.contentVolumes.ReservedBytes() +
		ts.strings.ReservedBytes() +
		ts.warm.reservedBytes() +
		ts.hot.reservedBytes()
	if ts.subdivisions != nil {
		n += ts.subdivisions.ReservedBytes()
	}
	return n
}

// UsedBytes returns the native bytes occupied by live rows.
func (ts *TileSet) UsedBytes() int64 {
	n := ts.geometricErrors.UsedBytes() +
		ts.refinements.UsedBytes() +
		ts.transforms.UsedBytes() +
		ts.volumes.UsedBytes() +
		ts.children.UsedBytes() +
		ts.contents.UsedBytes() +
		ts.contentVolumes.UsedBytes() +
		ts.strings.UsedBytes() +
		ts.warm.usedBytes() +
		ts.hot.usedBytes()
	if ts.subdivisions != nil {
		n += ts.subdivisions.UsedBytes()
	}
	return n
}

// Collect fills s with a snapshot of the set.
func (ts *TileSet) Collect(s *telemetry.Stats) {
	*s = telemetry.Stats{}
	s.DataSetID = ts.id
	s.SetName(ts.name)
	s.NativeReservedBytes = ts.ReservedBytes()
	s.NativeUsedBytes = ts.UsedBytes()
	s.TilesAllocated = int64(ts.Cap())
	s.TilesActual = int64(ts.Len())
	s.StringsAllocated = int64(ts.strings.ByteCap())
	s.StringsActual = int64(ts.strings.ByteLen())
	s.UrisAllocated = int64(ts.strings.Cap())
	s.UrisActual = int64(ts.strings.Len())
	s.WarmCount = int64(ts.warm.count())
	s.HotCount = int64(ts.hot.count())
}

var _ telemetry.Source = (*TileSet)(nil)
