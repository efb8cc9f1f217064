package tilekit

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/tilekit/ingest"
	"github.com/hupe1980/tilekit/internal/resource"
	"github.com/hupe1980/tilekit/snapshot"
	"github.com/hupe1980/tilekit/telemetry"
	"github.com/hupe1980/tilekit/tileset"
)

// ErrMemoryLimitExceeded is returned when a reservation would exceed the Kit's memory limit.
var ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded

// Kit owns a group of named tile sets sharing one memory budget, one logger
// and one telemetry registry. Kit methods are safe for concurrent use; each
// TileSet still expects a single writer.
type Kit struct {
	opts     options
	rc       *resource.Controller
	registry *telemetry.Registry

	mu     sync.Mutex
	sets   map[string]*tileset.TileSet
	closed bool
}

// New creates a Kit.
func New(optFns ...Option) *Kit {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	return &Kit{
		opts: o,
		rc: resource.NewController(resource.Config{
			MemoryLimitBytes:   o.memoryLimit,
			IOLimitBytesPerSec: o.ioLimit,
		}),
		registry: telemetry.NewRegistry(),
		sets:     make(map[string]*tileset.TileSet),
	}
}

// NewFromConfig creates a Kit from cfg, followed by any extra options.
func NewFromConfig(cfg Config, optFns ...Option) (*Kit, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return New(append(opts, optFns...)...), nil
}

func (k *Kit) tileSetOptions(extra ...tileset.Option) []tileset.Option {
	opts := []tileset.Option{
		tileset.WithLogger(k.opts.logger.Logger),
		tileset.WithMemoryAcquirer(k.rc),
	}
	if k.opts.heapMemory {
		opts = append(opts, tileset.WithHeapMemory())
	}
	opts = append(opts, k.opts.tileSetOpts...)
	return append(opts, extra...)
}

// reserve claims name before the tile set exists so concurrent creations
// under the same name fail fast.
func (k *Kit) reserve(name string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return ErrClosed
	}
	if _, ok := k.sets[name]; ok {
		return ErrDuplicateName
	}
	k.sets[name] = nil
	return nil
}

func (k *Kit) unreserve(name string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if ts, ok := k.sets[name]; ok && ts == nil {
		delete(k.sets, name)
	}
}

func (k *Kit) publish(name string, ts *tileset.TileSet) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		delete(k.sets, name)
		return ErrClosed
	}
	k.sets[name] = ts
	k.registry.Register(ts.ID(), ts)
	return nil
}

// NewTileSet creates an empty tile set. A capacity of 0 selects the Kit's
// default capacity.
func (k *Kit) NewTileSet(name string, capacity int, opts ...tileset.Option) (*tileset.TileSet, error) {
	if capacity == 0 {
		capacity = k.opts.defaultCapacity
	}
	if err := k.reserve(name); err != nil {
		return nil, err
	}
	ts, err := tileset.New(name, capacity, k.tileSetOptions(opts...)...)
	if err != nil {
		k.unreserve(name)
	} else if err = k.publish(name, ts); err != nil {
		_ = ts.Dispose()
		ts = nil
	}
	k.opts.logger.LogRegister(context.Background(), capacity, err)
	return ts, err
}

// Load ingests a 3D Tiles tileset document from r into a new tile set.
func (k *Kit) Load(ctx context.Context, r io.Reader, name string, opts ...ingest.Option) (*tileset.TileSet, ingest.Result, error) {
	start := time.Now()
	if err := k.reserve(name); err != nil {
		return nil, ingest.Result{}, err
	}

	all := append([]ingest.Option{
		ingest.WithCodec(k.opts.codec),
		ingest.WithLogger(k.opts.logger.Logger),
		ingest.WithTileSetOptions(k.tileSetOptions()...),
	}, opts...)
	ts, res, err := ingest.Load(ctx, r, name, all...)
	if err == nil {
		if perr := k.publish(name, ts); perr != nil {
			_ = ts.Dispose()
			ts, err = nil, perr
		}
	} else {
		k.unreserve(name)
	}

	d := time.Since(start)
	k.opts.metricsCollector.RecordIngest(res.Tiles, d, err)
	k.opts.logger.LogIngest(ctx, res.Tiles, d, err)
	if err != nil {
		return nil, ingest.Result{}, err
	}
	return ts, res, nil
}

// Snapshot writes ts to w using the Kit's codec and compression.
func (k *Kit) Snapshot(ctx context.Context, w io.Writer, ts *tileset.TileSet) (snapshot.Info, error) {
	start := time.Now()
	info, err := snapshot.Write(ctx, w, ts, k.snapshotOptions()...)
	d := time.Since(start)
	k.opts.metricsCollector.RecordSnapshot(info.Bytes, d, err)
	k.opts.logger.WithDataSet(ts.ID(), ts.Name()).LogSnapshot(ctx, info.Bytes, d, err)
	return info, err
}

// SnapshotFile writes ts to path, replacing any previous snapshot atomically.
func (k *Kit) SnapshotFile(ctx context.Context, path string, ts *tileset.TileSet) (snapshot.Info, error) {
	start := time.Now()
	info, err := snapshot.SaveFile(ctx, path, ts, k.snapshotOptions()...)
	d := time.Since(start)
	k.opts.metricsCollector.RecordSnapshot(info.Bytes, d, err)
	k.opts.logger.WithDataSet(ts.ID(), ts.Name()).LogSnapshot(ctx, info.Bytes, d, err)
	return info, err
}

// RestoreFile restores the snapshot at path and registers the tile set.
func (k *Kit) RestoreFile(ctx context.Context, path string) (*tileset.TileSet, snapshot.Info, error) {
	start := time.Now()
	ts, info, err := k.restoreWith(ctx, func(opts []snapshot.Option) (*tileset.TileSet, snapshot.Info, error) {
		return snapshot.LoadFile(ctx, path, opts...)
	})
	k.recordRestore(ctx, ts, start, err)
	return ts, info, err
}

// Restore reads a snapshot from r and registers the restored tile set under
// the name stored in the snapshot.
func (k *Kit) Restore(ctx context.Context, r io.Reader) (*tileset.TileSet, snapshot.Info, error) {
	start := time.Now()
	ts, info, err := k.restoreWith(ctx, func(opts []snapshot.Option) (*tileset.TileSet, snapshot.Info, error) {
		return snapshot.Read(ctx, r, opts...)
	})
	k.recordRestore(ctx, ts, start, err)
	return ts, info, err
}

func (k *Kit) recordRestore(ctx context.Context, ts *tileset.TileSet, start time.Time, err error) {
	tiles := 0
	if ts != nil {
		tiles = ts.Len()
	}
	k.opts.metricsCollector.RecordRestore(tiles, time.Since(start), err)
	k.opts.logger.LogRestore(ctx, tiles, err)
}

type readFunc func(opts []snapshot.Option) (*tileset.TileSet, snapshot.Info, error)

func (k *Kit) restoreWith(ctx context.Context, read readFunc) (*tileset.TileSet, snapshot.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, snapshot.Info{}, err
	}
	ts, info, err := read(k.snapshotOptions(snapshot.WithTileSetOptions(k.tileSetOptions()...)))
	if err != nil {
		return nil, snapshot.Info{}, err
	}
	if err := k.reserve(ts.Name()); err != nil {
		_ = ts.Dispose()
		return nil, snapshot.Info{}, err
	}
	if err := k.publish(ts.Name(), ts); err != nil {
		_ = ts.Dispose()
		return nil, snapshot.Info{}, err
	}
	return ts, info, nil
}

func (k *Kit) snapshotOptions(extra ...snapshot.Option) []snapshot.Option {
	opts := []snapshot.Option{
		snapshot.WithCodec(k.opts.codec),
		snapshot.WithCompression(k.opts.compression),
		snapshot.WithLogger(k.opts.logger.Logger),
	}
	if k.opts.ioLimit > 0 {
		opts = append(opts, snapshot.WithIOLimiter(k.rc))
	}
	return append(opts, extra...)
}

// Get returns the tile set registered under name.
func (k *Kit) Get(name string) (*tileset.TileSet, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	ts, ok := k.sets[name]
	return ts, ok && ts != nil
}

// Names returns the registered tile set names in sorted order.
func (k *Kit) Names() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	names := make([]string, 0, len(k.sets))
	for name, ts := range k.sets {
		if ts != nil {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Clear empties the named tile set, keeping its reservation.
func (k *Kit) Clear(name string) error {
	ts, ok := k.Get(name)
	if !ok {
		return ErrNotFound
	}
	tiles := ts.Len()
	ts.Clear()
	k.opts.metricsCollector.RecordClear(tiles)
	return nil
}

// Release unregisters the named tile set and disposes it.
func (k *Kit) Release(name string) error {
	k.mu.Lock()
	ts, ok := k.sets[name]
	if !ok || ts == nil {
		k.mu.Unlock()
		return ErrNotFound
	}
	delete(k.sets, name)
	k.registry.Unregister(ts.ID())
	k.mu.Unlock()

	return ts.Dispose()
}

// Collect returns per-tile-set statistics ordered by dataset id. Call it
// while no writer mutates the tile sets.
func (k *Kit) Collect() []telemetry.Stats {
	return k.registry.Collect()
}

// Totals returns the statistics summed over all tile sets.
func (k *Kit) Totals() telemetry.Stats {
	return k.registry.Totals()
}

// PrometheusCollector exposes the per-tile-set statistics as gauges.
func (k *Kit) PrometheusCollector() *telemetry.PrometheusCollector {
	return telemetry.NewPrometheusCollector(k.opts.metricsNamespace, k.registry)
}

// MemoryUsage returns the native bytes currently reserved by all tile sets.
func (k *Kit) MemoryUsage() int64 { return k.rc.MemoryUsage() }

// MemoryPeak returns the highest MemoryUsage observed.
func (k *Kit) MemoryPeak() int64 { return k.rc.MemoryPeak() }

// Close disposes every tile set. Further calls return ErrClosed.
func (k *Kit) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return ErrClosed
	}
	k.closed = true
	sets := make([]*tileset.TileSet, 0, len(k.sets))
	for _, ts := range k.sets {
		if ts != nil {
			sets = append(sets, ts)
			k.registry.Unregister(ts.ID())
		}
	}
	clear(k.sets)
	k.mu.Unlock()

	var errs []error
	for _, ts := range sets {
		if err := ts.Dispose(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
