package tilekit

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// PrometheusMetrics is a ready-made implementation; BasicMetricsCollector keeps
// plain counters in memory.
type MetricsCollector interface {
	// RecordIngest is called after each tileset document load.
	// tiles is the number of tiles stored, err is nil if successful.
	RecordIngest(tiles int, duration time.Duration, err error)

	// RecordSnapshot is called after each snapshot write.
	// bytes is the size of the written file.
	RecordSnapshot(bytes int64, duration time.Duration, err error)

	// RecordRestore is called after each snapshot restore.
	RecordRestore(tiles int, duration time.Duration, err error)

	// RecordClear is called after a tile set is cleared.
	RecordClear(tiles int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIngest(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordSnapshot(int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordRestore(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordClear(int)                            {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	IngestCount        atomic.Int64
	IngestErrors       atomic.Int64
	IngestTiles        atomic.Int64
	IngestTotalNanos   atomic.Int64
	SnapshotCount      atomic.Int64
	SnapshotErrors     atomic.Int64
	SnapshotBytes      atomic.Int64
	SnapshotTotalNanos atomic.Int64
	RestoreCount       atomic.Int64
	RestoreErrors      atomic.Int64
	RestoreTiles       atomic.Int64
	ClearCount         atomic.Int64
	ClearedTiles       atomic.Int64
}

// RecordIngest implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIngest(tiles int, duration time.Duration, err error) {
	b.IngestCount.Add(1)
	b.IngestTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.IngestErrors.Add(1)
		return
	}
	b.IngestTiles.Add(int64(tiles))
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(bytes int64, duration time.Duration, err error) {
	b.SnapshotCount.Add(1)
	b.SnapshotTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SnapshotErrors.Add(1)
		return
	}
	b.SnapshotBytes.Add(bytes)
}

// RecordRestore implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRestore(tiles int, _ time.Duration, err error) {
	b.RestoreCount.Add(1)
	if err != nil {
		b.RestoreErrors.Add(1)
		return
	}
	b.RestoreTiles.Add(int64(tiles))
}

// RecordClear implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClear(tiles int) {
	b.ClearCount.Add(1)
	b.ClearedTiles.Add(int64(tiles))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		IngestCount:      b.IngestCount.Load(),
		IngestErrors:     b.IngestErrors.Load(),
		IngestTiles:      b.IngestTiles.Load(),
		IngestAvgNanos:   avg(b.IngestTotalNanos.Load(), b.IngestCount.Load()),
		SnapshotCount:    b.SnapshotCount.Load(),
		SnapshotErrors:   b.SnapshotErrors.Load(),
		SnapshotBytes:    b.SnapshotBytes.Load(),
		SnapshotAvgNanos: avg(b.SnapshotTotalNanos.Load(), b.SnapshotCount.Load()),
		RestoreCount:     b.RestoreCount.Load(),
		RestoreErrors:    b.RestoreErrors.Load(),
		RestoreTiles:     b.RestoreTiles.Load(),
		ClearCount:       b.ClearCount.Load(),
		ClearedTiles:     b.ClearedTiles.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	IngestCount      int64
	IngestErrors     int64
	IngestTiles      int64
	IngestAvgNanos   int64
	SnapshotCount    int64
	SnapshotErrors   int64
	SnapshotBytes    int64
	SnapshotAvgNanos int64
	RestoreCount     int64
	RestoreErrors    int64
	RestoreTiles     int64
	ClearCount       int64
	ClearedTiles     int64
}
