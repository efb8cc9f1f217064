package tilekit

import (
	"strconv"

	"github.com/hupe1980/tilekit/codec"
	"github.com/hupe1980/tilekit/snapshot"
	"github.com/hupe1980/tilekit/tileset"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	memoryLimit      int64
	ioLimit          int64
	heapMemory       bool
	defaultCapacity  int
	compression      snapshot.Compression
	metricsNamespace string
	tileSetOpts      []tileset.Option
}

// Option configures a Kit.
type Option func(*options)

func defaultOptions() options {
	return options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		defaultCapacity:  1024,
		compression:      snapshot.CompressionZSTD,
		metricsNamespace: "tilekit",
	}
}

// WithCodec configures the codec used for tileset documents and snapshot
// metadata.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector sets a custom metrics collector for monitoring.
//
// Example:
//
//	metrics := &tilekit.BasicMetricsCollector{}
//	kit := tilekit.New(tilekit.WithMetricsCollector(metrics))
//	// ... load and snapshot tile sets ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger sets a structured logger.
//
// Example:
//
//	kit := tilekit.New(tilekit.WithLogger(tilekit.NewJSONLogger(slog.LevelDebug)))
//
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMemoryLimit caps the native memory reserved by all tile sets of the Kit.
// Reservations beyond the limit fail with ErrMemoryLimitExceeded. 0 disables the cap.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithSnapshotIOLimit throttles snapshot writes to bytes per second. 0 is unlimited.
func WithSnapshotIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithHeapMemory backs columns with Go heap memory instead of anonymous mappings.
func WithHeapMemory() Option {
	return func(o *options) {
		o.heapMemory = true
	}
}

// WithDefaultCapacity sets the capacity used by NewTileSet when capacity is 0.
func WithDefaultCapacity(n int) Option {
	return func(o *options) {
		o.defaultCapacity = n
	}
}

// WithCompression selects the snapshot body compression.
func WithCompression(c snapshot.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithMetricsNamespace sets the Prometheus namespace of PrometheusCollector.
func WithMetricsNamespace(ns string) Option {
	return func(o *options) {
		o.metricsNamespace = ns
	}
}

// WithTileSetOptions appends options applied to every tile set the Kit creates.
func WithTileSetOptions(opts ...tileset.Option) Option {
	return func(o *options) {
		o.tileSetOpts = append(o.tileSetOpts, opts...)
	}
}

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }
