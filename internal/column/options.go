package column

import (
	"log/slog"

	"github.com/hupe1980/tilekit/internal/arena"
)

type options struct {
	allocator arena.Allocator
	acquirer  arena.MemoryAcquirer
	logger    *slog.Logger
	name      string
	chunk     int
}

func defaultOptions() options {
	return options{
		allocator: arena.Default,
		chunk:     ChunkSize,
	}
}

// Option configures a Column.
type Option func(*options)

// WithAllocator selects the region allocator (arena.OffHeap by default).
func WithAllocator(a arena.Allocator) Option {
	return func(o *options) {
		if a != nil {
			o.allocator = a
		}
	}
}

// WithMemoryAcquirer charges every reservation against a shared budget.
func WithMemoryAcquirer(a arena.MemoryAcquirer) Option {
	return func(o *options) {
		o.acquirer = a
	}
}

// WithLogger sets the logger used for growth and release events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithName labels the column in log records.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithChunk overrides the growth increment in rows.
// Values <= 0 are ignored.
func WithChunk(rows int) Option {
	return func(o *options) {
		if rows > 0 {
			o.chunk = rows
		}
	}
}
