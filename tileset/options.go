package tileset

import (
	"log/slog"

	"github.com/hupe1980/tilekit/internal/arena"
)

type options struct {
	logger             *slog.Logger
	acquirer           arena.MemoryAcquirer
	allocator          arena.Allocator
	subdivision        bool
	expectedChildren   int
	expectedContents   int
	expectedStringSize int
}

func defaultOptions() options {
	return options{
		logger:    slog.New(slog.DiscardHandler),
		allocator: arena.Default,
	}
}

// Option configures a TileSet.
type Option func(*options)

// WithLogger sets the logger for lifecycle events. Nil keeps the discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// MemoryAcquirer charges native reservations against a budget.
// *resource.Controller implements it.
type MemoryAcquirer = arena.MemoryAcquirer

// WithMemoryAcquirer charges every column reservation against a.
func WithMemoryAcquirer(a MemoryAcquirer) Option {
	return func(o *options) {
		o.acquirer = a
	}
}

// WithHeapMemory keeps columns in aligned Go heap memory instead of
// anonymous mappings.
func WithHeapMemory() Option {
	return func(o *options) {
		o.allocator = arena.Heap{}
	}
}

// WithSubdivision allocates the optional subdivision column.
func WithSubdivision() Option {
	return func(o *options) {
		o.subdivision = true
	}
}

// WithExpectedChildren sizes the shared children array. Defaults to the
// initial capacity (one child per tile).
func WithExpectedChildren(n int) Option {
	return func(o *options) {
		o.expectedChildren = n
	}
}

// WithExpectedContents sizes the shared contents array. Defaults to the
// initial capacity (one content per tile).
func WithExpectedContents(n int) Option {
	return func(o *options) {
		o.expectedContents = n
	}
}

// WithExpectedStringBytes sizes the URI arena.
func WithExpectedStringBytes(n int) Option {
	return func(o *options) {
		o.expectedStringSize = n
	}
}
