package column

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"

	"github.com/hupe1980/tilekit/internal/arena"
	"github.com/hupe1980/tilekit/internal/assert"
	"github.com/hupe1980/tilekit/internal/conv"
)

// ChunkSize is the default growth increment in rows.
const ChunkSize = 64

var (
	// ErrPointerType is returned when T holds Go pointers and cannot live in native memory.
	ErrPointerType = errors.New("column: element type contains pointers")
	// ErrDisposed is returned by operations on a disposed column.
	ErrDisposed = errors.New("column: disposed")
)

// Column is a growable native array of pointer-free values.
type Column[T any] struct {
	items    []T // len == Len(), cap == Cap(); aliases region memory
	region   *arena.Region
	elemSize int
	opts     options
	disposed bool
}

// New creates a column with room for at least capacity rows.
func New[T any](capacity int, optFns ...Option) (*Column[T], error) {
	typ := reflect.TypeFor[T]()
	if hasPointers(typ) {
		return nil, fmt.Errorf("%w: %s", ErrPointerType, typ)
	}
	if typ.Size() == 0 {
		return nil, fmt.Errorf("column: zero-sized element type %s", typ)
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Column[T]{
		elemSize: int(typ.Size()),
		opts:     opts,
	}
	if capacity > 0 {
		if err := c.reserve(conv.RoundUp(capacity, opts.chunk)); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Len returns the number of rows.
func (c *Column[T]) Len() int { return len(c.items) }

// Cap returns the number of reserved rows.
func (c *Column[T]) Cap() int { return cap(c.items) }

// ElemSize returns the size of one row in bytes.
func (c *Column[T]) ElemSize() int { return c.elemSize }

// ReservedBytes returns the bytes held by the backing region.
func (c *Column[T]) ReservedBytes() int64 { return int64(cap(c.items)) * int64(c.elemSize) }

// UsedBytes returns the bytes occupied by live rows.
func (c *Column[T]) UsedBytes() int64 { return int64(len(c.items)) * int64(c.elemSize) }

// OffHeap reports whether rows live outside the Go heap.
func (c *Column[T]) OffHeap() bool { return c.region.OffHeap() }

// Append adds one row, growing by whole chunks when full.
func (c *Column[T]) Append(v T) error {
	if len(c.items) == cap(c.items) {
		if err := c.Grow(len(c.items) + 1); err != nil {
			return err
		}
	}
	c.items = append(c.items, v)
	return nil
}

// AppendSlice adds vs as consecutive rows.
func (c *Column[T]) AppendSlice(vs []T) error {
	if len(vs) == 0 {
		return nil
	}
	if err := c.Grow(len(c.items) + len(vs)); err != nil {
		return err
	}
	c.items = append(c.items, vs...)
	return nil
}

// Grow makes sure at least n rows are reserved.
func (c *Column[T]) Grow(n int) error {
	if c.disposed {
		return ErrDisposed
	}
	if n <= cap(c.items) {
		return nil
	}
	return c.reserve(conv.RoundUp(n, c.opts.chunk))
}

// Resize sets the row count to n. New rows are zeroed.
func (c *Column[T]) Resize(n int) error {
	if n < 0 {
		return fmt.Errorf("column: negative length %d", n)
	}
	if err := c.Grow(n); err != nil {
		return err
	}
	old := len(c.items)
	c.items = c.items[:n]
	if n > old {
		clear(c.items[old:n])
	}
	return nil
}

// At returns row i.
func (c *Column[T]) At(i int) T { return c.items[i] }

// Ptr returns a pointer to row i. It is invalidated by growth and Dispose.
func (c *Column[T]) Ptr(i int) *T { return &c.items[i] }

// Set overwrites row i.
func (c *Column[T]) Set(i int, v T) { c.items[i] = v }

// Slice returns all rows. The slice aliases native memory.
func (c *Column[T]) Slice() []T { return c.items }

// Range returns rows [off, off+n) as a capacity-clamped slice.
func (c *Column[T]) Range(off, n int) []T {
	assert.That(off >= 0 && n >= 0 && off+n <= len(c.items), "range [%d,%d) outside column of %d rows", off, off+n, len(c.items))
	return c.items[off : off+n : off+n]
}

// Clear drops all rows and keeps the reservation.
func (c *Column[T]) Clear() {
	c.items = c.items[:0]
}

// Dispose releases the backing region. The column must not be used afterwards.
func (c *Column[T]) Dispose() error {
	assert.That(!c.disposed, "column %q disposed twice", c.opts.name)
	if c.disposed {
		return ErrDisposed
	}
	c.disposed = true
	c.items = nil
	if c.region == nil {
		return nil
	}
	err := c.region.Release()
	c.region = nil
	if c.opts.logger != nil {
		c.opts.logger.Debug("column released", "column", c.opts.name)
	}
	return err
}

// Disposed reports whether Dispose has been called.
func (c *Column[T]) Disposed() bool { return c.disposed }

func (c *Column[T]) reserve(rows int) error {
	region, err := c.opts.allocator.Allocate(rows*c.elemSize, c.opts.acquirer)
	if err != nil {
		return err
	}

	buf := region.Bytes()
	items := unsafe.Slice((*T)(unsafe.Pointer(&buf[0])), rows)[:len(c.items)] //nolint:gosec // unsafe is required for native columns
	copy(items, c.items)

	old := c.region
	if old != nil && c.opts.logger != nil {
		c.opts.logger.Debug("column grown",
			"column", c.opts.name,
			"from_rows", cap(c.items),
			"to_rows", rows,
			"allocator", c.opts.allocator.Name(),
		)
	}

	c.items = items
	c.region = region

	if old != nil {
		return old.Release()
	}
	return nil
}

// hasPointers reports whether values of t carry Go pointers.
func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
