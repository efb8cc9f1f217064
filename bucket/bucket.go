// Package bucket partitions one shared native array into per-owner blocks.
//
// Each owner (a tile) gets one contiguous, fixed-length block at creation time.
// Blocks are never resized or moved relative to the shared array; when the
// reservation runs out the shared array grows by whole chunks and every
// existing (offset, length) pair stays valid.
package bucket

import (
	"errors"

	"github.com/hupe1980/tilekit/internal/assert"
	"github.com/hupe1980/tilekit/internal/column"
	"github.com/hupe1980/tilekit/internal/conv"
)

// Block addresses a contiguous range of the shared array.
type Block struct {
	Offset uint32
	Length uint32
}

// End returns the offset one past the last item.
func (b Block) End() uint32 { return b.Offset + b.Length }

// Allocator stores variable-arity lists in one shared column.
// Block i belongs to owner i: callers add exactly one block per owner.
type Allocator[T any] struct {
	items  *column.Column[T]
	blocks *column.Column[Block]
}

// New creates an allocator with room for expectedItems items across
// expectedBlocks owners.
func New[T any](expectedItems, expectedBlocks int, opts ...column.Option) (*Allocator[T], error) {
	items, err := column.New[T](expectedItems, append(opts, column.WithName("bucket.items"))...)
	if err != nil {
		return nil, err
	}
	blocks, err := column.New[Block](expectedBlocks, append(opts, column.WithName("bucket.blocks"))...)
	if err != nil {
		return nil, errors.Join(err, items.Dispose())
	}
	return &Allocator[T]{items: items, blocks: blocks}, nil
}

// Reserve makes sure blocks owners and items items fit without growth.
func (a *Allocator[T]) Reserve(blocks, items int) error {
	if err := a.blocks.Grow(blocks); err != nil {
		return err
	}
	return a.items.Grow(items)
}

// Add copies items into a new block and returns it. An empty list yields a
// zero-length block at the current end of the shared array.
func (a *Allocator[T]) Add(items []T) (Block, error) {
	offset, err := conv.IntToUint32(a.items.Len())
	if err != nil {
		return Block{}, err
	}
	length, err := conv.IntToUint32(len(items))
	if err != nil {
		return Block{}, err
	}
	if _, err := conv.IntToUint32(a.items.Len() + len(items)); err != nil {
		return Block{}, err
	}

	// Reserve both sides first so a failed allocation leaves no partial block.
	if err := a.blocks.Grow(a.blocks.Len() + 1); err != nil {
		return Block{}, err
	}
	if err := a.items.AppendSlice(items); err != nil {
		return Block{}, err
	}

	b := Block{Offset: offset, Length: length}
	if err := a.blocks.Append(b); err != nil {
		return Block{}, err
	}
	return b, nil
}

// GetBlock returns the block of owner.
func (a *Allocator[T]) GetBlock(owner int) Block { return a.blocks.At(owner) }

// Items returns the items of b. The slice aliases native memory and its
// capacity is clamped to the block, so appending to it copies.
func (a *Allocator[T]) Items(b Block) []T {
	return a.items.Range(int(b.Offset), int(b.Length))
}

// Get returns the items of owner.
func (a *Allocator[T]) Get(owner int) []T { return a.Items(a.blocks.At(owner)) }

// Set overwrites item i of block b. i must be below b.Length.
func (a *Allocator[T]) Set(b Block, i int, v T) {
	assert.That(i >= 0 && uint32(i) < b.Length, "item %d overflows block of %d", i, b.Length) //nolint:gosec // i >= 0 checked
	a.items.Set(int(b.Offset)+i, v)
}

// Len returns the number of blocks.
func (a *Allocator[T]) Len() int { return a.blocks.Len() }

// ItemCount returns the number of items across all blocks.
func (a *Allocator[T]) ItemCount() int { return a.items.Len() }

// ItemCapacity returns the number of reserved item slots.
func (a *Allocator[T]) ItemCapacity() int { return a.items.Cap() }

// Clear drops all blocks and items, keeping the reservations.
func (a *Allocator[T]) Clear() {
	a.items.Clear()
	a.blocks.Clear()
}

// Dispose releases all memory.
func (a *Allocator[T]) Dispose() error {
	return errors.Join(a.items.Dispose(), a.blocks.Dispose())
}

// ReservedBytes returns the bytes reserved for items and blocks.
func (a *Allocator[T]) ReservedBytes() int64 {
	return a.items.ReservedBytes() + a.blocks.ReservedBytes()
}

// UsedBytes returns the bytes occupied by items and blocks.
func (a *Allocator[T]) UsedBytes() int64 {
	return a.items.UsedBytes() + a.blocks.UsedBytes()
}
