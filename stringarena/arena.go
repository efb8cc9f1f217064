// Package stringarena interns immutable strings into one native byte buffer.
//
// Strings are appended, never freed individually and never deduplicated. A
// Handle indexes an (offset, length) table; Resolve materializes a Go string
// only when asked.
package stringarena

import (
	"errors"
	"unsafe"

	"github.com/hupe1980/tilekit/internal/column"
	"github.com/hupe1980/tilekit/internal/conv"
)

// ByteChunk is the growth increment of the byte buffer.
const ByteChunk = 4096

// Handle references a string in an Arena.
type Handle uint32

type span struct {
	Offset uint32
	Length uint32
}

// Arena is an append-only string store.
//
// Thread safety: none.
type Arena struct {
	bytes *column.Column[byte]
	spans *column.Column[span]
}

// New creates an arena sized for expectedBytes of text across expectedStrings
// strings.
func New(expectedBytes, expectedStrings int, opts ...column.Option) (*Arena, error) {
	bytes, err := column.New[byte](expectedBytes,
		append(opts, column.WithName("strings.bytes"), column.WithChunk(ByteChunk))...)
	if err != nil {
		return nil, err
	}
	spans, err := column.New[span](expectedStrings, append(opts, column.WithName("strings.spans"))...)
	if err != nil {
		return nil, errors.Join(err, bytes.Dispose())
	}
	return &Arena{bytes: bytes, spans: spans}, nil
}

// Reserve makes sure strings handles and bytes text bytes fit without growth.
func (a *Arena) Reserve(strings, bytes int) error {
	if err := a.spans.Grow(strings); err != nil {
		return err
	}
	return a.bytes.Grow(bytes)
}

// Add appends s and returns its handle.
func (a *Arena) Add(s string) (Handle, error) {
	return a.AddBytes(unsafe.Slice(unsafe.StringData(s), len(s))) //nolint:gosec // read-only view of s
}

// AddBytes appends a copy of b and returns its handle.
func (a *Arena) AddBytes(b []byte) (Handle, error) {
	offset, err := conv.IntToUint32(a.bytes.Len())
	if err != nil {
		return 0, err
	}
	length, err := conv.IntToUint32(len(b))
	if err != nil {
		return 0, err
	}
	if _, err := conv.IntToUint32(a.bytes.Len() + len(b)); err != nil {
		return 0, err
	}
	h, err := conv.IntToUint32(a.spans.Len())
	if err != nil {
		return 0, err
	}

	if err := a.spans.Grow(a.spans.Len() + 1); err != nil {
		return 0, err
	}
	if err := a.bytes.AppendSlice(b); err != nil {
		return 0, err
	}
	if err := a.spans.Append(span{Offset: offset, Length: length}); err != nil {
		return 0, err
	}
	return Handle(h), nil
}

// Resolve returns the string of h as a new Go string.
func (a *Arena) Resolve(h Handle) string {
	return string(a.ResolveBytes(h))
}

// ResolveBytes returns the bytes of h without copying. The slice aliases
// native memory and is valid until Clear or Dispose; do not modify it.
func (a *Arena) ResolveBytes(h Handle) []byte {
	sp := a.spans.At(int(h))
	return a.bytes.Range(int(sp.Offset), int(sp.Length))
}

// Len returns the number of strings.
func (a *Arena) Len() int { return a.spans.Len() }

// Cap returns the number of reserved handles.
func (a *Arena) Cap() int { return a.spans.Cap() }

// ByteLen returns the number of text bytes stored.
func (a *Arena) ByteLen() int { return a.bytes.Len() }

// ByteCap returns the number of reserved text bytes.
func (a *Arena) ByteCap() int { return a.bytes.Cap() }

// Clear drops all strings and keeps the reservations.
// Outstanding handles become invalid.
func (a *Arena) Clear() {
	a.bytes.Clear()
	a.spans.Clear()
}

// Dispose releases all memory.
func (a *Arena) Dispose() error {
	return errors.Join(a.bytes.Dispose(), a.spans.Dispose())
}

// ReservedBytes returns the bytes reserved for text and the handle table.
func (a *Arena) ReservedBytes() int64 {
	return a.bytes.ReservedBytes() + a.spans.ReservedBytes()
}

// UsedBytes returns the bytes occupied by text and the handle table.
func (a *Arena) UsedBytes() int64 {
	return a.bytes.UsedBytes() + a.spans.UsedBytes()
}
