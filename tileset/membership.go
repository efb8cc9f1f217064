package tileset

import (
	"errors"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/tilekit/internal/column"
)

// membership is an ordered, idempotent set of tile ids.
//
// index holds position+1 per tile id (0 = absent) and grows with the tile
// columns, so insertion and lookup are O(1) and never allocate native memory.
// members has the same reservation as the tile columns.
type membership struct {
	index   *column.Column[uint32]
	members *column.Column[TileID]
	bitmap  *roaring.Bitmap
}

func newMembership(capacity int, opts ...column.Option) (*membership, error) {
	index, err := column.New[uint32](capacity, opts...)
	if err != nil {
		return nil, err
	}
	members, err := column.New[TileID](capacity, opts...)
	if err != nil {
		return nil, errors.Join(err, index.Dispose())
	}
	return &membership{index: index, members: members, bitmap: roaring.New()}, nil
}

// grow reserves room for tiles tile ids.
func (m *membership) grow(tiles int) error {
	if err := m.index.Grow(tiles); err != nil {
		return err
	}
	return m.members.Grow(tiles)
}

// track extends the index by one absent tile.
func (m *membership) track() error { return m.index.Append(0) }

func (m *membership) add(id TileID) int {
	if p := m.index.At(int(id)); p != 0 {
		return int(p - 1)
	}
	pos := m.members.Len()
	// members is reserved with the tile columns, so Append cannot grow.
	_ = m.members.Append(id)
	m.index.Set(int(id), uint32(pos+1)) //nolint:gosec // pos < tile count
	m.bitmap.Add(uint32(id))
	return pos
}

func (m *membership) position(id TileID) (int, bool) {
	p := m.index.At(int(id))
	return int(p) - 1, p != 0
}

func (m *membership) contains(id TileID) bool { return m.index.At(int(id)) != 0 }

// remove swaps the last member into id's position.
func (m *membership) remove(id TileID) bool {
	p := m.index.At(int(id))
	if p == 0 {
		return false
	}
	pos := int(p - 1)
	last := m.members.Len() - 1
	if pos != last {
		moved := m.members.At(last)
		m.members.Set(pos, moved)
		m.index.Set(int(moved), p)
	}
	_ = m.members.Resize(last)
	m.index.Set(int(id), 0)
	m.bitmap.Remove(uint32(id))
	return true
}

// reset empties the set and keeps the index length.
func (m *membership) reset() {
	for _, id := range m.members.Slice() {
		m.index.Set(int(id), 0)
	}
	m.members.Clear()
	m.bitmap.Clear()
}

func (m *membership) count() int { return m.members.Len() }

func (m *membership) list() []TileID { return m.members.Range(0, m.members.Len()) }

func (m *membership) clear() {
	m.index.Clear()
	m.members.Clear()
	m.bitmap.Clear()
}

func (m *membership) dispose() error {
	m.bitmap = roaring.New()
	return errors.Join(m.index.Dispose(), m.members.Dispose())
}

func (m *membership) reservedBytes() int64 {
	return m.index.ReservedBytes() + m.members.ReservedBytes()
}

func (m *membership) usedBytes() int64 {
	return m.index.UsedBytes() + m.members.UsedBytes()
}
