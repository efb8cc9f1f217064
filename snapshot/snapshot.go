// Package snapshot writes and restores tile sets as compressed, checksummed
// binary files.
//
// A snapshot is a fixed header, a codec-encoded metadata section and a body of
// tile records in id order followed by the warm and hot lists. Restore replays
// every record through tileset.AddTile, so a restored set satisfies the same
// invariants as one built by ingestion, and then replays membership so warm
// and hot positions are preserved.
//
//	┌────────────┬──────────────┬──────────────────────────────┐
//	│ header     │ meta (codec) │ body (none | lz4 | zstd)     │
//	└────────────┴──────────────┴──────────────────────────────┘
package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hupe1980/tilekit/codec"
	"github.com/hupe1980/tilekit/geometry"
	"github.com/hupe1980/tilekit/internal/conv"
	"github.com/hupe1980/tilekit/internal/fs"
	"github.com/hupe1980/tilekit/internal/hash"
	"github.com/hupe1980/tilekit/internal/resource"
	"github.com/hupe1980/tilekit/tileset"
)

// DefaultMaxBodyBytes bounds the body size accepted by Read.
const DefaultMaxBodyBytes = 1 << 32

type options struct {
	compression  Compression
	codec        codec.Codec
	logger       *slog.Logger
	io           resource.IOAcquirer
	maxBodyBytes uint64
	tileSetOpts  []tileset.Option
	fs           fs.FileSystem
}

// Option configures Write and Read.
type Option func(*options)

// WithCompression selects the body compression for Write.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithCodec selects the metadata codec for Write. Read always uses the codec
// named in the header.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithIOLimiter throttles writes through l.
func WithIOLimiter(l resource.IOAcquirer) Option {
	return func(o *options) {
		o.io = l
	}
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes for Read.
func WithMaxBodyBytes(n uint64) Option {
	return func(o *options) {
		o.maxBodyBytes = n
	}
}

// WithTileSetOptions passes options to tileset.New on Read.
func WithTileSetOptions(opts ...tileset.Option) Option {
	return func(o *options) {
		o.tileSetOpts = append(o.tileSetOpts, opts...)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		compression:  CompressionZSTD,
		codec:        codec.Default,
		logger:       slog.New(slog.DiscardHandler),
		maxBodyBytes: DefaultMaxBodyBytes,
		fs:           fs.Default,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// Write encodes ts to w.
func Write(ctx context.Context, w io.Writer, ts *tileset.TileSet, optFns ...Option) (Info, error) {
	o := applyOptions(optFns)
	if len(o.codec.Name()) > codecNameLen {
		return Info{}, fmt.Errorf("snapshot: codec name %q too long", o.codec.Name())
	}

	meta := Meta{
		Name:        ts.Name(),
		Tiles:       ts.Len(),
		Warm:        ts.WarmCount(),
		Hot:         ts.HotCount(),
		Subdivision: ts.SubdivisionEnabled(),
		CreatedAt:   time.Now().UTC(),
	}

	enc := &encoder{buf: make([]byte, 0, ts.Len()*64)}
	for t := range ts.Tiles() {
		if t.ID()%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return Info{}, err
			}
		}
		meta.Children += t.ChildCount()
		contents := t.Contents()
		meta.Contents += contents.Len()
		for i := range contents.Len() {
			meta.URIBytes += len(contents.URI(i))
		}
		enc.tile(t)
	}
	enc.ids(ts.WarmTiles())
	enc.ids(ts.HotTiles())

	metaBytes, err := o.codec.Marshal(meta)
	if err != nil {
		return Info{}, fmt.Errorf("snapshot: encode meta: %w", err)
	}
	body, applied, err := compress(enc.buf, o.compression)
	if err != nil {
		return Info{}, err
	}

	h := header{
		Magic:       Magic,
		Version:     Version,
		Compression: applied,
		MetaLen:     uint32(len(metaBytes)), //nolint:gosec // bounded by maxMetaBytes in practice
		RawLen:      uint64(len(enc.buf)),
		BodyLen:     uint64(len(body)),
	}
	copy(h.Codec[:], o.codec.Name())
	if meta.Subdivision {
		h.Flags |= flagSubdivision
	}
	crc := hash.NewCRC32C()
	crc.Write(metaBytes)
	crc.Write(body)
	h.Checksum = crc.Sum32()

	out := w
	if o.io != nil {
		out = resource.NewRateLimitedWriter(ctx, w, o.io)
	}
	cw := hash.NewWriter(out)
	if err := binary.Write(cw, binary.LittleEndian, &h); err != nil {
		return Info{}, fmt.Errorf("snapshot: write header: %w", err)
	}
	if _, err := cw.Write(metaBytes); err != nil {
		return Info{}, fmt.Errorf("snapshot: write meta: %w", err)
	}
	if _, err := cw.Write(body); err != nil {
		return Info{}, fmt.Errorf("snapshot: write body: %w", err)
	}

	info := Info{
		Meta:        meta,
		Compression: applied,
		Codec:       o.codec.Name(),
		Bytes:       cw.Count(),
		RawBytes:    int64(len(enc.buf)),
	}
	o.logger.Debug("snapshot written",
		"dataset_id", ts.ID(),
		"dataset", ts.Name(),
		"tiles", meta.Tiles,
		"bytes", info.Bytes,
		"raw_bytes", info.RawBytes,
		"compression", applied.String(),
	)
	return info, nil
}

// Read restores a tile set from r. The caller owns the returned set.
func Read(ctx context.Context, r io.Reader, optFns ...Option) (*tileset.TileSet, Info, error) {
	o := applyOptions(optFns)

	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, Info{}, fmt.Errorf("%w: header: %w", ErrIncompatibleFormat, err)
	}
	if h.Magic != Magic {
		return nil, Info{}, fmt.Errorf("%w: bad magic %q", ErrIncompatibleFormat, h.Magic[:])
	}
	if h.Version != Version {
		return nil, Info{}, fmt.Errorf("%w: version %d", ErrIncompatibleFormat, h.Version)
	}
	codecName := string(bytes.TrimRight(h.Codec[:], "\x00"))
	c, ok := codec.ByName(codecName)
	if !ok {
		return nil, Info{}, fmt.Errorf("%w: codec %q", ErrIncompatibleFormat, codecName)
	}
	if h.MetaLen > maxMetaBytes || h.BodyLen > o.maxBodyBytes || h.RawLen > o.maxBodyBytes {
		return nil, Info{}, fmt.Errorf("%w: section sizes exceed limits", ErrCorrupt)
	}
	if err := checkLengths(h.Compression, h.BodyLen, h.RawLen); err != nil {
		return nil, Info{}, err
	}

	cr := hash.NewReader(r)
	metaBytes := make([]byte, h.MetaLen)
	if _, err := io.ReadFull(cr, metaBytes); err != nil {
		return nil, Info{}, fmt.Errorf("%w: meta: %w", ErrCorrupt, err)
	}
	// Memory follows the bytes actually read, not BodyLen.
	var bodyBuf bytes.Buffer
	if _, err := io.CopyN(&bodyBuf, cr, int64(h.BodyLen)); err != nil { //nolint:gosec // bounded by maxBodyBytes
		return nil, Info{}, fmt.Errorf("%w: body: %w", ErrCorrupt, err)
	}
	body := bodyBuf.Bytes()
	if cr.Sum32() != h.Checksum {
		return nil, Info{}, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	var meta Meta
	if err := c.Unmarshal(metaBytes, &meta); err != nil {
		return nil, Info{}, fmt.Errorf("%w: meta: %w", ErrCorrupt, err)
	}
	rawLen, err := conv.Uint64ToInt(h.RawLen)
	if err != nil {
		return nil, Info{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	raw, err := decompress(body, h.Compression, rawLen)
	if err != nil {
		return nil, Info{}, err
	}

	ts, err := restore(ctx, raw, meta, h.Flags&flagSubdivision != 0, o)
	if err != nil {
		return nil, Info{}, err
	}

	info := Info{
		Meta:        meta,
		Compression: h.Compression,
		Codec:       codecName,
		Bytes:       int64(binary.Size(h)) + int64(len(metaBytes)) + int64(len(body)),
		RawBytes:    int64(len(raw)),
	}
	o.logger.Debug("snapshot restored",
		"dataset_id", ts.ID(),
		"dataset", meta.Name,
		"tiles", ts.Len(),
		"bytes", info.Bytes,
	)
	return ts, info, nil
}

func restore(ctx context.Context, raw []byte, meta Meta, subdivision bool, o options) (*tileset.TileSet, error) {
	if meta.Tiles < 0 || meta.Children < 0 || meta.Contents < 0 || meta.URIBytes < 0 {
		return nil, fmt.Errorf("%w: negative counts in meta", ErrCorrupt)
	}
	if meta.Tiles > len(raw)/minTileRecord || meta.Children > len(raw) || meta.Contents > len(raw) || meta.URIBytes > len(raw) {
		return nil, fmt.Errorf("%w: meta counts exceed body", ErrCorrupt)
	}

	opts := []tileset.Option{
		tileset.WithExpectedChildren(meta.Children),
		tileset.WithExpectedContents(meta.Contents),
		tileset.WithExpectedStringBytes(meta.URIBytes),
		tileset.WithLogger(o.logger),
	}
	if subdivision {
		opts = append(opts, tileset.WithSubdivision())
	}
	opts = append(opts, o.tileSetOpts...)

	capacity := max(conv.RoundUp(meta.Tiles, tileset.ChunkSize), tileset.ChunkSize)
	ts, err := tileset.New(meta.Name, capacity, opts...)
	if err != nil {
		return nil, err
	}

	if err := replay(ctx, ts, raw, meta); err != nil {
		_ = ts.Dispose()
		return nil, err
	}
	return ts, nil
}

func replay(ctx context.Context, ts *tileset.TileSet, raw []byte, meta Meta) error {
	d := &decoder{buf: raw}
	var (
		spec      tileset.TileSpec
		transform geometry.Matrix4
	)
	for i := range meta.Tiles {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		d.tile(&spec, &transform)
		if d.err != nil {
			return d.err
		}
		if _, err := ts.AddTile(spec); err != nil {
			return fmt.Errorf("%w: tile %d: %w", ErrCorrupt, i, err)
		}
	}

	warm := d.ids(nil)
	hot := d.ids(nil)
	if d.err != nil {
		return d.err
	}
	if !d.done() {
		return fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(raw)-d.off)
	}
	for _, id := range warm {
		if int(id) >= ts.Len() {
			return fmt.Errorf("%w: warm tile %d out of range", ErrCorrupt, id)
		}
		ts.WarmTile(id)
	}
	for _, id := range hot {
		if int(id) >= ts.Len() {
			return fmt.Errorf("%w: hot tile %d out of range", ErrCorrupt, id)
		}
		ts.HeatTile(id)
	}
	return nil
}
