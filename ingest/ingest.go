// Package ingest populates tile sets from 3D Tiles tileset.json documents.
//
// Loading runs in three passes: decode the document, validate the whole
// hierarchy, then append tiles bottom-up so every child id is known when its
// parent is created. A malformed document fails in the first two passes and
// never reaches the store.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/hupe1980/tilekit/codec"
	"github.com/hupe1980/tilekit/internal/conv"
	"github.com/hupe1980/tilekit/tileset"
)

// DefaultMaxDepth bounds the hierarchy depth accepted by Load.
const DefaultMaxDepth = 128

type options struct {
	codec       codec.Codec
	logger      *slog.Logger
	maxDepth    int
	tileSetOpts []tileset.Option
}

// Option configures ingestion.
type Option func(*options)

// WithCodec selects the JSON codec. Nil keeps codec.Default.
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

// WithMaxDepth overrides DefaultMaxDepth. Zero disables the limit.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		o.maxDepth = n
	}
}

// WithTileSetOptions passes options to tileset.New. Sizing options derived
// from the document are applied first, so callers may override them.
func WithTileSetOptions(opts ...tileset.Option) Option {
	return func(o *options) {
		o.tileSetOpts = append(o.tileSetOpts, opts...)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:    codec.Default,
		logger:   slog.New(slog.DiscardHandler),
		maxDepth: DefaultMaxDepth,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// Result describes a loaded tile set.
type Result struct {
	Summary
	// Root is the id of the root tile.
	Root tileset.TileID
}

// Decode parses and validates a tileset document.
func Decode(data []byte, optFns ...Option) (*Document, Summary, error) {
	o := applyOptions(optFns)

	var doc Document
	if err := o.codec.Unmarshal(data, &doc); err != nil {
		return nil, Summary{}, fmt.Errorf("%w: decode: %w", ErrMalformed, err)
	}
	sum, err := Validate(&doc, o.maxDepth)
	if err != nil {
		return nil, Summary{}, err
	}
	return &doc, sum, nil
}

// Load reads a tileset document from r and returns a new tile set named name
// holding its hierarchy. The caller owns the tile set and must Dispose it.
// Cancelling ctx aborts population and disposes the partial set.
func Load(ctx context.Context, r io.Reader, name string, optFns ...Option) (*tileset.TileSet, Result, error) {
	o := applyOptions(optFns)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Result{}, fmt.Errorf("ingest: read: %w", err)
	}
	doc, sum, err := Decode(data, optFns...)
	if err != nil {
		return nil, Result{}, err
	}

	opts := []tileset.Option{
		tileset.WithExpectedChildren(sum.Children),
		tileset.WithExpectedContents(sum.Contents),
		tileset.WithExpectedStringBytes(sum.URIBytes),
		tileset.WithLogger(o.logger),
	}
	if sum.Implicit {
		opts = append(opts, tileset.WithSubdivision())
	}
	opts = append(opts, o.tileSetOpts...)

	ts, err := tileset.New(name, conv.RoundUp(sum.Tiles, tileset.ChunkSize), opts...)
	if err != nil {
		return nil, Result{}, err
	}

	root, err := Populate(ctx, ts, doc)
	if err != nil {
		_ = ts.Dispose()
		return nil, Result{}, err
	}

	o.logger.Debug("tileset ingested",
		"dataset_id", ts.ID(),
		"dataset", name,
		"version", sum.Version,
		"tiles", sum.Tiles,
		"contents", sum.Contents,
		"depth", sum.Depth,
	)
	return ts, Result{Summary: sum, Root: root}, nil
}

// Populate appends every tile of a validated document to ts, children before
// parents, and returns the root id. Refinement is inherited from the parent
// when a tile omits it; the root defaults to REPLACE. ctx is checked every
// 4096 tiles; on cancellation ts keeps the tiles appended so far.
func Populate(ctx context.Context, ts *tileset.TileSet, doc *Document) (tileset.TileID, error) {
	p := &populator{ctx: ctx, ts: ts}
	return p.tile(doc.Root, "root", tileset.RefineReplace)
}

type populator struct {
	ctx   context.Context
	ts    *tileset.TileSet
	stack []tileset.TileID
	added int
}

func (p *populator) tile(t *Tile, path string, inherited tileset.Refinement) (tileset.TileID, error) {
	if p.added%4096 == 0 {
		if err := p.ctx.Err(); err != nil {
			return 0, err
		}
	}
	p.added++

	bv, err := convertVolume(t.BoundingVolume, path+".boundingVolume")
	if err != nil {
		return 0, err
	}
	refine := inherited
	if r, ok := parseRefine(t.Refine); ok {
		refine = r
	}

	spec := tileset.TileSpec{
		Volume:         bv,
		GeometricError: *t.GeometricError,
		Refine:         refine,
	}
	if t.Transform != nil {
		m, err := convertTransform(t.Transform, path+".transform")
		if err != nil {
			return 0, err
		}
		if !m.IsIdentity() {
			spec.Transform = &m
		}
	}
	if t.ImplicitTiling != nil {
		if spec.Subdivision, err = parseSubdivision(t.ImplicitTiling.SubdivisionScheme, path); err != nil {
			return 0, err
		}
	}

	contents := t.Contents
	if t.Content != nil {
		contents = []Content{*t.Content}
	}
	for i := range contents {
		cs := tileset.ContentSpec{URI: contents[i].uri()}
		if contents[i].BoundingVolume != nil {
			if cs.Volume, err = convertVolume(contents[i].BoundingVolume, contentPath(path, t.Content != nil, i)+".boundingVolume"); err != nil {
				return 0, err
			}
		}
		spec.Contents = append(spec.Contents, cs)
	}

	start := len(p.stack)
	for i := range t.Children {
		id, err := p.tile(&t.Children[i], path+".children["+strconv.Itoa(i)+"]", refine)
		if err != nil {
			return 0, err
		}
		p.stack = append(p.stack, id)
	}
	spec.Children = p.stack[start:]

	id, err := p.ts.AddTile(spec)
	p.stack = p.stack[:start]
	if err != nil {
		return 0, fmt.Errorf("ingest: %s: %w", path, err)
	}
	return id, nil
}

// contentPath names a content the way validation does.
func contentPath(tilePath string, single bool, i int) string {
	if single {
		return tilePath + ".content"
	}
	return tilePath + ".contents[" + strconv.Itoa(i) + "]"
}
