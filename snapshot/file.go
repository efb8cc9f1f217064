package snapshot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/tilekit/internal/fs"
	"github.com/hupe1980/tilekit/tileset"
)

// withFileSystem replaces the file system used by SaveFile and LoadFile.
func withFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// SaveFile writes ts to path. path holds either the previous or the complete
// new snapshot, never a partial one.
func SaveFile(ctx context.Context, path string, ts *tileset.TileSet, optFns ...Option) (Info, error) {
	o := applyOptions(optFns)
	var info Info
	err := fs.WriteAtomic(o.fs, path, 0o644, func(w io.Writer) error {
		var err error
		info, err = Write(ctx, w, ts, optFns...)
		return err
	})
	if err != nil {
		return Info{}, fmt.Errorf("snapshot: save %s: %w", path, err)
	}
	return info, nil
}

// LoadFile restores a tile set from the snapshot at path.
func LoadFile(ctx context.Context, path string, optFns ...Option) (*tileset.TileSet, Info, error) {
	o := applyOptions(optFns)
	f, err := o.fs.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, Info{}, fmt.Errorf("snapshot: open: %w", err)
	}
	ts, info, err := Read(ctx, bufio.NewReaderSize(f, 1<<16), optFns...)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = errors.Join(cerr, ts.Dispose())
		ts = nil
	}
	if err != nil {
		return nil, Info{}, err
	}
	return ts, info, nil
}
