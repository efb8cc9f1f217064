package snapshot

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Magic identifies snapshot files.
var Magic = [4]byte{'T', 'K', 'S', 'N'}

// Version is the current format version.
const Version uint16 = 1

const (
	flagSubdivision uint8 = 1 << iota
)

const (
	maxMetaBytes = 1 << 20
	codecNameLen = 16
	// minTileRecord is the size of a record without payload: error, refine,
	// subdivision, volume tag, transform flag, child and content counts.
	minTileRecord = 8 + 1 + 1 + 1 + 1 + 4 + 4
)

var (
	// ErrCorrupt is returned when a snapshot fails its checksum or cannot be decoded.
	ErrCorrupt = errors.New("snapshot corrupt")
	// ErrIncompatibleFormat is returned for an unknown magic, version, codec or compression.
	ErrIncompatibleFormat = errors.New("incompatible snapshot format")
)

// Compression selects the body compression.
type Compression uint8

const (
	// CompressionNone stores the body as is.
	CompressionNone Compression = 0
	// CompressionLZ4 is fast block compression.
	CompressionLZ4 Compression = 1
	// CompressionZSTD trades speed for a better ratio.
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression maps a name as returned by Compression.String back to
// its value. Matching is case-insensitive.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(name) {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("%w: compression %q", ErrIncompatibleFormat, name)
	}
}

// header is the fixed-size little-endian file header.
// The checksum covers the metadata section and the stored body.
type header struct {
	Magic       [4]byte
	Version     uint16
	Compression Compression
	Flags       uint8
	Codec       [codecNameLen]byte
	MetaLen     uint32
	RawLen      uint64
	BodyLen     uint64
	Checksum    uint32
	Reserved    uint32
}

// Meta is the codec-encoded metadata section. Its counts size the restored
// tile set before any tile is replayed.
type Meta struct {
	Name        string    `json:"name"`
	Tiles       int       `json:"tiles"`
	Children    int       `json:"children"`
	Contents    int       `json:"contents"`
	URIBytes    int       `json:"uriBytes"`
	Warm        int       `json:"warm"`
	Hot         int       `json:"hot"`
	Subdivision bool      `json:"subdivision"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Info describes a written or restored snapshot.
type Info struct {
	Meta
	Compression Compression
	Codec       string
	// Bytes is the size of the file.
	Bytes int64
	// RawBytes is the uncompressed body size.
	RawBytes int64
}
