package snapshot

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// maxLZ4Ratio is the largest expansion an LZ4 block can encode.
const maxLZ4Ratio = 255

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	return dec
}

// compress returns the stored body and the compression actually applied.
// A body that does not shrink below 90% is stored uncompressed.
func compress(raw []byte, c Compression) ([]byte, Compression, error) {
	if c == CompressionNone || len(raw) == 0 {
		return raw, CompressionNone, nil
	}

	var out []byte
	switch c {
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, dst, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("snapshot: lz4: %w", err)
		}
		out = dst[:n]
	case CompressionZSTD:
		enc := getZstdEncoder()
		out = enc.EncodeAll(raw, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, 0, fmt.Errorf("%w: compression %s", ErrIncompatibleFormat, c)
	}

	if len(out) == 0 || float64(len(out)) > float64(len(raw))*0.9 {
		return raw, CompressionNone, nil
	}
	return out, c, nil
}

// checkLengths rejects a header whose raw length cannot result from its body
// under the stated compression. It runs before anything is allocated.
func checkLengths(c Compression, bodyLen, rawLen uint64) error {
	switch c {
	case CompressionNone:
		if bodyLen != rawLen {
			return fmt.Errorf("%w: body length %d, want %d", ErrCorrupt, bodyLen, rawLen)
		}
	case CompressionLZ4:
		if rawLen > bodyLen*maxLZ4Ratio+16 {
			return fmt.Errorf("%w: raw length %d exceeds lz4 bound for %d body bytes", ErrCorrupt, rawLen, bodyLen)
		}
	case CompressionZSTD:
		if bodyLen == 0 && rawLen != 0 {
			return fmt.Errorf("%w: empty zstd body", ErrCorrupt)
		}
	default:
		return fmt.Errorf("%w: compression %s", ErrIncompatibleFormat, c)
	}
	return nil
}

func decompress(body []byte, c Compression, rawLen int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(body) != rawLen {
			return nil, fmt.Errorf("%w: body length %d, want %d", ErrCorrupt, len(body), rawLen)
		}
		return body, nil
	case CompressionLZ4:
		raw := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(body, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrCorrupt, err)
		}
		if n != rawLen {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return raw, nil
	case CompressionZSTD:
		// Output grows with decoded data, never with RawLen.
		dec := getZstdDecoder()
		if err := dec.Reset(bytes.NewReader(body)); err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorrupt, err)
		}
		var out bytes.Buffer
		_, err := io.Copy(&out, io.LimitReader(dec, int64(rawLen)+1))
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorrupt, err)
		}
		if out.Len() != rawLen {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return out.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: compression %s", ErrIncompatibleFormat, c)
	}
}
