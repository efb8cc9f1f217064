// Package hash provides CRC32-Castagnoli checksums for snapshot integrity.
//
// # Usage
//
// One-shot:
//
//	checksum := hash.CRC32C(data)
//
// Streaming, while writing or reading a snapshot body:
//
//	w := hash.NewWriter(dst)
//	w.Write(chunk)
//	sum := w.Sum32()
//
// The table is computed once at package init. github.com/klauspost/crc32 uses
// SSE4.2 / ARM CRC instructions when present.
package hash
