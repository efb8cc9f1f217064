// Package mmap provides anonymous memory mappings used as off-heap storage.
//
// # Overview
//
// Tile columns live outside the Go heap so that multi-million row hierarchies do
// not add GC scan work. Each Mapping is a private, read-write, zero-filled region
// obtained directly from the operating system.
//
// # Usage
//
//	m, err := mmap.MapAnon(64 * 1024)
//	if err != nil { ... }
//	defer m.Close()
//
//	buf := m.Bytes()
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with MAP_ANON|MAP_PRIVATE
//   - Windows: VirtualAlloc with MEM_RESERVE|MEM_COMMIT
//
// # Thread Safety
//
// Close is idempotent and protected by an atomic flag. Callers must ensure no
// goroutine touches Bytes() after Close returns.
package mmap
