package mem

import (
	"unsafe"
)

// Alignment is the byte alignment of every buffer returned by this package (one cache line).
const Alignment = 64

// AllocAligned allocates a zeroed byte slice of the given size whose first byte
// sits on an Alignment boundary. It returns nil for non-positive sizes.
//
// The returned slice is capacity-clamped to size; the padding in front of it is
// kept alive by the slice itself.
func AllocAligned(size int) []byte {
	if size <= 0 {
		return nil
	}

	buf := make([]byte, size+Alignment)

	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // unsafe is required for memory alignment
	offset := int((Alignment - (addr & (Alignment - 1))) & (Alignment - 1))

	return buf[offset : offset+size : offset+size]
}

// Aligned reports whether b starts on an Alignment boundary.
func Aligned(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(&b[0]))&(Alignment-1) == 0 //nolint:gosec // unsafe is required for memory alignment
}
