// Package mem provides aligned heap allocation.
//
// # Aligned Allocation
//
// Heap-backed columns use 64-byte aligned buffers so that rows never straddle a
// cache line boundary at the start of a column, matching the placement the
// off-heap (mmap) path gets for free.
package mem
