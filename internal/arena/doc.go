// Package arena hands out the raw memory regions behind native columns.
//
// A Region is one contiguous, zero-filled byte range that is released exactly
// once. Two allocators exist:
//
//   - OffHeap: anonymous mmap regions, invisible to the GC (default)
//   - Heap: 64-byte aligned Go slices, for platforms or tests where mapping
//     many small regions is undesirable
//
// Memory accounting is explicit: every Region knows its size, and an optional
// MemoryAcquirer (the process-wide resource.Controller) is charged before a
// region is created and credited when it is released.
//
// # Safety
//
// Region memory must only hold pointer-free data. The GC does not scan off-heap
// regions, so a Go pointer stored there would not keep its target alive.
package arena
