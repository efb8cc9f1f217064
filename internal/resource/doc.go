// Package resource implements the Controller shared by every tile set of a process.
//
// The Controller governs two resources:
//
//   - Memory: a byte budget for native columns (non-blocking, fail-fast)
//   - IO: a token bucket throttling snapshot streams so a background export
//     does not starve the frame loop
//
// # Memory Budget
//
// Columns acquire the size delta before they grow and release it on Dispose:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 512 << 20,
//	})
//
//	if err := rc.AcquireMemory(64 * 8); err != nil {
//	    // ErrMemoryLimitExceeded - the caller decides what to evict
//	}
//	defer rc.ReleaseMemory(64 * 8)
//
// # IO Throttling
//
//	rc := resource.NewController(resource.Config{
//	    IOLimitBytesPerSec: 32 << 20,
//	})
//	w := resource.NewRateLimitedWriter(ctx, file, rc)
//
// # Thread Safety
//
// All Controller methods are safe for concurrent use, and all of them treat a
// nil *Controller as "no limits".
package resource
