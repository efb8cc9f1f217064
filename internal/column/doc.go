// Package column implements typed, append-only native columns.
//
// A Column[T] is the unit every store in tilekit is built from: one contiguous
// region of native memory holding Len() values of a pointer-free type T, with
// Cap() rows reserved. Growth happens in fixed increments (ChunkSize rows by
// default) so capacity is always a whole number of chunks; Clear keeps the
// reservation; Dispose releases it exactly once.
//
// # Example
//
//	errs, _ := column.New[float64](64)
//	errs.Append(100)
//	errs.At(0) // 100
//	errs.Dispose()
//
// # Concurrency
//
// Columns have no internal locking. A column has one writer; readers run only
// after the writer's batch completes.
package column
