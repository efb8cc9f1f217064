// Package fs provides filesystem abstractions for testability and fault injection.
//
//   - [FileSystem]: the operations snapshot files need (open, rename, remove, stat)
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test utility that injects write, sync and close failures
//
// Production code should use fs.Default:
//
//	file, err := fs.Default.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
//
// Tests can inject [FaultyFS] to simulate failures:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tmp", fs.Fault{FailAfterBytes: 64})
package fs
