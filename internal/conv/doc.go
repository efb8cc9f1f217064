// Package conv provides checked integer narrowing.
//
// Row ids, handles and block offsets are 32-bit on disk and in columns while Go
// slices index with int; every crossing goes through this package.
package conv
