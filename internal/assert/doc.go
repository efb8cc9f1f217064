// Package assert holds contract checks that only exist in debug builds.
//
// Build with -tags tilekit_debug to turn caller contract violations (block
// overflow, wrong-typed volume access, stale views, double dispose) into panics.
// Release builds compile every check to nothing.
package assert
