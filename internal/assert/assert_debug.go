//go:build tilekit_debug

package assert

import "fmt"

// Enabled reports whether contract checks are compiled in.
const Enabled = true

// That panics with the formatted message when cond is false.
func That(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("tilekit: contract violation: "+format, args...))
	}
}
