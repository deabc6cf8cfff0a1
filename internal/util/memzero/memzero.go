// Package memzero wipes sensitive byte slices.
package memzero

import (
	"crypto/subtle"
	"runtime"
)

// Zero overwrites b with zeros in a constant-time friendly way. It is
// best-effort: copies made elsewhere (strings, GC moves) are not reached.
//
//go:noinline
func Zero(b []byte) {
	if len(b) == 0 {
		return
	}
	subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
	runtime.KeepAlive(&b)
}
