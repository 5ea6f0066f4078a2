//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package server

import "syscall"

// reuseControl leaves the socket untouched; the runtime already sets
// SO_REUSEADDR on platforms where that is safe
func reuseControl(_, _ string, _ syscall.RawConn) error {
	return nil
}
