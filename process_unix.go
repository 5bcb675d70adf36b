//go:build !windows

package statusview

import (
	"errors"
	"syscall"
)

// ProcessAlive reports whether a process with the given ID exists on this
// host.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	// EPERM means the process exists but belongs to another user
	return err == nil || errors.Is(err, syscall.EPERM)
}
