//go:build windows

package statusview

import "os"

// ProcessAlive reports whether a process with the given ID exists on this
// host.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	p.Release()
	return true
}
