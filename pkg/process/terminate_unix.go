//go:build !windows

package process

import (
	"syscall"
)

// SendTerminationSignal sends SIGTERM to the process group on Unix systems
func SendTerminationSignal(pid int) error {
	// Negative PID addresses the whole process group
	return syscall.Kill(-pid, syscall.SIGTERM)
}
