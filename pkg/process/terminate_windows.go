//go:build windows

package process

import (
	"fmt"
	"syscall"
)

// SendTerminationSignal sends Ctrl+Break to the child's process group on Windows
func SendTerminationSignal(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid PID: %d", pid)
	}

	dll, err := syscall.LoadDLL("kernel32.dll")
	if err != nil {
		return fmt.Errorf("failed to load kernel32.dll: %v", err)
	}
	defer dll.Release()

	proc, err := dll.FindProc("GenerateConsoleCtrlEvent")
	if err != nil {
		return err
	}

	result, _, err := proc.Call(
		uintptr(syscall.CTRL_BREAK_EVENT),
		uintptr(pid),
	)
	if result == 0 {
		return fmt.Errorf("failed to send Ctrl+Break to PID %d: %v", pid, err)
	}
	return nil
}
