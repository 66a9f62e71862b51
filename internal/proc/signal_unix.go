//go:build !windows

package proc

import (
	"errors"

	"golang.org/x/sys/unix"
)

// stopProcess pauses execution with SIGSTOP. SIGSTOP cannot be caught or
// ignored, and stopping an already-stopped process is a no-op at the OS
// level.
func stopProcess(pid int) error { return unix.Kill(pid, unix.SIGSTOP) }

// contProcess resumes execution with SIGCONT. Continuing a running process
// is likewise harmless.
func contProcess(pid int) error { return unix.Kill(pid, unix.SIGCONT) }

// processExists checks liveness with the null signal.
func processExists(pid int) bool { return unix.Kill(pid, 0) == nil }

func isNoSuchProcess(err error) bool { return errors.Is(err, unix.ESRCH) }
