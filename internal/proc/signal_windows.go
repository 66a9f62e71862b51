//go:build windows

package proc

import (
	"errors"
	"os"
)

var errUnsupported = errors.New("suspend/resume signals are not supported on windows")

func stopProcess(_ int) error { return errUnsupported }

func contProcess(_ int) error { return errUnsupported }

func processExists(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	_ = p.Release()
	return true
}

func isNoSuchProcess(_ error) bool { return false }
