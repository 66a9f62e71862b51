//go:build linux

package proc

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// locateByPattern scans /proc for a command line containing pattern. The scan
// sees stopped processes too, unlike discovery mechanisms keyed off CPU
// activity.
func locateByPattern(pattern string) (int, error) {
	self := os.Getpid()
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		if pid == self {
			continue
		}
		if strings.Contains(readCmdline(pid), pattern) {
			return pid, nil
		}
	}
	return 0, ErrNotFound
}

// readCmdline returns the space-joined command line for a PID, or "" when it
// cannot be read (process gone, or not ours to inspect).
func readCmdline(pid int) string {
	b, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "cmdline"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(string(b), "\x00", " "))
}
