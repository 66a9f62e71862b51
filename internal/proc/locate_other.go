//go:build !linux

package proc

import (
	"os/exec"
	"strconv"
	"strings"
)

// locateByPattern falls back to pgrep where there is no /proc to scan.
// Note pgrep may miss SIGSTOP'd processes on some platforms, which is why
// resume paths prefer the cached PID.
func locateByPattern(pattern string) (int, error) {
	out, err := exec.Command("pgrep", "-f", pattern).Output()
	if err != nil {
		// pgrep exits 1 on no match
		if ee, ok := err.(*exec.ExitError); ok && ee.ExitCode() == 1 {
			return 0, ErrNotFound
		}
		return 0, err
	}
	first, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return 0, ErrNotFound
	}
	return pid, nil
}
