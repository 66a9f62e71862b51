//go:build !windows

package proc

import (
	"errors"
	"os/exec"
	"runtime"
	"testing"
	"time"
)

// startSleeper spawns a throwaway child with a recognizable argument so the
// tests have a real PID to signal.
func startSleeper(t *testing.T, arg string) int {
	t.Helper()
	cmd := exec.Command("sleep", arg)
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start sleep: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})
	return cmd.Process.Pid
}

func TestSuspendResumeRoundTrip(t *testing.T) {
	pid := startSleeper(t, "300")
	c := &Controller{Pattern: "sleep"}

	if err := c.Suspend(pid); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	// repeated suspend is a no-op at the OS level
	if err := c.Suspend(pid); err != nil {
		t.Fatalf("re-suspend: %v", err)
	}
	if !c.Alive(pid) {
		t.Fatal("stopped process must still read as alive")
	}
	if err := c.Resume(pid); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if err := c.Resume(pid); err != nil {
		t.Fatalf("re-resume: %v", err)
	}
}

func TestSignalVanishedProcess(t *testing.T) {
	c := &Controller{}
	// an implausible PID stands in for a process that vanished mid-attempt
	bogus := 1 << 22
	err := c.Suspend(bogus)
	if err == nil {
		t.Skip("pid space too large to pick a free pid")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	err = c.Resume(bogus)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocateByPattern(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("requires a Unix process table")
	}
	// unique duration makes the cmdline unambiguous
	pid := startSleeper(t, "654321")
	// give the child a moment to exec
	time.Sleep(50 * time.Millisecond)

	c := &Controller{Pattern: "654321"}
	got, err := c.Locate()
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if got != pid {
		t.Fatalf("expected pid %d, got %d", pid, got)
	}
}

func TestLocateNoMatch(t *testing.T) {
	c := &Controller{Pattern: "definitely-not-a-running-process-7f3a9"}
	_, err := c.Locate()
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocateEmptyPattern(t *testing.T) {
	c := &Controller{}
	if _, err := c.Locate(); err == nil {
		t.Fatal("expected error for empty pattern")
	}
}

func TestAliveBounds(t *testing.T) {
	c := &Controller{}
	if c.Alive(0) || c.Alive(-1) {
		t.Fatal("non-positive pids are never alive")
	}
}
