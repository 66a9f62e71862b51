package proc

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that no process matched the pattern, or that a PID
// vanished before a signal could be delivered.
var ErrNotFound = errors.New("process not found")

// SignalError reports a suspend/resume attempt the OS rejected.
type SignalError struct {
	Action string // "suspend" or "resume"
	PID    int
	Err    error
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("%s pid %d: %v", e.Action, e.PID, e.Err)
}

func (e *SignalError) Unwrap() error { return e.Err }

// Controller locates the supervised process and delivers pause/resume
// directives. It holds no state: the PID is re-resolved by the caller each
// cycle, with the store's cached PID as fallback for suspended processes.
type Controller struct {
	// Pattern is matched as a substring against each candidate's command
	// line. Normally exactly one instance runs; on multiple matches the
	// first one wins.
	Pattern string
}

// Locate finds the supervised process. Returns ErrNotFound when nothing
// matches.
func (c *Controller) Locate() (int, error) {
	if c.Pattern == "" {
		return 0, errors.New("empty process pattern")
	}
	return locateByPattern(c.Pattern)
}

// Suspend delivers a stop-execution signal. The run state must only be
// persisted after this returns nil.
func (c *Controller) Suspend(pid int) error {
	if err := stopProcess(pid); err != nil {
		if isNoSuchProcess(err) {
			return fmt.Errorf("suspend pid %d: %w", pid, ErrNotFound)
		}
		return &SignalError{Action: "suspend", PID: pid, Err: err}
	}
	return nil
}

// Resume delivers a continue-execution signal.
func (c *Controller) Resume(pid int) error {
	if err := contProcess(pid); err != nil {
		if isNoSuchProcess(err) {
			return fmt.Errorf("resume pid %d: %w", pid, ErrNotFound)
		}
		return &SignalError{Action: "resume", PID: pid, Err: err}
	}
	return nil
}

// Alive reports whether a PID still refers to a live process. A stopped
// (SIGSTOP'd) process is alive.
func (c *Controller) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return processExists(pid)
}
