package store

import (
	"context"
	"time"
)

// RunState is the last confirmed OS-level state of the supervised process.
// It is only updated after a suspend/resume signal has been delivered
// successfully, so it never runs ahead of reality.
type RunState int

const (
	Active RunState = iota
	Suspended
)

func (s RunState) String() string {
	switch s {
	case Active:
		return "active"
	case Suspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// Store persists the monitor's view of the supervised process across monitor
// restarts: the run state, the last instant activity was observed, and the
// last known PID. Implementations must make writes durable before returning;
// the monitor may be killed at any point and must resume the correct state.
//
// The monitor is the sole reader and writer of a store. Concurrent monitor
// instances sharing one store are not supported.
type Store interface {
	// Init ensures the storage location exists and seeds the last-activity
	// record with now if absent. Safe to call on every startup.
	Init(ctx context.Context, now time.Time) error
	// RunState reports the persisted state. A store with no suspended
	// marker reports Active.
	RunState(ctx context.Context) (RunState, error)
	// MarkSuspended and MarkActive set the suspended marker. Both are
	// idempotent.
	MarkSuspended(ctx context.Context) error
	MarkActive(ctx context.Context) error
	LastActivity(ctx context.Context) (time.Time, error)
	SetLastActivity(ctx context.Context, t time.Time) error
	// CachedPID returns the last recorded PID of the supervised process,
	// or 0 when none has been recorded yet.
	CachedPID(ctx context.Context) (int, error)
	SetCachedPID(ctx context.Context, pid int) error
	Close() error
}
