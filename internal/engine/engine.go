package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/loykin/dormant/internal/metrics"
	"github.com/loykin/dormant/internal/store"
)

// Action is what a decision cycle did to the supervised process.
type Action int

const (
	ActionNone Action = iota
	ActionSuspend
	ActionResume
)

func (a Action) String() string {
	switch a {
	case ActionSuspend:
		return "suspend"
	case ActionResume:
		return "resume"
	default:
		return "none"
	}
}

// ErrTargetLost reports that the supervised process is gone: neither
// discovery nor the cached PID yields a live process. It is a termination
// condition for the monitor, not an error to retry.
var ErrTargetLost = errors.New("supervised process lost")

// Controller delivers pause/resume directives to the supervised process.
type Controller interface {
	Locate() (int, error)
	Suspend(pid int) error
	Resume(pid int) error
	Alive(pid int) bool
}

// Signal is the OR-combined activity evidence for one cycle.
type Signal interface {
	Observe(ctx context.Context) bool
}

// Result describes the outcome of one decision cycle.
type Result struct {
	Action Action
	State  store.RunState // persisted state after the step
	PID    int
	Idle   time.Duration // continuous inactivity measured this cycle
}

// Config wires an Engine.
type Config struct {
	Store       store.Store
	Controller  Controller
	Signal      Signal
	IdleTimeout time.Duration
	Logger      *slog.Logger
	Now         func() time.Time // for tests; time.Now when nil
}

// Engine evaluates the transition table once per cycle. It is deliberately
// hysteretic and idempotent: a controller action is attempted only when a
// transition is warranted, and persisted state is updated only after the OS
// confirmed signal delivery. Calling Step twice with unchanged inputs yields
// the same state and no duplicate signals.
type Engine struct {
	store       store.Store
	ctrl        Controller
	signal      Signal
	idleTimeout time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

func New(c Config) *Engine {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return &Engine{
		store:       c.Store,
		ctrl:        c.Controller,
		signal:      c.Signal,
		idleTimeout: c.IdleTimeout,
		logger:      c.Logger,
		now:         c.Now,
	}
}

// Step runs one decision cycle: read state, resolve the target, collect the
// activity signal, act, persist. A non-nil error other than ErrTargetLost
// means the cycle could not complete; nothing unconfirmed was committed and
// the same decision is re-evaluated next cycle.
func (e *Engine) Step(ctx context.Context) (Result, error) {
	now := e.now()

	state, err := e.store.RunState(ctx)
	if err != nil {
		// Unreadable state reads as Active but must not drive a transition.
		return Result{State: store.Active}, fmt.Errorf("read run state: %w", err)
	}
	metrics.SetRunStateActive(state == store.Active)

	pid, err := e.resolvePID(ctx, state)
	if err != nil {
		return Result{State: state}, err
	}

	active := e.signal.Observe(ctx)

	switch state {
	case store.Suspended:
		if !active {
			return Result{State: store.Suspended, PID: pid}, nil
		}
		return e.wake(ctx, pid, now)
	default:
		return e.watch(ctx, pid, now, active)
	}
}

// watch handles the Active row of the transition table.
func (e *Engine) watch(ctx context.Context, pid int, now time.Time, active bool) (Result, error) {
	// Keep the cache warm while the process is discoverable; a suspended
	// process may only be reachable through it later.
	if err := e.store.SetCachedPID(ctx, pid); err != nil {
		return Result{State: store.Active, PID: pid}, fmt.Errorf("cache pid: %w", err)
	}

	if active {
		if err := e.store.SetLastActivity(ctx, now); err != nil {
			return Result{State: store.Active, PID: pid}, fmt.Errorf("reset idle clock: %w", err)
		}
		metrics.SetIdleSeconds(0)
		return Result{State: store.Active, PID: pid}, nil
	}

	last, err := e.store.LastActivity(ctx)
	if err != nil {
		return Result{State: store.Active, PID: pid}, fmt.Errorf("read last activity: %w", err)
	}
	idle := now.Sub(last)
	metrics.SetIdleSeconds(idle.Seconds())

	if idle < e.idleTimeout {
		e.logger.Debug("idle, not yet at timeout",
			"idle", idle, "remaining", e.idleTimeout-idle)
		return Result{State: store.Active, PID: pid, Idle: idle}, nil
	}

	if err := e.ctrl.Suspend(pid); err != nil {
		metrics.IncSignalFailure(ActionSuspend.String())
		return Result{State: store.Active, PID: pid, Idle: idle}, fmt.Errorf("suspend: %w", err)
	}
	if err := e.store.MarkSuspended(ctx); err != nil {
		// Signal delivered but state not committed: the store still says
		// Active, so the next cycle re-issues a harmless SIGSTOP and
		// retries the commit.
		return Result{State: store.Active, PID: pid, Idle: idle}, fmt.Errorf("commit suspended state: %w", err)
	}
	metrics.IncTransition(ActionSuspend.String())
	metrics.SetRunStateActive(false)
	e.logger.Info("server idle, hibernating", "pid", pid, "idle", idle)
	return Result{Action: ActionSuspend, State: store.Suspended, PID: pid, Idle: idle}, nil
}

// wake handles the Suspended-with-activity row.
func (e *Engine) wake(ctx context.Context, pid int, now time.Time) (Result, error) {
	if err := e.ctrl.Resume(pid); err != nil {
		metrics.IncSignalFailure(ActionResume.String())
		return Result{State: store.Suspended, PID: pid}, fmt.Errorf("resume: %w", err)
	}
	if err := e.store.MarkActive(ctx); err != nil {
		return Result{State: store.Suspended, PID: pid}, fmt.Errorf("commit active state: %w", err)
	}
	// A confirmed wake due to genuine activity is the only thing that resets
	// the idle clock from the Suspended side.
	if err := e.store.SetLastActivity(ctx, now); err != nil {
		return Result{Action: ActionResume, State: store.Active, PID: pid}, fmt.Errorf("reset idle clock: %w", err)
	}
	metrics.IncTransition(ActionResume.String())
	metrics.SetRunStateActive(true)
	metrics.SetIdleSeconds(0)
	e.logger.Info("activity detected, waking server", "pid", pid)
	return Result{Action: ActionResume, State: store.Active, PID: pid}, nil
}

// resolvePID finds the supervised process. While Suspended the cached PID is
// preferred: a SIGSTOP'd process can evade discovery mechanisms keyed off
// CPU activity, and the cache was written while the process was still
// discoverable. While Active, live discovery is authoritative and the cache
// is only a fallback. Exhausting both means the target is lost.
func (e *Engine) resolvePID(ctx context.Context, state store.RunState) (int, error) {
	cached := func() (int, bool) {
		pid, err := e.store.CachedPID(ctx)
		if err != nil || pid <= 0 {
			return 0, false
		}
		return pid, e.ctrl.Alive(pid)
	}

	if state == store.Suspended {
		if pid, ok := cached(); ok {
			return pid, nil
		}
		if pid, err := e.ctrl.Locate(); err == nil {
			return pid, nil
		}
		return 0, ErrTargetLost
	}
	if pid, err := e.ctrl.Locate(); err == nil {
		return pid, nil
	}
	if pid, ok := cached(); ok {
		return pid, nil
	}
	return 0, ErrTargetLost
}
