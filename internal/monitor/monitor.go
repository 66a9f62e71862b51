package monitor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/loykin/dormant/internal/engine"
	"github.com/loykin/dormant/internal/history"
	"github.com/loykin/dormant/internal/metrics"
)

// DefaultInterval is the polling cadence between decision cycles.
const DefaultInterval = 30 * time.Second

// maxCycleTimeout caps how long a single cycle may block, so one slow probe
// cannot stall the loop past the check interval.
const maxCycleTimeout = 10 * time.Second

// Config wires a Monitor.
type Config struct {
	Engine   *engine.Engine
	Interval time.Duration // DefaultInterval when <= 0
	Logger   *slog.Logger
	Sink     history.Sink // optional; nil disables history
}

// Monitor owns the polling loop: one decision cycle runs to completion
// before the next begins, separated by a fixed sleep. There are never
// concurrent cycles.
type Monitor struct {
	engine   *engine.Engine
	interval time.Duration
	logger   *slog.Logger
	sink     history.Sink
	session  string
}

func New(c Config) *Monitor {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return &Monitor{
		engine:   c.Engine,
		interval: c.Interval,
		logger:   c.Logger,
		sink:     c.Sink,
		session:  history.NewSession(),
	}
}

// Session returns the identifier shared by all history events of this run.
func (m *Monitor) Session() string { return m.session }

// Run blocks until the supervised process disappears or ctx is cancelled.
// Both are clean exits: cancellation performs no further action (no forced
// resume or suspend), and a lost target is a termination condition, not an
// error.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started", "interval", m.interval, "session", m.session)
	m.record(engine.Result{}, history.EventMonitorStart)
	defer m.record(engine.Result{}, history.EventMonitorStop)

	// first cycle immediately, then on the ticker
	if done := m.cycle(ctx); done {
		return nil
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("shutdown requested, leaving server as is")
			return nil
		case <-ticker.C:
			if done := m.cycle(ctx); done {
				return nil
			}
		}
	}
}

// cycle runs one decision step. It reports true when the loop should stop.
func (m *Monitor) cycle(ctx context.Context) bool {
	timeout := m.interval
	if timeout > maxCycleTimeout {
		timeout = maxCycleTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	res, err := m.engine.Step(cctx)
	cancel()
	metrics.IncCycle()

	if err != nil {
		if errors.Is(err, engine.ErrTargetLost) {
			m.logger.Info("supervised process no longer found, stopping monitor")
			m.record(res, history.EventTargetLost)
			return true
		}
		if ctx.Err() != nil {
			// shutdown raced the cycle; the outer select exits the loop
			return false
		}
		// reported, retried on the next cycle's re-evaluation
		m.logger.Error("cycle failed", "error", err)
		return false
	}

	switch res.Action {
	case engine.ActionSuspend:
		m.record(res, history.EventSuspend)
	case engine.ActionResume:
		m.record(res, history.EventResume)
	}
	return false
}

// record forwards an event to the history sink, best effort.
func (m *Monitor) record(res engine.Result, typ history.EventType) {
	if m.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e := history.Event{
		Type:        typ,
		OccurredAt:  time.Now().UTC(),
		Session:     m.session,
		PID:         res.PID,
		IdleSeconds: int64(res.Idle.Seconds()),
	}
	if err := m.sink.Send(ctx, e); err != nil {
		m.logger.Warn("history sink failed", "event", typ, "error", err)
	}
}
