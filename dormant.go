package dormant

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/loykin/dormant/internal/config"
	"github.com/loykin/dormant/internal/engine"
	"github.com/loykin/dormant/internal/history"
	hfactory "github.com/loykin/dormant/internal/history/factory"
	"github.com/loykin/dormant/internal/logger"
	"github.com/loykin/dormant/internal/metrics"
	"github.com/loykin/dormant/internal/monitor"
	"github.com/loykin/dormant/internal/probe"
	"github.com/loykin/dormant/internal/proc"
	iapi "github.com/loykin/dormant/internal/server"
	"github.com/loykin/dormant/internal/store"
	sfactory "github.com/loykin/dormant/internal/store/factory"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = cfg.Config

type LogConfig = logger.Config

type HistoryConfig = hfactory.Config

type HistorySink = history.Sink

type Store = store.Store

type Probe = probe.Probe

type RunState = store.RunState

const (
	Active    = store.Active
	Suspended = store.Suspended
)

// Monitor is a thin facade over the internal polling loop. It bundles the
// state store, the activity probes and the process controller built from a
// Config, and provides a stable public API for embedding.
type Monitor struct {
	inner  *monitor.Monitor
	st     store.Store
	sink   history.Sink
	logCls io.Closer
}

// New assembles a Monitor from cfg. The caller owns the returned Monitor and
// must Close it after Run returns. A nil log parameter builds the logger from
// cfg.Log.
func New(c *Config, log *slog.Logger) (*Monitor, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var logCls io.Closer
	if log == nil {
		log, logCls = c.Log.New()
	}

	st, err := sfactory.NewFromDSN(c.StateDSN, c.Name)
	if err != nil {
		closeQuiet(logCls)
		return nil, fmt.Errorf("state store: %w", err)
	}
	if err := st.Init(context.Background(), time.Now()); err != nil {
		closeQuiet(logCls)
		_ = st.Close()
		return nil, fmt.Errorf("init state store: %w", err)
	}

	sink, err := hfactory.New(c.History)
	if err != nil {
		closeQuiet(logCls)
		_ = st.Close()
		return nil, fmt.Errorf("history sink: %w", err)
	}

	collector, err := buildCollector(c, log)
	if err != nil {
		closeQuiet(logCls)
		_ = st.Close()
		return nil, err
	}

	eng := engine.New(engine.Config{
		Store:       st,
		Controller:  &proc.Controller{Pattern: c.ProcessPattern},
		Signal:      collector,
		IdleTimeout: c.IdleTimeout(),
		Logger:      log,
	})
	inner := monitor.New(monitor.Config{
		Engine:   eng,
		Interval: c.CheckInterval(),
		Logger:   log,
		Sink:     sink,
	})
	return &Monitor{inner: inner, st: st, sink: sink, logCls: logCls}, nil
}

// Run blocks until the supervised process disappears or ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error { return m.inner.Run(ctx) }

// Session returns the identifier shared by all history events of this run.
func (m *Monitor) Session() string { return m.inner.Session() }

// Store exposes the underlying state store, e.g. for mounting a status router.
func (m *Monitor) Store() Store { return m.st }

// Close releases the store, history sink and log file.
func (m *Monitor) Close() error {
	err := m.st.Close()
	if c, ok := m.sink.(io.Closer); ok && c != nil {
		_ = c.Close()
	}
	closeQuiet(m.logCls)
	return err
}

// StatusHandler returns the read-only status surface (gin) for mounting in an
// existing server. See StatusHandlerEcho for echo-based applications.
func (m *Monitor) StatusHandler(basePath string) http.Handler {
	return iapi.NewRouter(m.st, m.Session(), basePath).Handler()
}

// StatusHandlerEcho is StatusHandler mounted in an echo instance.
func (m *Monitor) StatusHandlerEcho(basePath string) http.Handler {
	return iapi.NewRouter(m.st, m.Session(), basePath).EchoHandler()
}

// LoadConfig reads the optional TOML file at path with DORMANT_* environment
// overrides applied.
func LoadConfig(path string) (*Config, error) { return cfg.Load(path) }

// NewHTTPServer starts a standalone HTTP server on addr exposing the status
// surface of m.
func NewHTTPServer(addr, basePath string, m *Monitor) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, m.st, m.Session())
}

// StateInfo is a point-in-time snapshot of the persisted monitor state.
type StateInfo struct {
	RunState     RunState
	LastActivity time.Time
	Idle         time.Duration
	CachedPID    int
}

// InspectState reads the persisted state named by c without starting a
// monitor. It initializes the store if this is the first run.
func InspectState(ctx context.Context, c *Config) (StateInfo, error) {
	st, err := sfactory.NewFromDSN(c.StateDSN, c.Name)
	if err != nil {
		return StateInfo{}, err
	}
	defer func() { _ = st.Close() }()
	if err := st.Init(ctx, time.Now()); err != nil {
		return StateInfo{}, err
	}
	state, err := st.RunState(ctx)
	if err != nil {
		return StateInfo{}, err
	}
	last, err := st.LastActivity(ctx)
	if err != nil {
		return StateInfo{}, err
	}
	pid, err := st.CachedPID(ctx)
	if err != nil {
		return StateInfo{}, err
	}
	return StateInfo{
		RunState:     state,
		LastActivity: last,
		Idle:         time.Since(last),
		CachedPID:    pid,
	}, nil
}

// ForceResume delivers SIGCONT to the supervised process and marks the store
// Active regardless of idle state, for operators waking a server by hand. It
// returns the resumed PID.
func ForceResume(ctx context.Context, c *Config) (int, error) {
	if c.ProcessPattern == "" {
		return 0, fmt.Errorf("process_pattern is required to resume")
	}
	st, err := sfactory.NewFromDSN(c.StateDSN, c.Name)
	if err != nil {
		return 0, err
	}
	defer func() { _ = st.Close() }()
	if err := st.Init(ctx, time.Now()); err != nil {
		return 0, err
	}

	ctrl := &proc.Controller{Pattern: c.ProcessPattern}
	pid, err := st.CachedPID(ctx)
	if err != nil || pid <= 0 || !ctrl.Alive(pid) {
		if pid, err = ctrl.Locate(); err != nil {
			return 0, fmt.Errorf("locate process: %w", err)
		}
	}
	if err := ctrl.Resume(pid); err != nil {
		return 0, err
	}
	if err := st.MarkActive(ctx); err != nil {
		return pid, fmt.Errorf("commit active state: %w", err)
	}
	if err := st.SetLastActivity(ctx, time.Now()); err != nil {
		return pid, fmt.Errorf("reset idle clock: %w", err)
	}
	return pid, nil
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// buildCollector orders the probes: established connections are hard
// evidence and consulted first; the log heuristics follow.
func buildCollector(c *Config, log *slog.Logger) (*probe.Collector, error) {
	probes := []probe.Probe{&probe.NetConn{Port: c.ServerPort}}
	if c.ServerLog != "" {
		join, err := regexp.Compile(c.JoinPattern)
		if err != nil {
			return nil, fmt.Errorf("join_pattern: %w", err)
		}
		leave, err := regexp.Compile(c.LeavePattern)
		if err != nil {
			return nil, fmt.Errorf("leave_pattern: %w", err)
		}
		probes = append(probes,
			&probe.LogPattern{Path: c.ServerLog, Window: c.LogWindowLines, Join: join, Leave: leave},
			&probe.LogFreshness{Path: c.ServerLog, Window: c.FreshnessWindow()},
		)
	}
	return probe.NewCollector(log, probes...), nil
}

func closeQuiet(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
