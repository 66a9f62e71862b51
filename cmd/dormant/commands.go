package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loykin/dormant"
)

// command carries the output writer so tests can capture what the CLI prints.
type command struct {
	out io.Writer
}

// Run loads the config and drives the monitor loop until the supervised
// process disappears or a shutdown signal arrives.
func (c command) Run(ctx context.Context, flags RunFlags) error {
	cfg, err := dormant.LoadConfig(flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if !cfg.Enabled {
		_, _ = fmt.Fprintln(c.out, "monitoring disabled (enabled = false), nothing to do")
		return nil
	}

	if err := dormant.RegisterMetricsDefault(); err != nil {
		_, _ = fmt.Fprintf(c.out, "Warning: failed to register metrics: %v\n", err)
	}

	m, err := dormant.New(cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	if cfg.HTTPListen != "" {
		srv, err := dormant.NewHTTPServer(cfg.HTTPListen, "", m)
		if err != nil {
			return fmt.Errorf("failed to create HTTP server: %w", err)
		}
		defer func() { _ = srv.Close() }()
		_, _ = fmt.Fprintf(c.out, "Status endpoint listening on %s\n", cfg.HTTPListen)
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return m.Run(runCtx)
}

// Status prints the persisted monitor state without touching the process.
func (c command) Status(ctx context.Context, flags StatusFlags) error {
	cfg, err := dormant.LoadConfig(flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	info, err := dormant.InspectState(ctx, cfg)
	if err != nil {
		return err
	}

	if flags.JSON {
		return json.NewEncoder(c.out).Encode(map[string]any{
			"run_state":     info.RunState.String(),
			"last_activity": info.LastActivity.UTC().Format(time.RFC3339),
			"idle_seconds":  int64(info.Idle.Seconds()),
			"cached_pid":    info.CachedPID,
		})
	}
	_, _ = fmt.Fprintf(c.out, "State:         %s\n", info.RunState)
	_, _ = fmt.Fprintf(c.out, "Last activity: %s (%s ago)\n",
		info.LastActivity.Format(time.RFC3339), info.Idle.Round(time.Second))
	if info.CachedPID > 0 {
		_, _ = fmt.Fprintf(c.out, "Cached PID:    %d\n", info.CachedPID)
	} else {
		_, _ = fmt.Fprintln(c.out, "Cached PID:    none")
	}
	return nil
}

// Resume wakes the supervised process by hand, independent of activity.
func (c command) Resume(ctx context.Context, flags ResumeFlags) error {
	cfg, err := dormant.LoadConfig(flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	pid, err := dormant.ForceResume(ctx, cfg)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.out, "Resumed process %d\n", pid)
	return nil
}

func newCommand() command { return command{out: os.Stdout} }
