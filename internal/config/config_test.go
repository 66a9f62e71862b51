package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dormant.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if c.Enabled {
		t.Fatal("monitor must be disabled by default")
	}
	if c.IdleTimeout() != 300*time.Second {
		t.Fatalf("idle timeout default: %v", c.IdleTimeout())
	}
	if c.CheckInterval() != 30*time.Second {
		t.Fatalf("check interval default: %v", c.CheckInterval())
	}
	if c.ServerPort != 25565 {
		t.Fatalf("server port default: %d", c.ServerPort)
	}
	if c.FreshnessWindow() != 60*time.Second {
		t.Fatalf("freshness default: %v", c.FreshnessWindow())
	}
	if c.LogWindowLines != 100 {
		t.Fatalf("window lines default: %d", c.LogWindowLines)
	}
}

func TestLoadFromTOML(t *testing.T) {
	path := writeConfig(t, `
enabled = true
idle_timeout = 600
check_interval = 15
server_port = 25566
process_pattern = "minecraft_server"
server_log = "/srv/mc/logs/latest.log"
state_dsn = "/var/lib/dormant"

[log]
level = "debug"
path = "/var/log/dormant.log"

[history]
dsn = "sqlite:///var/lib/dormant/history.db"
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !c.Enabled || c.IdleTimeoutSec != 600 || c.CheckIntervalSec != 15 {
		t.Fatalf("unexpected config: %+v", c)
	}
	if c.ProcessPattern != "minecraft_server" {
		t.Fatalf("process pattern: %q", c.ProcessPattern)
	}
	if c.Log.Level != "debug" || c.Log.Path != "/var/log/dormant.log" {
		t.Fatalf("log config: %+v", c.Log)
	}
	if c.History.DSN != "sqlite:///var/lib/dormant/history.db" {
		t.Fatalf("history config: %+v", c.History)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
enabled = true
idle_timeout = 600
process_pattern = "minecraft_server"
`)
	t.Setenv("DORMANT_IDLE_TIMEOUT", "120")
	t.Setenv("DORMANT_SERVER_PORT", "19132")
	t.Setenv("DORMANT_SERVER_LOG", "/srv/mc/logs/latest.log")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.IdleTimeoutSec != 120 {
		t.Fatalf("env must win over file, got %d", c.IdleTimeoutSec)
	}
	if c.ServerPort != 19132 {
		t.Fatalf("env must fill unset keys, got %d", c.ServerPort)
	}
	if c.ServerLog != "/srv/mc/logs/latest.log" {
		t.Fatalf("env must fill keys with empty defaults, got %q", c.ServerLog)
	}
}

func TestEnvOnlyConfiguration(t *testing.T) {
	t.Setenv("DORMANT_ENABLED", "true")
	t.Setenv("DORMANT_PROCESS_PATTERN", "minecraft_server")
	t.Setenv("DORMANT_LOG_LEVEL", "debug")
	t.Setenv("DORMANT_HISTORY_DSN", "sqlite:///var/lib/dormant/history.db")
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !c.Enabled {
		t.Fatal("enabled not picked up from environment")
	}
	if c.ProcessPattern != "minecraft_server" {
		t.Fatalf("process_pattern not picked up from environment, got %q", c.ProcessPattern)
	}
	if c.Log.Level != "debug" {
		t.Fatalf("log.level not picked up from environment, got %q", c.Log.Level)
	}
	if c.History.DSN != "sqlite:///var/lib/dormant/history.db" {
		t.Fatalf("history.dsn not picked up from environment, got %q", c.History.DSN)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero idle timeout", func(c *Config) { c.IdleTimeoutSec = 0 }},
		{"negative interval", func(c *Config) { c.CheckIntervalSec = -1 }},
		{"port too large", func(c *Config) { c.ServerPort = 70000 }},
		{"enabled without pattern", func(c *Config) { c.Enabled = true; c.ProcessPattern = "" }},
		{"bad join regexp", func(c *Config) { c.JoinPattern = "(" }},
		{"bad leave regexp", func(c *Config) { c.LeavePattern = "[" }},
		{"empty state dsn", func(c *Config) { c.StateDSN = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			tc.mutate(c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
