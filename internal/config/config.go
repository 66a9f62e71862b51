package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	hfactory "github.com/loykin/dormant/internal/history/factory"
	"github.com/loykin/dormant/internal/logger"
)

// Defaults for the idle-detection knobs.
const (
	DefaultIdleTimeoutSec   = 300
	DefaultCheckIntervalSec = 30
	DefaultServerPort       = 25565
	DefaultWindowLines      = 100
	DefaultFreshnessSec     = 60
	DefaultJoinPattern      = "joined the game"
	DefaultLeavePattern     = "left the game"
	DefaultStateDir         = ".dormant"
)

// Config is the top-level TOML structure. Every key can be overridden with a
// DORMANT_* environment variable (nested keys use underscores, e.g.
// DORMANT_LOG_LEVEL); the environment wins over the file.
type Config struct {
	// Enabled is the master switch; the monitor refuses to run when false.
	Enabled bool `toml:"enabled" mapstructure:"enabled"`
	// Name scopes state when a store backend is shared between hosts.
	Name string `toml:"name" mapstructure:"name"`
	// IdleTimeoutSec is the required continuous inactivity, in seconds,
	// before suspension.
	IdleTimeoutSec int `toml:"idle_timeout" mapstructure:"idle_timeout"`
	// CheckIntervalSec is the polling cadence in seconds.
	CheckIntervalSec int `toml:"check_interval" mapstructure:"check_interval"`
	// ServerPort is inspected for established client connections.
	ServerPort int `toml:"server_port" mapstructure:"server_port"`
	// ProcessPattern identifies the supervised process by command line.
	ProcessPattern string `toml:"process_pattern" mapstructure:"process_pattern"`
	// ServerLog is the external log consumed by the probes.
	ServerLog      string `toml:"server_log" mapstructure:"server_log"`
	LogWindowLines int    `toml:"log_window_lines" mapstructure:"log_window_lines"`
	JoinPattern    string `toml:"join_pattern" mapstructure:"join_pattern"`
	LeavePattern   string `toml:"leave_pattern" mapstructure:"leave_pattern"`
	FreshnessSec   int    `toml:"freshness_window" mapstructure:"freshness_window"`
	// StateDSN selects the state store: a directory path (file store),
	// sqlite://<path>, or postgres://...
	StateDSN string `toml:"state_dsn" mapstructure:"state_dsn"`
	// HTTPListen enables the read-only status endpoint when non-empty,
	// e.g. "127.0.0.1:8377".
	HTTPListen string          `toml:"http_listen" mapstructure:"http_listen"`
	Log        logger.Config   `toml:"log" mapstructure:"log"`
	History    hfactory.Config `toml:"history" mapstructure:"history"`
}

func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSec) * time.Second
}

func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSec) * time.Second
}

func (c *Config) FreshnessWindow() time.Duration {
	return time.Duration(c.FreshnessSec) * time.Second
}

// Load reads the optional TOML file at path and applies DORMANT_*
// environment overrides. An empty path loads defaults plus environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	// Every key needs a default, even a zero one: viper only decodes keys it
	// knows about, and AutomaticEnv alone does not register a key.
	v.SetDefault("enabled", false)
	v.SetDefault("name", "dormant")
	v.SetDefault("idle_timeout", DefaultIdleTimeoutSec)
	v.SetDefault("check_interval", DefaultCheckIntervalSec)
	v.SetDefault("server_port", DefaultServerPort)
	v.SetDefault("process_pattern", "")
	v.SetDefault("server_log", "")
	v.SetDefault("log_window_lines", DefaultWindowLines)
	v.SetDefault("join_pattern", DefaultJoinPattern)
	v.SetDefault("leave_pattern", DefaultLeavePattern)
	v.SetDefault("freshness_window", DefaultFreshnessSec)
	v.SetDefault("state_dsn", DefaultStateDir)
	v.SetDefault("http_listen", "")
	v.SetDefault("log.path", "")
	v.SetDefault("log.level", "")
	v.SetDefault("log.color", false)
	v.SetDefault("log.max_size_mb", 0)
	v.SetDefault("log.max_backups", 0)
	v.SetDefault("log.max_age_days", 0)
	v.SetDefault("log.compress", false)
	v.SetDefault("history.dsn", "")
	v.SetDefault("history.clickhouse_addr", "")
	v.SetDefault("history.table", "")

	v.SetEnvPrefix("DORMANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the invariants a running monitor depends on. It is split
// from Load so embedders building a Config in code get the same checks.
func (c *Config) Validate() error {
	if c.IdleTimeoutSec <= 0 {
		return fmt.Errorf("idle_timeout must be positive, got %d", c.IdleTimeoutSec)
	}
	if c.CheckIntervalSec <= 0 {
		return fmt.Errorf("check_interval must be positive, got %d", c.CheckIntervalSec)
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("server_port out of range: %d", c.ServerPort)
	}
	if c.Enabled && c.ProcessPattern == "" {
		return fmt.Errorf("process_pattern is required when enabled")
	}
	if _, err := regexp.Compile(c.JoinPattern); err != nil {
		return fmt.Errorf("invalid join_pattern: %w", err)
	}
	if _, err := regexp.Compile(c.LeavePattern); err != nil {
		return fmt.Errorf("invalid leave_pattern: %w", err)
	}
	if c.StateDSN == "" {
		return fmt.Errorf("state_dsn must not be empty")
	}
	return nil
}
