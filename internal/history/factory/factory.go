package factory

import (
	"errors"

	"github.com/loykin/dormant/internal/history"
	ch "github.com/loykin/dormant/internal/history/clickhouse"
)

// Config selects a history sink. Exactly one of DSN (SQL backends) or
// ClickHouseAddr must be set.
type Config struct {
	DSN            string `mapstructure:"dsn"`
	ClickHouseAddr string `mapstructure:"clickhouse_addr"`
	Table          string `mapstructure:"table"`
}

const defaultTable = "monitor_history"

// New builds the configured sink, or (nil, nil) when history is disabled.
func New(c Config) (history.Sink, error) {
	if c.DSN == "" && c.ClickHouseAddr == "" {
		return nil, nil
	}
	if c.DSN != "" && c.ClickHouseAddr != "" {
		return nil, errors.New("history: set either dsn or clickhouse_addr, not both")
	}
	if c.ClickHouseAddr != "" {
		table := c.Table
		if table == "" {
			table = defaultTable
		}
		return ch.New(c.ClickHouseAddr, table)
	}
	return history.NewSQLSinkFromDSN(c.DSN)
}
