package factory

import (
	"errors"
	"strings"

	"github.com/loykin/dormant/internal/store"
	pg "github.com/loykin/dormant/internal/store/postgres"
	sq "github.com/loykin/dormant/internal/store/sqlite"
)

// NewFromDSN selects a store implementation based on DSN.
// Supported:
//   - file:     "file:///<dir>" or bare path (treated as a state directory)
//   - sqlite:   "sqlite:///<path>"
//   - postgres: DSN starting with "postgres://" or "postgresql://"
//
// name scopes the state when the backend is shared (postgres).
func NewFromDSN(dsn, name string) (store.Store, error) {
	d := strings.TrimSpace(dsn)
	ld := strings.ToLower(d)
	if ld == "" {
		return nil, errors.New("empty DSN")
	}
	if strings.HasPrefix(ld, "postgres://") || strings.HasPrefix(ld, "postgresql://") {
		return pg.New(d, name)
	}
	if strings.HasPrefix(ld, "sqlite://") {
		path := strings.TrimPrefix(d, "sqlite://")
		return sq.New(path)
	}
	if strings.HasPrefix(ld, "file://") {
		return store.NewFile(strings.TrimPrefix(d, "file://"))
	}
	// default to a plain state directory
	return store.NewFile(d)
}
