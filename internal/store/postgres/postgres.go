package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/loykin/dormant/internal/store"
)

// DB implements store.Store for PostgreSQL via the pgx stdlib driver. Useful
// when several hosts share one database server for their monitor state; each
// monitor still owns exactly one row keyed by name.

type DB struct {
	db   *sql.DB
	name string
}

// New opens a postgres store. name scopes the row to one supervised process.
func New(dsn, name string) (*DB, error) {
	if name == "" {
		return nil, errors.New("postgres store requires a name")
	}
	d, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DB{db: d, name: name}, nil
}

func (p *DB) Init(ctx context.Context, now time.Time) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS monitor_state(
			name TEXT PRIMARY KEY,
			suspended BOOLEAN NOT NULL,
			last_activity BIGINT NOT NULL,
			pid INTEGER NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
	}
	for _, q := range stmts {
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO monitor_state(name, suspended, last_activity, pid, updated_at)
		VALUES($1, false, $2, 0, $3)
		ON CONFLICT(name) DO NOTHING;`,
		p.name, now.Unix(), time.Now().UTC())
	return err
}

func (p *DB) Close() error { return p.db.Close() }

func (p *DB) RunState(ctx context.Context) (store.RunState, error) {
	var suspended bool
	err := p.db.QueryRowContext(ctx,
		`SELECT suspended FROM monitor_state WHERE name=$1;`, p.name).Scan(&suspended)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Active, nil
		}
		return store.Active, err
	}
	if suspended {
		return store.Suspended, nil
	}
	return store.Active, nil
}

func (p *DB) MarkSuspended(ctx context.Context) error { return p.setSuspended(ctx, true) }

func (p *DB) MarkActive(ctx context.Context) error { return p.setSuspended(ctx, false) }

func (p *DB) setSuspended(ctx context.Context, v bool) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE monitor_state SET suspended=$1, updated_at=$2 WHERE name=$3;`,
		v, time.Now().UTC(), p.name)
	return err
}

func (p *DB) LastActivity(ctx context.Context) (time.Time, error) {
	var sec int64
	err := p.db.QueryRowContext(ctx,
		`SELECT last_activity FROM monitor_state WHERE name=$1;`, p.name).Scan(&sec)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0), nil
}

func (p *DB) SetLastActivity(ctx context.Context, t time.Time) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE monitor_state SET last_activity=$1, updated_at=$2 WHERE name=$3;`,
		t.Unix(), time.Now().UTC(), p.name)
	return err
}

func (p *DB) CachedPID(ctx context.Context) (int, error) {
	var pid int
	err := p.db.QueryRowContext(ctx,
		`SELECT pid FROM monitor_state WHERE name=$1;`, p.name).Scan(&pid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return pid, nil
}

func (p *DB) SetCachedPID(ctx context.Context, pid int) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE monitor_state SET pid=$1, updated_at=$2 WHERE name=$3;`,
		pid, time.Now().UTC(), p.name)
	return err
}
