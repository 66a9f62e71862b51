package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/loykin/dormant/internal/store"
)

// DB implements store.Store for SQLite (modernc.org/sqlite driver, CGO-free).
// The whole monitor state lives in a single row so every write is one
// atomic, synchronously committed statement.

type DB struct {
	db *sql.DB
}

// New opens a SQLite database at path. Use ":memory:" for in-memory.
func New(path string) (*DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// busy timeout helps with short concurrent locks
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	// durable commits; the monitor may be killed between cycles
	_, _ = d.Exec("PRAGMA synchronous=FULL;")
	return &DB{db: d}, nil
}

func (s *DB) Init(ctx context.Context, now time.Time) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS monitor_state(
			id INTEGER PRIMARY KEY CHECK(id=1),
			suspended BOOLEAN NOT NULL,
			last_activity INTEGER NOT NULL,
			pid INTEGER NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO monitor_state(id, suspended, last_activity, pid, updated_at)
		VALUES(1, 0, ?, 0, ?)
		ON CONFLICT(id) DO NOTHING;`,
		now.Unix(), time.Now().UTC())
	return err
}

func (s *DB) Close() error { return s.db.Close() }

func (s *DB) RunState(ctx context.Context) (store.RunState, error) {
	var suspended bool
	err := s.db.QueryRowContext(ctx,
		`SELECT suspended FROM monitor_state WHERE id=1;`).Scan(&suspended)
	if err != nil {
		// No row (or unreadable store) reads as Active, never as silently
		// suspended.
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

func (s *DB) MarkSuspended(ctx context.Context) error { return s.setSuspended(ctx, true) }

func (s *DB) MarkActive(ctx context.Context) error { return s.setSuspended(ctx, false) }

func (s *DB) setSuspended(ctx context.Context, v bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE monitor_state SET suspended=?, updated_at=? WHERE id=1;`,
		v, time.Now().UTC())
	return err
}

func (s *DB) LastActivity(ctx context.Context) (time.Time, error) {
	var sec int64
	err := s.db.QueryRowContext(ctx,
		`SELECT last_activity FROM monitor_state WHERE id=1;`).Scan(&sec)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0), nil
}

func (s *DB) SetLastActivity(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE monitor_state SET last_activity=?, updated_at=? WHERE id=1;`,
		t.Unix(), time.Now().UTC())
	return err
}

func (s *DB) CachedPID(ctx context.Context) (int, error) {
	var pid int
	err := s.db.QueryRowContext(ctx,
		`SELECT pid FROM monitor_state WHERE id=1;`).Scan(&pid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return pid, nil
}

func (s *DB) SetCachedPID(ctx context.Context, pid int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE monitor_state SET pid=?, updated_at=? WHERE id=1;`,
		pid, time.Now().UTC())
	return err
}
