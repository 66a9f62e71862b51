package store

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store used for tests and embedding scenarios where
// persistence across restarts is not needed.
type Memory struct {
	mu        sync.Mutex
	suspended bool
	last      time.Time
	hasLast   bool
	pid       int
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Init(_ context.Context, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasLast {
		m.last = now
		m.hasLast = true
	}
	return nil
}

func (m *Memory) RunState(_ context.Context) (RunState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.suspended {
		return Suspended, nil
	}
	return Active, nil
}

func (m *Memory) MarkSuspended(_ context.Context) error {
	m.mu.Lock()
	m.suspended = true
	m.mu.Unlock()
	return nil
}

func (m *Memory) MarkActive(_ context.Context) error {
	m.mu.Lock()
	m.suspended = false
	m.mu.Unlock()
	return nil
}

func (m *Memory) LastActivity(_ context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, nil
}

func (m *Memory) SetLastActivity(_ context.Context, t time.Time) error {
	m.mu.Lock()
	m.last = t
	m.hasLast = true
	m.mu.Unlock()
	return nil
}

func (m *Memory) CachedPID(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pid, nil
}

func (m *Memory) SetCachedPID(_ context.Context, pid int) error {
	m.mu.Lock()
	m.pid = pid
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
