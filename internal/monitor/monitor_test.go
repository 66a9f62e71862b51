package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/loykin/dormant/internal/engine"
	"github.com/loykin/dormant/internal/history"
	"github.com/loykin/dormant/internal/store"
)

type fakeCtrl struct {
	mu           sync.Mutex
	pid          int
	locateErr    error
	suspendCalls int
}

func (f *fakeCtrl) Locate() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locateErr != nil {
		return 0, f.locateErr
	}
	return f.pid, nil
}

func (f *fakeCtrl) Suspend(int) error {
	f.mu.Lock()
	f.suspendCalls++
	f.mu.Unlock()
	return nil
}

func (f *fakeCtrl) Resume(int) error { return nil }

func (f *fakeCtrl) Alive(pid int) bool { return pid > 0 }

func (f *fakeCtrl) lose() {
	f.mu.Lock()
	f.locateErr = errors.New("gone")
	f.pid = 0
	f.mu.Unlock()
}

type fakeSignal struct{ active bool }

func (f *fakeSignal) Observe(context.Context) bool { return f.active }

type captureSink struct {
	mu     sync.Mutex
	events []history.Event
}

func (c *captureSink) Send(_ context.Context, e history.Event) error {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
	return nil
}

func (c *captureSink) types() []history.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]history.EventType, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestMonitor(t *testing.T, ctrl *fakeCtrl, sig *fakeSignal, sink history.Sink) (*Monitor, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	if err := st.Init(context.Background(), time.Now()); err != nil {
		t.Fatal(err)
	}
	e := engine.New(engine.Config{
		Store:       st,
		Controller:  ctrl,
		Signal:      sig,
		IdleTimeout: time.Hour,
	})
	m := New(Config{Engine: e, Interval: 10 * time.Millisecond, Sink: sink})
	return m, st
}

func TestRunTerminatesWhenTargetLost(t *testing.T) {
	ctrl := &fakeCtrl{locateErr: errors.New("no match")}
	sink := &captureSink{}
	m, st := newTestMonitor(t, ctrl, &fakeSignal{}, sink)

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("target lost must be a clean exit, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not terminate after target lost")
	}

	// no state mutation on the way out
	if s, _ := st.RunState(context.Background()); s != store.Active {
		t.Fatal("run state mutated after target lost")
	}
	types := sink.types()
	if len(types) < 2 || types[0] != history.EventMonitorStart {
		t.Fatalf("expected start event first, got %v", types)
	}
	var sawLost bool
	for _, typ := range types {
		if typ == history.EventTargetLost {
			sawLost = true
		}
	}
	if !sawLost || types[len(types)-1] != history.EventMonitorStop {
		t.Fatalf("expected target_lost then monitor_stop, got %v", types)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctrl := &fakeCtrl{pid: 100}
	m, st := newTestMonitor(t, ctrl, &fakeSignal{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("cancel must be a clean exit, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop on cancel")
	}
	// shutdown leaves the server as is
	if s, _ := st.RunState(context.Background()); s != store.Active {
		t.Fatal("shutdown must not force a transition")
	}
}

func TestRunRecordsSuspendEvent(t *testing.T) {
	ctrl := &fakeCtrl{pid: 100}
	sink := &captureSink{}
	st := store.NewMemory()
	// seed far in the past so the very first cycle suspends
	if err := st.Init(context.Background(), time.Now().Add(-2*time.Hour)); err != nil {
		t.Fatal(err)
	}
	e := engine.New(engine.Config{
		Store:       st,
		Controller:  ctrl,
		Signal:      &fakeSignal{},
		IdleTimeout: time.Hour,
	})
	m := New(Config{Engine: e, Interval: 10 * time.Millisecond, Sink: sink})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		var sawSuspend bool
		for _, typ := range sink.types() {
			if typ == history.EventSuspend {
				sawSuspend = true
			}
		}
		if sawSuspend {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("suspend event never recorded")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done

	if ctrl.suspendCalls != 1 {
		t.Fatalf("expected exactly one suspend, got %d", ctrl.suspendCalls)
	}
	for _, ev := range sink.events {
		if ev.Session != m.Session() {
			t.Fatalf("event session %q does not match run session %q", ev.Session, m.Session())
		}
	}
}

func TestRunContinuesTicksAfterLoss(t *testing.T) {
	// losing the target mid-run also terminates, not only at startup
	ctrl := &fakeCtrl{pid: 100}
	m, _ := newTestMonitor(t, ctrl, &fakeSignal{active: true}, nil)

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	ctrl.lose()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean exit, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not terminate after mid-run loss")
	}
}
