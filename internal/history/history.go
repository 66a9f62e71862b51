package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType defines the kind of monitor lifecycle event.
type EventType string

const (
	EventMonitorStart EventType = "monitor_start"
	EventMonitorStop  EventType = "monitor_stop"
	EventSuspend      EventType = "suspend"
	EventResume       EventType = "resume"
	EventTargetLost   EventType = "target_lost"
)

// Event represents one transition or lifecycle fact to be exported to
// external systems (analytics/statistics). Session ties all events of one
// monitor run together.
type Event struct {
	Type        EventType `json:"type"`
	OccurredAt  time.Time `json:"occurred_at"`
	Session     string    `json:"session"`
	PID         int       `json:"pid"`
	IdleSeconds int64     `json:"idle_seconds"`
}

// NewSession returns a fresh session identifier for one monitor run.
func NewSession() string { return uuid.NewString() }

// Sink is a destination for history events. Send failures are reported to
// the caller but must never block or abort a transition.
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}
