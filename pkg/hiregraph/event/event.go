// Package event provides pub/sub distribution of workflow run
// lifecycle events. Callers subscribe to observe runs starting,
// suspending at human gates, resuming, and finishing without coupling
// the executor to any particular transport.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Run lifecycle event types.
const (
	TypeRunStarted   = "run.started"
	TypeRunSuspended = "run.suspended"
	TypeRunResumed   = "run.resumed"
	TypeRunCompleted = "run.completed"
	TypeRunFailed    = "run.failed"
	TypeNodeStarted  = "node.started"
	TypeNodeFinished = "node.finished"
)

// Event is a single workflow lifecycle event. Events are immutable
// once published.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	RunID     string         `json:"run_id"`
	NodeID    string         `json:"node_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// New creates an event of the given type for a run. Extra data pairs
// are stored on the event unmodified.
func New(eventType, runID string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RunID:     runID,
		Timestamp: time.Now().UTC(),
	}
}

// WithNode returns a copy of the event annotated with a node ID.
func (e Event) WithNode(nodeID string) Event {
	e.NodeID = nodeID
	return e
}

// WithData returns a copy of the event with one data key set. The
// original event's data map is not modified.
func (e Event) WithData(key string, value any) Event {
	data := make(map[string]any, len(e.Data)+1)
	for k, v := range e.Data {
		data[k] = v
	}
	data[key] = value
	e.Data = data
	return e
}
