package checkpoint

import (
	"encoding/json"
	"time"
)

// Version is the current checkpoint format version.
// Increment when making breaking changes to the checkpoint structure.
const Version = 1

// Status describes what the run was doing when the checkpoint was written.
type Status string

const (
	// StatusRunning marks an ordinary node-boundary checkpoint.
	StatusRunning Status = "running"

	// StatusAwaitingInput marks a checkpoint written at a gate node that
	// suspended the run. The run cannot proceed past this node until an
	// external decision is supplied.
	StatusAwaitingInput Status = "awaiting_input"

	// StatusCompleted marks the checkpoint written when the run reached END.
	StatusCompleted Status = "completed"
)

// Checkpoint is the persisted snapshot of a workflow run.
// It contains everything needed to resume execution: the serialized state
// and the executor's position in the graph.
type Checkpoint struct {
	// Metadata
	Version   int       `json:"version"`
	RunID     string    `json:"run_id"`
	NodeID    string    `json:"node_id"`
	Sequence  int       `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`

	// Execution state
	State    json.RawMessage `json:"state"`
	NextNode string          `json:"next_node"`
	Status   Status          `json:"status"`

	// Payload carries the review fields surfaced to the caller when the
	// run suspended at a gate. Empty unless Status is StatusAwaitingInput.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Execution context
	Attempt    int    `json:"attempt"`
	PrevNodeID string `json:"prev_node_id,omitempty"`
}

// Marshal serializes a checkpoint to JSON.
func (c *Checkpoint) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// Unmarshal deserializes a checkpoint from JSON.
func Unmarshal(data []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// New creates a running checkpoint with the given parameters.
// State must already be JSON-serialized.
func New(runID, nodeID string, sequence int, state []byte, nextNode string) *Checkpoint {
	return &Checkpoint{
		Version:   Version,
		RunID:     runID,
		NodeID:    nodeID,
		Sequence:  sequence,
		Timestamp: time.Now().UTC(),
		State:     state,
		NextNode:  nextNode,
		Status:    StatusRunning,
		Attempt:   1,
	}
}

// WithStatus sets the run status recorded in the checkpoint.
func (c *Checkpoint) WithStatus(status Status) *Checkpoint {
	c.Status = status
	return c
}

// WithPayload attaches a suspension payload. The payload must already be
// JSON-serialized.
func (c *Checkpoint) WithPayload(payload []byte) *Checkpoint {
	c.Payload = payload
	return c
}

// WithAttempt sets the attempt number for retry tracking.
func (c *Checkpoint) WithAttempt(attempt int) *Checkpoint {
	c.Attempt = attempt
	return c
}

// WithPrevNode sets the previous node ID for debugging.
func (c *Checkpoint) WithPrevNode(prevNodeID string) *Checkpoint {
	c.PrevNodeID = prevNodeID
	return c
}
