// Package checkpoint provides durable snapshots of workflow runs.
//
// A checkpoint is written at every node boundary and carries both the
// serialized workflow state and the executor's position, so a run can be
// recovered after a crash or continued after a human-gate suspension.
package checkpoint

import (
	"errors"
	"time"
)

// Store persists checkpoints keyed by run identifier.
// Implementations must be safe for concurrent use across runs.
type Store interface {
	// Save stores a checkpoint for a run at a specific node.
	// Overwrites if a checkpoint for (runID, nodeID) already exists.
	Save(runID, nodeID string, data []byte) error

	// Load retrieves a checkpoint.
	// Returns ErrNotFound if the checkpoint doesn't exist.
	Load(runID, nodeID string) ([]byte, error)

	// List returns all checkpoints for a run, ordered by sequence.
	// Returns an empty slice (not an error) if the run has no checkpoints.
	List(runID string) ([]Info, error)

	// Delete removes a specific checkpoint.
	// Returns nil if the checkpoint doesn't exist.
	Delete(runID, nodeID string) error

	// DeleteRun removes all checkpoints for a run. Callers use this to
	// discard finished runs or to prune abandoned suspensions; no TTL is
	// enforced here.
	DeleteRun(runID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// NewStore opens the store a configuration names: a SQLite store at
// path, or the in-memory store when path is empty.
func NewStore(path string) (Store, error) {
	if path == "" {
		return NewMemoryStore(), nil
	}
	return NewSQLiteStore(path)
}

// Info provides checkpoint metadata without loading the full state.
type Info struct {
	RunID     string
	NodeID    string
	Sequence  int
	Timestamp time.Time
	Size      int64
}

// Sentinel errors for checkpoint operations.
var (
	// ErrNotFound indicates a checkpoint doesn't exist.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint store closed")
)
