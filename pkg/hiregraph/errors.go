// Package hiregraph provides a graph-based workflow engine for
// agentic recruiting pipelines: stateful steps, conditional routing,
// parallel fan-out, durable checkpoints, and human review gates.
package hiregraph

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph building and compilation.
var (
	// ErrNoEntryPoint indicates SetEntry() was not called before Compile().
	ErrNoEntryPoint = errors.New("entry point not set")

	// ErrEntryNotFound indicates the entry point references a non-existent node.
	ErrEntryNotFound = errors.New("entry point node not found")

	// ErrNodeNotFound indicates an edge references a non-existent node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoPathToEnd indicates no path exists from the entry point to END.
	ErrNoPathToEnd = errors.New("no path to END from entry")
)

// Sentinel errors for execution.
var (
	// ErrMaxIterations indicates the execution loop exceeded the configured limit.
	ErrMaxIterations = errors.New("exceeded maximum iterations")

	// ErrNilContext indicates Run() was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrInvalidRouterResult indicates a router function returned an empty string.
	ErrInvalidRouterResult = errors.New("router returned empty string")

	// ErrRouterTargetNotFound indicates a router function returned an unknown node ID.
	ErrRouterTargetNotFound = errors.New("router returned unknown node")

	// ErrRunActive indicates a second executor tried to drive a run ID
	// that already has an active executor.
	ErrRunActive = errors.New("run already has an active executor")
)

// Sentinel errors for checkpointing, resume, and gates.
var (
	// ErrRunIDRequired indicates checkpointing was enabled without a run ID.
	ErrRunIDRequired = errors.New("run ID required for checkpointing")

	// ErrDeserializeState indicates state deserialization failed.
	ErrDeserializeState = errors.New("failed to deserialize state")

	// ErrNoCheckpoints indicates no checkpoints exist for the run.
	ErrNoCheckpoints = errors.New("no checkpoints found for run")

	// ErrInvalidResumeNode indicates the resume node doesn't exist in the graph.
	ErrInvalidResumeNode = errors.New("invalid resume node")

	// ErrCheckpointVersionMismatch indicates the checkpoint version is incompatible.
	ErrCheckpointVersionMismatch = errors.New("checkpoint version mismatch")

	// ErrNotAwaitingInput indicates ResumeWithDecision was called on a
	// run whose latest checkpoint is not suspended at a gate.
	ErrNotAwaitingInput = errors.New("run is not awaiting input")

	// ErrStoreRequired indicates a gate suspended without a checkpoint
	// store, so the run cannot be resumed.
	ErrStoreRequired = errors.New("checkpoint store required to suspend at gate")

	// ErrGateInParallel indicates a gate inside a fork branch needed to
	// suspend. Branches have no checkpoint of their own to resume from,
	// so only the bypass path is valid there.
	ErrGateInParallel = errors.New("gate cannot suspend inside a parallel branch")
)

// Suspension is returned from Run when execution parks at a human
// gate. It is an error by type so callers distinguish it from plain
// completion, but it marks a scheduled pause, not a failure: the run's
// checkpoint is awaiting input and the run continues through
// ResumeWithDecision.
type Suspension struct {
	// RunID identifies the suspended run.
	RunID string
	// GateID is the gate node where execution stopped.
	GateID string
	// Payload is the review data the gate surfaced, as produced by the
	// gate's Payload function.
	Payload any
}

// Error implements the error interface.
func (s *Suspension) Error() string {
	return fmt.Sprintf("run %s suspended at gate %s awaiting input", s.RunID, s.GateID)
}

// IsSuspension reports whether err is a gate suspension and returns it.
func IsSuspension(err error) (*Suspension, bool) {
	var s *Suspension
	if errors.As(err, &s) {
		return s, true
	}
	return nil, false
}

// CheckpointError wraps errors from checkpoint operations.
type CheckpointError struct {
	// NodeID is the node where checkpointing failed.
	NodeID string
	// Op is the operation that failed ("save", "load", "serialize").
	Op string
	// Err is the underlying error.
	Err error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s at node %s: %v", e.Op, e.NodeID, e.Err)
}

func (e *CheckpointError) Unwrap() error {
	return e.Err
}

// NodeError wraps an error with node context.
type NodeError struct {
	// NodeID is the identifier of the node that failed.
	NodeID string
	// Op is the operation that failed (e.g., "execute").
	Op string
	// Err is the underlying error from the node.
	Err error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %s: %v", e.NodeID, e.Op, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// PanicError captures panic information from node execution, with the
// stack trace for debugging.
type PanicError struct {
	// NodeID is the identifier of the node that panicked.
	NodeID string
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("node %s panicked: %v", e.NodeID, e.Value)
}

// CancellationError captures the state when execution was cancelled,
// preserving it for recovery.
type CancellationError struct {
	// NodeID is the node that was about to execute or was executing.
	NodeID string
	// State is the state at cancellation (type-assert to the actual type).
	State any
	// Cause is the underlying cancellation cause.
	Cause error
	// WasExecuting is true if cancellation occurred during node execution.
	WasExecuting bool
}

func (e *CancellationError) Error() string {
	if e.WasExecuting {
		return fmt.Sprintf("cancelled during node %s: %v", e.NodeID, e.Cause)
	}
	return fmt.Sprintf("cancelled before node %s: %v", e.NodeID, e.Cause)
}

func (e *CancellationError) Unwrap() error {
	return e.Cause
}

// RouterError wraps errors from conditional edge routing.
type RouterError struct {
	// FromNode is the node with the conditional edge.
	FromNode string
	// Returned is the value the router returned.
	Returned string
	// Err is the underlying error.
	Err error
}

func (e *RouterError) Error() string {
	return fmt.Sprintf("router from %s returned %q: %v", e.FromNode, e.Returned, e.Err)
}

func (e *RouterError) Unwrap() error {
	return e.Err
}

// GateError wraps errors from gate evaluation and decision handling.
type GateError struct {
	// GateID is the gate node involved.
	GateID string
	// Op is the operation that failed ("payload", "apply", "suspend").
	Op string
	// Err is the underlying error.
	Err error
}

func (e *GateError) Error() string {
	return fmt.Sprintf("gate %s: %s: %v", e.GateID, e.Op, e.Err)
}

func (e *GateError) Unwrap() error {
	return e.Err
}

// MaxIterationsError provides context when the loop limit is
// exceeded, including the state at termination.
type MaxIterationsError struct {
	// Max is the configured iteration limit.
	Max int
	// LastNodeID is the node that would have executed next.
	LastNodeID string
	// State is the state at termination (type-assert to the actual type).
	State any
}

func (e *MaxIterationsError) Error() string {
	return fmt.Sprintf("exceeded maximum iterations (%d) at node %s", e.Max, e.LastNodeID)
}

// Unwrap returns ErrMaxIterations for errors.Is support.
func (e *MaxIterationsError) Unwrap() error {
	return ErrMaxIterations
}
