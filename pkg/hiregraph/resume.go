package hiregraph

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/talentops/hiregraph/pkg/hiregraph/checkpoint"
	"github.com/talentops/hiregraph/pkg/hiregraph/event"
	"github.com/talentops/hiregraph/pkg/hiregraph/observability"
)

// Resume continues execution from the latest checkpoint of a run.
//
// A run whose latest checkpoint is awaiting input re-enters its gate:
// unless the gate now bypasses, Resume suspends again with a fresh
// *Suspension. Supply the pending decision with ResumeWithDecision
// instead.
//
// Example:
//
//	// Previous run crashed after node B.
//	// Resume continues from node C with state from B's checkpoint.
//	result, err := compiled.Resume(ctx, store, "run-123")
func (cg *CompiledGraph[S]) Resume(ctx Context, store checkpoint.Store, runID string, opts ...ResumeOption) (S, error) {
	var zero S

	if ctx == nil {
		return zero, ErrNilContext
	}

	cfg := resumeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	// Lock the run before reading the store so the checkpoint cannot
	// go stale under a concurrent executor.
	release, err := acquireRun(runID)
	if err != nil {
		return zero, err
	}
	defer release()

	cp, err := latestCheckpoint(store, runID)
	if err != nil {
		return zero, err
	}

	state, err := restoreState[S](cp, &cfg)
	if err != nil {
		return state, err
	}

	startNode := cp.NextNode
	if cfg.replayNode {
		startNode = cp.NodeID
	}

	runCfg := defaultRunConfig()
	runCfg.checkpointStore = store
	runCfg.runID = runID
	runCfg.sequence = cp.Sequence

	return cg.runFrom(ctx, state, startNode, &runCfg)
}

// ResumeFrom continues execution from the checkpoint at a specific
// node rather than the latest one.
func (cg *CompiledGraph[S]) ResumeFrom(ctx Context, store checkpoint.Store, runID, nodeID string, opts ...ResumeOption) (S, error) {
	var zero S

	if ctx == nil {
		return zero, ErrNilContext
	}

	cfg := resumeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	release, err := acquireRun(runID)
	if err != nil {
		return zero, err
	}
	defer release()

	data, err := store.Load(runID, nodeID)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return zero, fmt.Errorf("%w: %s at node %s", ErrNoCheckpoints, runID, nodeID)
		}
		return zero, fmt.Errorf("load checkpoint: %w", err)
	}

	cp, err := decodeCheckpoint(data)
	if err != nil {
		return zero, err
	}

	state, err := restoreState[S](cp, &cfg)
	if err != nil {
		return state, err
	}

	startNode := cp.NextNode
	if cfg.replayNode {
		startNode = nodeID
	}

	if startNode != END && !cg.HasNode(startNode) {
		return zero, fmt.Errorf("%w: %s", ErrInvalidResumeNode, startNode)
	}

	runCfg := defaultRunConfig()
	runCfg.checkpointStore = store
	runCfg.runID = runID
	runCfg.sequence = cp.Sequence

	return cg.runFrom(ctx, state, startNode, &runCfg)
}

// ResumeWithDecision releases a run suspended at a human gate. It
// loads the latest checkpoint, which must be awaiting input, applies
// the decision to the restored state through the gate's Apply
// function, and continues execution past the gate.
//
// The returned state and error follow Run semantics; in particular a
// later gate may suspend again with another *Suspension.
//
// Example:
//
//	result, err := compiled.ResumeWithDecision(ctx, store, "run-123",
//	    hiregraph.Decision{Approved: true, Feedback: "ship it"})
func (cg *CompiledGraph[S]) ResumeWithDecision(ctx Context, store checkpoint.Store, runID string, decision Decision, opts ...RunOption) (S, error) {
	var zero S

	if ctx == nil {
		return zero, ErrNilContext
	}

	runCfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&runCfg)
	}
	runCfg.checkpointStore = store
	runCfg.runID = runID

	// The lock comes first: loading the checkpoint before acquiring
	// the run would let a decision apply to state another executor has
	// already moved past.
	release, err := acquireRun(runID)
	if err != nil {
		return zero, err
	}
	defer release()

	cp, err := latestCheckpoint(store, runID)
	if err != nil {
		return zero, err
	}

	if cp.Status != checkpoint.StatusAwaitingInput {
		return zero, fmt.Errorf("%w: %s (status %s)", ErrNotAwaitingInput, runID, cp.Status)
	}

	gateID := cp.NodeID
	gate, ok := cg.getGate(gateID)
	if !ok {
		return zero, fmt.Errorf("%w: checkpoint gate %s", ErrInvalidResumeNode, gateID)
	}

	var state S
	if err := json.Unmarshal(cp.State, &state); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrDeserializeState, err)
	}

	gateCtx := ctx
	if ec, ok := ctx.(*executionContext); ok {
		gateCtx = ec.withNodeID(gateID)
	}

	state, err = applyGateDecision(gateCtx, gate, state, decision)
	if err != nil {
		return state, &GateError{GateID: gateID, Op: "apply", Err: err}
	}

	observability.LogResume(runCfg.logger, runID, gateID)
	publishEvent(ctx, &runCfg, event.New(event.TypeRunResumed, runID).
		WithNode(gateID).
		WithData("approved", decision.Approved))

	next, err := cg.nextNode(ctx, state, gateID)
	if err != nil {
		return state, err
	}

	runCfg.sequence = cp.Sequence
	status := checkpoint.StatusRunning
	if next == END {
		status = checkpoint.StatusCompleted
	}
	if err := cg.saveCheckpoint(ctx, &runCfg, gateID, cp.PrevNodeID, state, next, status, nil); err != nil {
		return state, err
	}

	result, _, err := cg.runLoop(ctx, ctx, state, next, runID, &runCfg)
	return result, err
}

// latestCheckpoint loads and decodes the highest-sequence checkpoint
// for a run.
func latestCheckpoint(store checkpoint.Store, runID string) (*checkpoint.Checkpoint, error) {
	infos, err := store.List(runID)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCheckpoints, runID)
	}

	latest := infos[len(infos)-1]
	data, err := store.Load(runID, latest.NodeID)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	return decodeCheckpoint(data)
}

func decodeCheckpoint(data []byte) (*checkpoint.Checkpoint, error) {
	cp, err := checkpoint.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserializeState, err)
	}
	if cp.Version != checkpoint.Version {
		return nil, fmt.Errorf("%w: got %d, expected %d",
			ErrCheckpointVersionMismatch, cp.Version, checkpoint.Version)
	}
	return cp, nil
}

// restoreState deserializes checkpointed state and applies any resume
// transforms.
func restoreState[S any](cp *checkpoint.Checkpoint, cfg *resumeConfig) (S, error) {
	var state S
	if err := json.Unmarshal(cp.State, &state); err != nil {
		var zero S
		return zero, fmt.Errorf("%w: %v", ErrDeserializeState, err)
	}

	if cfg.stateOverride != nil {
		modified := cfg.stateOverride(state)
		if typed, ok := modified.(S); ok {
			state = typed
		}
	}

	if cfg.validateState != nil {
		if err := cfg.validateState(state); err != nil {
			return state, fmt.Errorf("state validation failed: %w", err)
		}
	}

	return state, nil
}
