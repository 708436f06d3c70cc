package hiregraph

import (
	"encoding/json"
	"fmt"
	"time"
)

// ParallelState is an optional interface for state types that need
// custom clone/merge behavior during fan-out execution.
//
// Without it, the executor clones by JSON round-trip and discards
// branch results on merge. Evaluator fan-out depends on Merge, so any
// state flowing through a fork/join should implement this.
//
// Example:
//
//	func (s ScreeningState) Clone(branchID string) ScreeningState {
//	    clone := s
//	    clone.Evaluations = nil
//	    return clone
//	}
//
//	func (s ScreeningState) Merge(branches map[string]ScreeningState) ScreeningState {
//	    merged := s
//	    for _, b := range sortedKeys(branches) {
//	        merged.Evaluations = append(merged.Evaluations, branches[b].Evaluations...)
//	    }
//	    return merged
//	}
type ParallelState[S any] interface {
	// Clone creates an independent copy of the state for a parallel
	// branch identified by branchID.
	Clone(branchID string) S

	// Merge combines the final states of all completed branches. The
	// receiver is the state at the fork point.
	Merge(branches map[string]S) S
}

// BranchHook provides lifecycle callbacks for fork/join execution.
// Hooks are called in order: OnFork per branch, branch nodes execute,
// then OnJoin once all branches complete (OnBranchError for failures).
type BranchHook[S any] interface {
	// OnFork is called before each branch starts. The returned state
	// becomes the branch's initial state. An error aborts the fork.
	OnFork(ctx Context, branchID string, state S) (S, error)

	// OnJoin is called after all branches complete successfully, before
	// the merge. An error fails the whole fork/join.
	OnJoin(ctx Context, branchStates map[string]S) error

	// OnBranchError is called when a branch fails, for cleanup. The
	// error has already been recorded.
	OnBranchError(ctx Context, branchID string, state S, err error)
}

// ForkJoinConfig configures parallel execution behavior. Zero values
// are valid defaults.
type ForkJoinConfig struct {
	// MaxConcurrency limits branches executing simultaneously.
	// 0 = unlimited.
	MaxConcurrency int

	// FailFast cancels remaining branches on the first error.
	// false = wait for all branches (default).
	FailFast bool

	// MergeTimeout bounds the wait for branch completion.
	// 0 = no timeout.
	MergeTimeout time.Duration
}

// DefaultForkJoinConfig returns the default configuration: unlimited
// concurrency, wait for all branches, no timeout.
func DefaultForkJoinConfig() ForkJoinConfig {
	return ForkJoinConfig{}
}

// ForkNode marks a point where execution splits into parallel
// branches, computed at compile time from a node with multiple
// outgoing edges.
type ForkNode struct {
	// NodeID is the fork node.
	NodeID string

	// Branches are the first nodes of each branch.
	Branches []string

	// JoinNodeID is where all branches converge, found by
	// post-dominator analysis at compile time.
	JoinNodeID string
}

// JoinNode marks where parallel branches converge.
type JoinNode struct {
	NodeID           string
	ForkNodeID       string
	ExpectedBranches []string
}

// BranchResult holds the outcome of a single branch execution.
type BranchResult[S any] struct {
	// BranchID identifies the branch (the first node ID).
	BranchID string

	// State is the final state when the branch reached the join point.
	State S

	// Error is set if the branch failed.
	Error error

	// Duration is the branch's wall-clock execution time.
	Duration time.Duration
}

// cloneState copies state for a branch, preferring ParallelState.Clone
// and falling back to a JSON round-trip.
func cloneState[S any](state S, branchID string) (S, error) {
	if ps, ok := any(state).(ParallelState[S]); ok {
		return ps.Clone(branchID), nil
	}

	data, err := json.Marshal(state)
	if err != nil {
		var zero S
		return zero, fmt.Errorf("clone state for branch %s: marshal: %w", branchID, err)
	}

	var clone S
	if err := json.Unmarshal(data, &clone); err != nil {
		var zero S
		return zero, fmt.Errorf("clone state for branch %s: unmarshal: %w", branchID, err)
	}

	return clone, nil
}

// mergeStates combines branch states, preferring ParallelState.Merge.
// Without it the original state is returned unchanged; the branch
// hook's OnJoin is then the only place custom merge logic can live.
func mergeStates[S any](originalState S, branchStates map[string]S) S {
	if ps, ok := any(originalState).(ParallelState[S]); ok {
		return ps.Merge(branchStates)
	}
	return originalState
}
