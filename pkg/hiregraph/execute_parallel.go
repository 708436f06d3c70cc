package hiregraph

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// executeForkJoin fans execution out across the fork's branches and
// rejoins at the fork's join node. Each branch runs on its own
// goroutine with an independent clone of the state; once every branch
// arrives at the join point the clones are merged and sequential
// execution continues from the join node.
//
// Checkpoints are not written inside branches. The fork node's
// checkpoint is the resume point for the whole fan-out: a crash during
// parallel execution replays all branches.
func (cg *CompiledGraph[S]) executeForkJoin(
	ctx Context,
	forkNode *ForkNode,
	state S,
	cfg *runConfig,
) (merged S, joinNode string, err error) {
	startTime := time.Now()
	hook := cg.getBranchHook()
	fjConfig := cg.getForkJoinConfig()

	var branchCtx context.Context = ctx
	var cancel context.CancelFunc
	if fjConfig.MergeTimeout > 0 {
		branchCtx, cancel = context.WithTimeout(ctx, fjConfig.MergeTimeout)
		defer cancel()
	}

	// Clone state per branch before any goroutine starts so that an
	// OnFork failure aborts cleanly without partial execution.
	branchStates := make(map[string]S, len(forkNode.Branches))
	for _, branchID := range forkNode.Branches {
		cloned, cloneErr := cloneState(state, branchID)
		if cloneErr != nil {
			return state, "", fmt.Errorf("fork node %s: %w", forkNode.NodeID, cloneErr)
		}

		if hook != nil {
			var hookErr error
			cloned, hookErr = hook.OnFork(ctx, branchID, cloned)
			if hookErr != nil {
				return state, "", fmt.Errorf("fork node %s: OnFork hook for branch %s: %w",
					forkNode.NodeID, branchID, hookErr)
			}
		}

		branchStates[branchID] = cloned
	}

	group, groupCtx := errgroup.WithContext(branchCtx)
	if fjConfig.MaxConcurrency > 0 {
		group.SetLimit(fjConfig.MaxConcurrency)
	}

	// Each goroutine writes only its own slot.
	results := make([]BranchResult[S], len(forkNode.Branches))

	for i, branchID := range forkNode.Branches {
		group.Go(func() error {
			execCtx := ctx
			if ec, ok := ctx.(*executionContext); ok {
				derived := *ec
				derived.Context = groupCtx
				execCtx = &derived
			}

			result := cg.executeBranch(execCtx, branchID, branchStates[branchID], forkNode.JoinNodeID, cfg)
			results[i] = result

			if result.Error != nil {
				if hook != nil {
					hook.OnBranchError(ctx, branchID, result.State, result.Error)
				}
				if fjConfig.FailFast {
					// Cancels groupCtx so sibling branches stop early.
					return result.Error
				}
			}
			return nil
		})
	}

	if waitErr := group.Wait(); waitErr != nil {
		return state, "", &ForkJoinError{
			ForkNodeID: forkNode.NodeID,
			Err:        waitErr,
		}
	}

	successful := make(map[string]S, len(results))
	for _, result := range results {
		if result.Error != nil {
			return state, "", &ForkJoinError{
				ForkNodeID: forkNode.NodeID,
				BranchID:   result.BranchID,
				Err:        result.Error,
			}
		}
		successful[result.BranchID] = result.State
	}

	if hook != nil {
		if joinErr := hook.OnJoin(ctx, successful); joinErr != nil {
			return state, "", fmt.Errorf("fork node %s: OnJoin hook: %w",
				forkNode.NodeID, joinErr)
		}
	}

	merged = mergeStates(state, successful)

	ctx.Logger().Info("fork/join completed",
		"fork_node", forkNode.NodeID,
		"join_node", forkNode.JoinNodeID,
		"branches", len(forkNode.Branches),
		"duration_ms", time.Since(startTime).Milliseconds())

	return merged, forkNode.JoinNodeID, nil
}

// executeBranch runs one branch from its first node until the join
// node or END.
func (cg *CompiledGraph[S]) executeBranch(
	ctx Context,
	branchID string,
	state S,
	joinNodeID string,
	cfg *runConfig,
) BranchResult[S] {
	startTime := time.Now()
	current := branchID
	iterations := 0

	for current != joinNodeID && current != END {
		iterations++
		if iterations > cfg.maxIterations {
			return BranchResult[S]{
				BranchID: branchID,
				State:    state,
				Error: &MaxIterationsError{
					Max:        cfg.maxIterations,
					LastNodeID: current,
					State:      state,
				},
				Duration: time.Since(startTime),
			}
		}

		select {
		case <-ctx.Done():
			return BranchResult[S]{
				BranchID: branchID,
				State:    state,
				Error: &CancellationError{
					NodeID: current,
					State:  state,
					Cause:  ctx.Err(),
				},
				Duration: time.Since(startTime),
			}
		default:
		}

		// Gates intercept here as in the sequential loop, but a branch
		// cannot park the run: there is no per-branch checkpoint to
		// resume from. Bypass clears the gate; anything else fails the
		// branch.
		if gate, ok := cg.getGate(current); ok {
			newState, gateErr := cg.clearBranchGate(ctx, gate, current, state)
			if gateErr != nil {
				return BranchResult[S]{
					BranchID: branchID,
					State:    state,
					Error:    gateErr,
					Duration: time.Since(startTime),
				}
			}
			state = newState
		} else {
			var nodeErr error
			state, nodeErr = cg.executeNode(ctx, current, state)
			if nodeErr != nil {
				return BranchResult[S]{
					BranchID: branchID,
					State:    state,
					Error:    nodeErr,
					Duration: time.Since(startTime),
				}
			}
		}

		next, routeErr := cg.nextNode(ctx, state, current)
		if routeErr != nil {
			return BranchResult[S]{
				BranchID: branchID,
				State:    state,
				Error:    routeErr,
				Duration: time.Since(startTime),
			}
		}

		current = next
	}

	return BranchResult[S]{
		BranchID: branchID,
		State:    state,
		Duration: time.Since(startTime),
	}
}

// clearBranchGate evaluates a gate reached inside a fork branch. Only
// the bypass path can clear it; a gate that would suspend fails the
// branch with ErrGateInParallel.
func (cg *CompiledGraph[S]) clearBranchGate(ctx Context, gate Gate[S], gateID string, state S) (S, error) {
	gateCtx := ctx
	if ec, ok := ctx.(*executionContext); ok {
		gateCtx = ec.withNodeID(gateID)
	}

	if gate.Bypass == nil || !gate.Bypass(gateCtx, state) {
		return state, &GateError{GateID: gateID, Op: "suspend", Err: ErrGateInParallel}
	}

	newState, err := applyGateDecision(gateCtx, gate, state, Decision{Approved: true})
	if err != nil {
		return state, &GateError{GateID: gateID, Op: "apply", Err: err}
	}

	gateCtx.Logger().Debug("gate bypassed in branch", "gate_id", gateID)
	return newState, nil
}

// ForkJoinError represents a failure during fork/join execution.
type ForkJoinError struct {
	ForkNodeID string
	BranchID   string
	Err        error
}

func (e *ForkJoinError) Error() string {
	if e.BranchID != "" {
		return fmt.Sprintf("fork/join error at %s (branch %s): %v", e.ForkNodeID, e.BranchID, e.Err)
	}
	return fmt.Sprintf("fork/join error at %s: %v", e.ForkNodeID, e.Err)
}

func (e *ForkJoinError) Unwrap() error {
	return e.Err
}
