package hiregraph

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/talentops/hiregraph/pkg/hiregraph/checkpoint"
	"github.com/talentops/hiregraph/pkg/hiregraph/event"
	"github.com/talentops/hiregraph/pkg/hiregraph/observability"
	"go.opentelemetry.io/otel/trace"
)

// Run executes the graph with the given initial state.
//
// On success, returns the state after the last node executed before
// END. On failure, returns the state at the point of failure. When a
// human gate suspends the run, the error is a *Suspension and the
// returned state is the state at the gate; the run continues later
// through ResumeWithDecision.
//
// Execution flow:
//  1. Start at the entry point node
//  2. Check for cancellation
//  3. Execute the current node (or evaluate the gate)
//  4. Fan out and rejoin if the node is a fork point
//  5. Determine the next node via simple or conditional edge
//  6. Repeat until END
//
// At most one executor may drive a given run ID at a time; a second
// concurrent Run or Resume for the same run ID fails with ErrRunActive.
func (cg *CompiledGraph[S]) Run(ctx Context, state S, opts ...RunOption) (result S, runErr error) {
	if ctx == nil {
		return state, ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	// A store on the context is the default; WithCheckpointStore
	// overrides it. The context's run ID comes along with it so the
	// checkpoints land under the identity the caller configured.
	if cfg.checkpointStore == nil {
		if store := ctx.Checkpointer(); store != nil {
			cfg.checkpointStore = store
			if cfg.runID == "" {
				cfg.runID = ctx.RunID()
			}
		}
	}

	if cfg.checkpointStore != nil && cfg.runID == "" {
		return state, ErrRunIDRequired
	}

	runID := cfg.runID
	if runID == "" {
		runID = ctx.RunID()
	}

	release, err := acquireRun(runID)
	if err != nil {
		return state, err
	}
	defer release()

	startTime := time.Now()
	observability.LogRunStart(cfg.logger, runID)
	publishEvent(ctx, &cfg, event.New(event.TypeRunStarted, runID))

	var execCtx context.Context = ctx
	var runSpan trace.Span
	if cfg.tracingEnabled {
		execCtx, runSpan = cfg.spans.StartRunSpan(ctx, "hiregraph", runID)
		defer func() {
			cfg.spans.EndSpanWithError(runSpan, runErr)
		}()
	}

	var nodeCount int
	result, nodeCount, runErr = cg.runLoop(execCtx, ctx, state, cg.entryPoint, runID, &cfg)

	duration := time.Since(startTime)
	durationMs := float64(duration.Milliseconds())

	if susp, ok := IsSuspension(runErr); ok {
		observability.LogSuspend(cfg.logger, runID, susp.GateID)
		return result, runErr
	}

	cfg.metrics.RecordRun(ctx, runErr == nil, duration)

	if runErr != nil {
		lastNode := ""
		switch e := runErr.(type) {
		case *NodeError:
			lastNode = e.NodeID
		case *MaxIterationsError:
			lastNode = e.LastNodeID
		case *CancellationError:
			lastNode = e.NodeID
		}
		observability.LogRunError(cfg.logger, runID, runErr, durationMs, lastNode)
		publishEvent(ctx, &cfg, event.New(event.TypeRunFailed, runID).
			WithNode(lastNode).
			WithData("error", runErr.Error()))
	} else {
		observability.LogRunComplete(cfg.logger, runID, durationMs, nodeCount)
		publishEvent(ctx, &cfg, event.New(event.TypeRunCompleted, runID).
			WithData("nodes_executed", nodeCount))
	}

	return result, runErr
}

// runFrom executes from a specific node without run-level
// observability. Used by the resume entry points.
func (cg *CompiledGraph[S]) runFrom(ctx Context, state S, startNode string, cfg *runConfig) (S, error) {
	runID := cfg.runID
	if runID == "" {
		runID = ctx.RunID()
	}
	result, _, err := cg.runLoop(ctx, ctx, state, startNode, runID, cfg)
	return result, err
}

// runLoop drives execution from startNode until END, a failure, or a
// gate suspension. tracingCtx carries span context; hgCtx is the
// engine Context handed to steps.
func (cg *CompiledGraph[S]) runLoop(tracingCtx context.Context, hgCtx Context, state S, startNode, runID string, cfg *runConfig) (S, int, error) {
	current := startNode
	prevNode := ""
	iterations := 0
	nodeCount := 0

	for current != END {
		iterations++
		if iterations > cfg.maxIterations {
			return state, nodeCount, &MaxIterationsError{
				Max:        cfg.maxIterations,
				LastNodeID: current,
				State:      state,
			}
		}

		select {
		case <-hgCtx.Done():
			return state, nodeCount, &CancellationError{
				NodeID: current,
				State:  state,
				Cause:  hgCtx.Err(),
			}
		default:
		}

		// Gates intercept execution before the node function.
		if gate, ok := cg.getGate(current); ok {
			newState, next, susp, err := cg.evaluateGate(hgCtx, gate, current, prevNode, state, runID, cfg)
			if err != nil {
				return state, nodeCount, err
			}
			if susp != nil {
				return newState, nodeCount, susp
			}
			state = newState
			prevNode = current
			current = next
			nodeCount++
			continue
		}

		observability.LogNodeStart(cfg.logger, current)
		publishEvent(hgCtx, cfg, event.New(event.TypeNodeStarted, runID).WithNode(current))

		nodeTracingCtx := tracingCtx
		var nodeSpan trace.Span
		if cfg.tracingEnabled {
			nodeTracingCtx, nodeSpan = cfg.spans.StartNodeSpan(tracingCtx, current)
		}

		nodeStart := time.Now()
		var nodeErr error
		state, nodeErr = cg.executeNode(hgCtx, current, state)
		nodeDuration := time.Since(nodeStart)

		cfg.metrics.RecordNodeExecution(nodeTracingCtx, current, nodeDuration, nodeErr)
		if cfg.tracingEnabled {
			cfg.spans.EndSpanWithError(nodeSpan, nodeErr)
		}

		if nodeErr != nil {
			observability.LogNodeError(cfg.logger, current, nodeErr)
			return state, nodeCount, nodeErr
		}
		observability.LogNodeComplete(cfg.logger, current, float64(nodeDuration.Milliseconds()))
		publishEvent(hgCtx, cfg, event.New(event.TypeNodeFinished, runID).WithNode(current))
		nodeCount++

		// Fork points fan out after the fork node itself has run.
		var next string
		if forkNode := cg.GetForkNode(current); forkNode != nil {
			merged, joinNode, forkErr := cg.executeForkJoin(hgCtx, forkNode, state, cfg)
			if forkErr != nil {
				return state, nodeCount, forkErr
			}
			state = merged
			next = joinNode
			if next == "" {
				next = END
			}
		} else {
			var routeErr error
			next, routeErr = cg.nextNode(hgCtx, state, current)
			if routeErr != nil {
				return state, nodeCount, routeErr
			}
		}

		if cfg.checkpointStore != nil {
			status := checkpoint.StatusRunning
			if next == END {
				status = checkpoint.StatusCompleted
			}
			if err := cg.saveCheckpoint(hgCtx, cfg, current, prevNode, state, next, status, nil); err != nil {
				return state, nodeCount, err
			}
		}

		prevNode = current
		current = next
	}

	return state, nodeCount, nil
}

// evaluateGate handles a gate node. Returns either the post-gate state
// and next node (bypass), or a *Suspension after persisting an
// awaiting-input checkpoint.
func (cg *CompiledGraph[S]) evaluateGate(ctx Context, gate Gate[S], gateID, prevNode string, state S, runID string, cfg *runConfig) (S, string, *Suspension, error) {
	gateCtx := ctx
	if ec, ok := ctx.(*executionContext); ok {
		gateCtx = ec.withNodeID(gateID)
	}

	if gate.Bypass != nil && gate.Bypass(gateCtx, state) {
		newState, err := applyGateDecision(gateCtx, gate, state, Decision{Approved: true})
		if err != nil {
			return state, "", nil, &GateError{GateID: gateID, Op: "apply", Err: err}
		}

		next, routeErr := cg.nextNode(ctx, newState, gateID)
		if routeErr != nil {
			return newState, "", nil, routeErr
		}

		if cfg.checkpointStore != nil {
			status := checkpoint.StatusRunning
			if next == END {
				status = checkpoint.StatusCompleted
			}
			if err := cg.saveCheckpoint(ctx, cfg, gateID, prevNode, newState, next, status, nil); err != nil {
				return newState, "", nil, err
			}
		}

		gateCtx.Logger().Debug("gate bypassed", "gate_id", gateID)
		return newState, next, nil, nil
	}

	// Suspension path. Without a store the run could never be resumed,
	// so treat a missing store as a configuration error.
	if cfg.checkpointStore == nil {
		return state, "", nil, &GateError{GateID: gateID, Op: "suspend", Err: ErrStoreRequired}
	}

	var payload any
	if gate.Payload != nil {
		payload = gate.Payload(gateCtx, state)
	}

	var payloadJSON []byte
	if payload != nil {
		var err error
		payloadJSON, err = json.Marshal(payload)
		if err != nil {
			return state, "", nil, &GateError{GateID: gateID, Op: "payload", Err: err}
		}
	}

	// NextNode points back at the gate so a plain Resume re-enters it
	// and re-suspends until a decision arrives.
	if err := cg.saveCheckpoint(ctx, cfg, gateID, prevNode, state, gateID, checkpoint.StatusAwaitingInput, payloadJSON); err != nil {
		return state, "", nil, err
	}

	cfg.metrics.RecordSuspension(ctx, gateID)
	publishEvent(ctx, cfg, event.New(event.TypeRunSuspended, runID).WithNode(gateID))

	return state, "", &Suspension{RunID: runID, GateID: gateID, Payload: payload}, nil
}

// applyGateDecision folds a decision into state via the gate's Apply
// function, if any.
func applyGateDecision[S any](ctx Context, gate Gate[S], state S, decision Decision) (S, error) {
	if gate.Apply == nil {
		return state, nil
	}
	return gate.Apply(ctx, state, decision)
}

// saveCheckpoint persists the state after a node boundary. Suspension
// checkpoints always fail the run on error regardless of
// checkpointFailureFatal, since losing them would strand the gate.
func (cg *CompiledGraph[S]) saveCheckpoint(ctx Context, cfg *runConfig, nodeID, prevNodeID string, state S, nextNode string, status checkpoint.Status, payload []byte) error {
	fatal := cfg.checkpointFailureFatal || status == checkpoint.StatusAwaitingInput

	stateBytes, err := json.Marshal(state)
	if err != nil {
		if fatal {
			return &CheckpointError{NodeID: nodeID, Op: "serialize", Err: err}
		}
		observability.LogCheckpointError(cfg.logger, nodeID, "serialize", err)
		return nil
	}

	cfg.sequence++
	cp := checkpoint.New(cfg.runID, nodeID, cfg.sequence, stateBytes, nextNode).
		WithPrevNode(prevNodeID).
		WithStatus(status)
	if payload != nil {
		cp = cp.WithPayload(payload)
	}
	if ec, ok := ctx.(*executionContext); ok {
		cp = cp.WithAttempt(ec.attempt)
	}

	data, err := cp.Marshal()
	if err != nil {
		if fatal {
			return &CheckpointError{NodeID: nodeID, Op: "marshal", Err: err}
		}
		observability.LogCheckpointError(cfg.logger, nodeID, "marshal", err)
		return nil
	}

	if err := cfg.checkpointStore.Save(cfg.runID, nodeID, data); err != nil {
		if fatal {
			return &CheckpointError{NodeID: nodeID, Op: "save", Err: err}
		}
		observability.LogCheckpointError(cfg.logger, nodeID, "save", err)
		return nil
	}

	observability.LogCheckpoint(cfg.logger, nodeID, len(data))
	cfg.metrics.RecordCheckpoint(ctx, nodeID, int64(len(data)))

	return nil
}

// executeNode runs a single step with panic recovery.
func (cg *CompiledGraph[S]) executeNode(ctx Context, nodeID string, state S) (result S, err error) {
	fn, exists := cg.getNode(nodeID)
	if !exists {
		// Unreachable if compilation succeeded.
		return state, &NodeError{
			NodeID: nodeID,
			Op:     "lookup",
			Err:    fmt.Errorf("node not found: %s", nodeID),
		}
	}

	nodeCtx := ctx
	if ec, ok := ctx.(*executionContext); ok {
		nodeCtx = ec.withNodeID(nodeID)
	}

	defer func() {
		if r := recover(); r != nil {
			result = state
			err = &PanicError{
				NodeID: nodeID,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()

	result, err = fn(nodeCtx, state)
	if err != nil {
		return result, &NodeError{
			NodeID: nodeID,
			Op:     "execute",
			Err:    err,
		}
	}

	return result, nil
}

// nextNode determines the successor of current. Conditional edges take
// precedence over simple edges.
func (cg *CompiledGraph[S]) nextNode(ctx Context, state S, current string) (string, error) {
	if router, exists := cg.getRouter(current); exists {
		routerCtx := ctx
		if ec, ok := ctx.(*executionContext); ok {
			routerCtx = ec.withNodeID(current)
		}

		next := router(routerCtx, state)

		if next == "" {
			return "", &RouterError{
				FromNode: current,
				Returned: next,
				Err:      ErrInvalidRouterResult,
			}
		}
		if next != END {
			if _, exists := cg.getNode(next); !exists {
				return "", &RouterError{
					FromNode: current,
					Returned: next,
					Err:      ErrRouterTargetNotFound,
				}
			}
		}

		return next, nil
	}

	edges := cg.getEdges(current)
	if len(edges) == 0 {
		// Unreachable if compilation succeeded.
		return "", &NodeError{
			NodeID: current,
			Op:     "routing",
			Err:    fmt.Errorf("no outgoing edge from node %s", current),
		}
	}

	// Single successor for sequential flow; multiple simple edges are
	// fork points handled by the caller.
	return edges[0], nil
}

// publishEvent sends a lifecycle event when a bus is configured.
// Delivery is best effort: a failed publish never fails the run.
func publishEvent(ctx context.Context, cfg *runConfig, evt event.Event) {
	if cfg.eventBus == nil {
		return
	}
	if err := cfg.eventBus.Publish(ctx, evt); err != nil && cfg.logger != nil {
		cfg.logger.Debug("event publish failed",
			"event_type", evt.Type, "error", err)
	}
}
