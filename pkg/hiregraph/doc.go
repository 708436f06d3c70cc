/*
Package hiregraph provides graph-based orchestration for agentic
recruiting workflows.

# Overview

hiregraph is a Go library for building and executing directed graphs
where nodes perform work, routers pick data-dependent transitions, and
edges define flow. It is built for long-running model-driven pipelines:
durable checkpoints at every node boundary, parallel evaluator fan-out,
revision loops with convergence routing, and human review gates that
suspend a run until a decision arrives.

# Basic Usage

Create a graph with nodes and edges, then compile and run:

	type State struct {
	    Input  string
	    Output string
	}

	func process(ctx hiregraph.Context, s State) (State, error) {
	    s.Output = "Processed: " + s.Input
	    return s, nil
	}

	func main() {
	    graph := hiregraph.NewGraph[State]().
	        AddNode("process", process).
	        AddEdge("process", hiregraph.END).
	        SetEntry("process")

	    compiled, err := graph.Compile()
	    if err != nil {
	        log.Fatal(err)
	    }

	    ctx := hiregraph.NewContext(context.Background())
	    result, err := compiled.Run(ctx, State{Input: "hello"})
	    if err != nil {
	        log.Fatal(err)
	    }
	    fmt.Println(result.Output)
	}

# Conditional Branching and Loops

Routers back decision points and revision loops:

	graph.AddConditionalEdge("critique", func(ctx hiregraph.Context, s State) string {
	    if s.Score >= 75 || s.Iteration >= 3 {
	        return "finalize"
	    }
	    return "revise" // Loop back
	})

Loops are bounded by max iterations (default 100); exceeding the bound
returns a MaxIterationsError carrying the state at termination.

# Parallel Fan-Out

A node with multiple outgoing simple edges is a fork point. Branches
run concurrently on cloned state and rejoin at the compile-time
detected join node, where the clones are merged:

	graph.AddEdge("dispatch", "evaluate_technical")
	graph.AddEdge("dispatch", "evaluate_hr")
	graph.AddEdge("evaluate_technical", "collect")
	graph.AddEdge("evaluate_hr", "collect")

State types implement ParallelState to control cloning and merging.

# Human Gates

Gates park a run until a reviewer decides:

	graph.AddGate("approval", hiregraph.Gate[State]{
	    Bypass:  func(ctx hiregraph.Context, s State) bool { return s.AutoApprove },
	    Payload: func(ctx hiregraph.Context, s State) any { return s.Draft },
	    Apply: func(ctx hiregraph.Context, s State, d hiregraph.Decision) (State, error) {
	        s.Approved = d.Approved
	        s.Feedback = d.Feedback
	        return s, nil
	    },
	})

	result, err := compiled.Run(ctx, state,
	    hiregraph.WithCheckpointStore(store),
	    hiregraph.WithRunID("run-123"))
	if susp, ok := hiregraph.IsSuspension(err); ok {
	    // surface susp.Payload to the reviewer, then later:
	    result, err = compiled.ResumeWithDecision(ctx, store, "run-123",
	        hiregraph.Decision{Approved: true})
	}

# Checkpointing

Checkpoints are saved after each successful node execution:

	store, _ := checkpoint.NewSQLiteStore("./runs.db")
	defer store.Close()

	result, err := compiled.Run(ctx, state,
	    hiregraph.WithCheckpointStore(store),
	    hiregraph.WithRunID("run-123"))

	// Resume after a crash
	result, err = compiled.Resume(ctx, store, "run-123")

A run ID has at most one active executor; concurrent Run/Resume calls
for the same ID fail with ErrRunActive.

# Model Calls

Steps reach the model gateway through the context:

	func draft(ctx hiregraph.Context, s State) (State, error) {
	    resp, err := llm.CompleteWithRetry(ctx, ctx.Model(), llm.Request{
	        SystemPrompt: "You write job postings.",
	        Messages:     []llm.Message{llm.UserMessage(s.Brief)},
	    })
	    if err != nil {
	        return s, err
	    }
	    s.Draft = resp.Content
	    return s, nil
	}

# Thread Safety

  - Graph[S] is NOT safe for concurrent use during construction
  - CompiledGraph[S] IS safe for concurrent use (immutable)
  - Context IS safe for concurrent use
  - checkpoint.Store implementations are safe for concurrent use

# Subpackages

  - checkpoint: durable run snapshots (memory, SQLite)
  - llm: model gateway, retry policy, structured output
  - search: web search tool adapter for evaluator steps
  - prompt: prompt template rendering
  - event: run lifecycle pub/sub
  - observability: logging, metrics, and tracing helpers
  - config: engine settings from YAML/JSON
*/
package hiregraph
