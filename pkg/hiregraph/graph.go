package hiregraph

import (
	"fmt"
	"strings"
	"sync"
)

// Graph is a mutable builder for workflow graphs. Create with
// NewGraph, then chain AddNode, AddEdge, AddGate, and SetEntry calls
// to define the workflow.
//
// Graph is NOT thread-safe during building. Construct it from a single
// goroutine, then Compile() into an immutable CompiledGraph that can
// be shared.
//
// Example:
//
//	graph := hiregraph.NewGraph[DraftState]().
//	    AddNode("draft", draftStep).
//	    AddGate("review", reviewGate).
//	    AddNode("finalize", finalizeStep).
//	    AddEdge("draft", "review").
//	    AddConditionalEdge("review", routeAfterReview).
//	    AddEdge("finalize", hiregraph.END).
//	    SetEntry("draft")
//
//	compiled, err := graph.Compile()
type Graph[S any] struct {
	mu               sync.RWMutex
	nodes            map[string]NodeFunc[S]
	gates            map[string]Gate[S]
	edges            map[string][]string
	conditionalEdges map[string]RouterFunc[S]
	entryPoint       string
	branchHook       BranchHook[S]
	forkJoinConfig   ForkJoinConfig
}

// NewGraph creates a new graph builder for state type S.
func NewGraph[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:            make(map[string]NodeFunc[S]),
		gates:            make(map[string]Gate[S]),
		edges:            make(map[string][]string),
		conditionalEdges: make(map[string]RouterFunc[S]),
	}
}

// AddNode adds a named step to the graph. Returns the graph for
// chaining.
//
// Panics if:
//   - id is empty
//   - id is the reserved word "END" or "__end__" (case-insensitive)
//   - id contains whitespace
//   - fn is nil
//   - id already exists in the graph
func (g *Graph[S]) AddNode(id string, fn NodeFunc[S]) *Graph[S] {
	validateNodeID(id)
	if fn == nil {
		panic("hiregraph: node function cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.registerNodeID(id)
	g.nodes[id] = fn
	return g
}

// AddGate adds a human review gate as a node in the graph. Edges
// route into and out of a gate exactly like a plain node; what differs
// is execution, where the gate may suspend the run awaiting a
// decision. Inside a fork branch a gate can only clear via its bypass
// predicate; a suspension there fails the branch with
// ErrGateInParallel. Returns the graph for chaining.
//
// Panics under the same conditions as AddNode.
func (g *Graph[S]) AddGate(id string, gate Gate[S]) *Graph[S] {
	validateNodeID(id)

	g.mu.Lock()
	defer g.mu.Unlock()

	g.registerNodeID(id)
	g.gates[id] = gate
	// Gates occupy a node slot so edge validation and routing treat
	// them uniformly. The executor intercepts before calling this.
	g.nodes[id] = func(_ Context, state S) (S, error) {
		return state, nil
	}
	return g
}

func validateNodeID(id string) {
	if id == "" {
		panic("hiregraph: node ID cannot be empty")
	}
	idLower := strings.ToLower(id)
	if idLower == "end" || idLower == "__end__" {
		panic("hiregraph: node ID cannot be reserved word 'END'")
	}
	if strings.ContainsAny(id, " \t\n\r") {
		panic("hiregraph: node ID cannot contain whitespace")
	}
}

// registerNodeID panics on duplicates. Caller holds g.mu.
func (g *Graph[S]) registerNodeID(id string) {
	if _, exists := g.nodes[id]; exists {
		panic(fmt.Sprintf("hiregraph: duplicate node ID: %s", id))
	}
}

// AddEdge adds an unconditional edge. The target can be a node ID or
// END. Edge validation happens at Compile() time, so edges can be
// added in any order. Returns the graph for chaining.
func (g *Graph[S]) AddEdge(from, to string) *Graph[S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.edges[from] = append(g.edges[from], to)
	return g
}

// AddConditionalEdge attaches a router that picks the next node at
// runtime. A node can have either simple edges or a conditional edge;
// the conditional edge takes precedence when both are present.
// Returns the graph for chaining.
func (g *Graph[S]) AddConditionalEdge(from string, router RouterFunc[S]) *Graph[S] {
	if router == nil {
		panic("hiregraph: router function cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.conditionalEdges[from] = router
	return g
}

// SetEntry designates the entry point node. Must be called before
// Compile(). Returns the graph for chaining.
func (g *Graph[S]) SetEntry(id string) *Graph[S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.entryPoint = id
	return g
}

// SetBranchHook installs lifecycle callbacks for parallel fork/join
// execution. Returns the graph for chaining.
func (g *Graph[S]) SetBranchHook(hook BranchHook[S]) *Graph[S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.branchHook = hook
	return g
}

// SetForkJoinConfig sets parallel execution behavior. Returns the
// graph for chaining.
func (g *Graph[S]) SetForkJoinConfig(cfg ForkJoinConfig) *Graph[S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.forkJoinConfig = cfg
	return g
}
