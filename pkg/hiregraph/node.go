package hiregraph

// END is the terminal node identifier. Use it as an edge target to
// mark where the workflow finishes.
const END = "__end__"

// NodeFunc is the signature for all step functions. A step receives
// the execution context and current state, and returns the updated
// state and any error.
//
// State is passed by value. Steps should modify and return a new
// state value, not rely on pointer mutation.
//
// Example:
//
//	func draft(ctx hiregraph.Context, s DraftState) (DraftState, error) {
//	    s.Iteration++
//	    return s, nil
//	}
type NodeFunc[S any] func(ctx Context, state S) (S, error)

// RouterFunc picks the next node from runtime state. It backs
// conditional edges: convergence checks, approval branches, and any
// other data-dependent transition.
//
// The router must return a node ID that exists in the graph, or END.
// An empty string or unknown node ID is a runtime error.
type RouterFunc[S any] func(ctx Context, state S) string
