package hiregraph

// Decision is the outcome a human (or an automated policy acting on
// their behalf) supplies to release a suspended run.
type Decision struct {
	// Approved reports whether the reviewer accepted the work at the
	// gate. What approval means is up to the gate's Apply function.
	Approved bool `json:"approved"`

	// Feedback carries optional reviewer notes, typically folded into
	// the state for the next revision round.
	Feedback string `json:"feedback,omitempty"`
}

// Gate declares a review checkpoint in the graph. When execution
// reaches a gate node and the bypass predicate does not clear it, the
// run persists an awaiting-input checkpoint, surfaces the gate's
// payload to the caller, and stops. ResumeWithDecision later re-enters
// at the gate, applies the decision to the state, and continues.
//
// All three functions are optional:
//   - nil Bypass never bypasses; the gate always suspends
//   - nil Payload surfaces no review data
//   - nil Apply leaves state unchanged on resume
type Gate[S any] struct {
	// Bypass is evaluated when execution reaches the gate. Returning
	// true clears the gate without suspending; Apply then runs with an
	// approved decision so the state transition matches the reviewed
	// path.
	Bypass func(ctx Context, state S) bool

	// Payload extracts the fields a reviewer needs to decide, for
	// example the draft text and evaluation scores. The value is JSON
	// serialized into the suspension checkpoint.
	Payload func(ctx Context, state S) any

	// Apply folds a decision into the state before execution continues
	// past the gate.
	Apply func(ctx Context, state S, decision Decision) (S, error)
}
