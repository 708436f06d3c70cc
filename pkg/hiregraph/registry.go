package hiregraph

import (
	"fmt"
	"sync"
)

// activeRuns guards the at-most-one-executor-per-run invariant: two
// executors driving the same run ID would interleave checkpoints and
// corrupt resume semantics.
var activeRuns = struct {
	mu   sync.Mutex
	runs map[string]struct{}
}{runs: make(map[string]struct{})}

// acquireRun registers runID as actively executing. Returns
// ErrRunActive when another executor already holds it. An empty runID
// is never tracked.
func acquireRun(runID string) (release func(), err error) {
	if runID == "" {
		return func() {}, nil
	}

	activeRuns.mu.Lock()
	defer activeRuns.mu.Unlock()

	if _, busy := activeRuns.runs[runID]; busy {
		return nil, fmt.Errorf("%w: %s", ErrRunActive, runID)
	}
	activeRuns.runs[runID] = struct{}{}

	return func() {
		activeRuns.mu.Lock()
		defer activeRuns.mu.Unlock()
		delete(activeRuns.runs, runID)
	}, nil
}
