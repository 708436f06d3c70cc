package hiregraph

import (
	"context"
	"sort"
	"sync"

	"github.com/talentops/hiregraph/pkg/hiregraph/checkpoint"
)

// Test state types used across tests

// Counter is a simple state for testing incrementing.
type Counter struct {
	Value int
}

// State exercises routing, loops, and gate scenarios.
type State struct {
	Step      int
	Progress  []string
	Initial   string
	Draft     string
	Iteration int
	Score     int
	Approved  bool
	Feedback  string
	Auto      bool
	Done      bool
	GoLeft    bool
}

// FanState exercises fork/join with an order-sensitive result list.
type FanState struct {
	Seed    string
	Results []string
}

// Clone gives each branch an empty result list so branches only see
// their own appends.
func (s FanState) Clone(branchID string) FanState {
	clone := s
	clone.Results = nil
	return clone
}

// Merge concatenates branch results in sorted branch order so the
// outcome is independent of completion order.
func (s FanState) Merge(branches map[string]FanState) FanState {
	merged := s
	ids := make([]string, 0, len(branches))
	for id := range branches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		merged.Results = append(merged.Results, branches[id].Results...)
	}
	return merged
}

// Helper node functions

func increment(ctx Context, s Counter) (Counter, error) {
	s.Value++
	return s, nil
}

func passthrough[S any](ctx Context, s S) (S, error) {
	return s, nil
}

func makeTrackingNode(name string, tracker *[]string) NodeFunc[State] {
	return func(ctx Context, s State) (State, error) {
		*tracker = append(*tracker, name)
		s.Progress = append(s.Progress, name)
		return s, nil
	}
}

func makeFailingNode(err error) NodeFunc[State] {
	return func(ctx Context, s State) (State, error) {
		return s, err
	}
}

func makePanicNode(value any) NodeFunc[State] {
	return func(ctx Context, s State) (State, error) {
		panic(value)
	}
}

// testCtx creates a simple test context.
func testCtx() Context {
	return NewContext(context.Background())
}

// recordingStore wraps MemoryStore and records the order nodes were
// checkpointed in.
type recordingStore struct {
	*checkpoint.MemoryStore

	mu    sync.Mutex
	nodes []string
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: checkpoint.NewMemoryStore()}
}

func (r *recordingStore) Save(runID, nodeID string, data []byte) error {
	r.mu.Lock()
	r.nodes = append(r.nodes, nodeID)
	r.mu.Unlock()
	return r.MemoryStore.Save(runID, nodeID, data)
}

func (r *recordingStore) savedNodes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.nodes))
	copy(out, r.nodes)
	return out
}
