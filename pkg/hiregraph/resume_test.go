package hiregraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentops/hiregraph/pkg/hiregraph/checkpoint"
)

// flakyGraph builds a -> b -> c where node b fails until *healthy is
// set, leaving a checkpoint at node a behind.
func flakyGraph(t *testing.T, healthy *bool) *CompiledGraph[Counter] {
	t.Helper()

	compiled, err := NewGraph[Counter]().
		AddNode("a", increment).
		AddNode("b", func(ctx Context, s Counter) (Counter, error) {
			if !*healthy {
				return s, errors.New("transient outage")
			}
			s.Value++
			return s, nil
		}).
		AddNode("c", increment).
		AddEdge("a", "b").
		AddEdge("b", "c").
		AddEdge("c", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)
	return compiled
}

func TestResume_ContinuesFromLatestCheckpoint(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	healthy := false
	compiled := flakyGraph(t, &healthy)

	_, err := compiled.Run(testCtx(), Counter{},
		WithCheckpointStore(store), WithRunID("run-flaky"))
	var nodeErr *NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "b", nodeErr.NodeID)

	healthy = true
	result, err := compiled.Resume(testCtx(), store, "run-flaky")

	require.NoError(t, err)
	// Node a ran once before the crash; b and c ran on resume. The
	// outcome matches an uninterrupted run.
	assert.Equal(t, 3, result.Value)
}

func TestResume_CheckpointsShareSequence(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	healthy := false
	compiled := flakyGraph(t, &healthy)

	_, err := compiled.Run(testCtx(), Counter{},
		WithCheckpointStore(store), WithRunID("run-seq"))
	require.Error(t, err)

	healthy = true
	_, err = compiled.Resume(testCtx(), store, "run-seq")
	require.NoError(t, err)

	// Resumed checkpoints continue the original numbering.
	infos, err := store.List("run-seq")
	require.NoError(t, err)
	require.Len(t, infos, 3)
	for i, info := range infos {
		assert.Equal(t, i+1, info.Sequence)
	}

	data, err := store.Load("run-seq", "c")
	require.NoError(t, err)
	cp, err := checkpoint.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, checkpoint.StatusCompleted, cp.Status)
}

func TestResume_NoCheckpoints(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	healthy := true
	compiled := flakyGraph(t, &healthy)

	_, err := compiled.Resume(testCtx(), store, "run-unknown")
	assert.ErrorIs(t, err, ErrNoCheckpoints)
}

func TestResume_NilContext(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	healthy := true
	compiled := flakyGraph(t, &healthy)

	_, err := compiled.Resume(nil, store, "run-x")
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestResume_WithReplayNode(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	healthy := true
	compiled := flakyGraph(t, &healthy)

	_, err := compiled.Run(testCtx(), Counter{},
		WithCheckpointStore(store), WithRunID("run-replay"))
	require.NoError(t, err)

	// Replaying from node c re-executes it with its checkpointed
	// input... except the checkpoint holds c's output, so the replay
	// increments once more.
	result, err := compiled.ResumeFrom(testCtx(), store, "run-replay", "c",
		WithReplayNode())
	require.NoError(t, err)
	assert.Equal(t, 4, result.Value)
}

func TestResumeFrom_SpecificNode(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	healthy := true
	compiled := flakyGraph(t, &healthy)

	_, err := compiled.Run(testCtx(), Counter{},
		WithCheckpointStore(store), WithRunID("run-from"))
	require.NoError(t, err)

	// Re-run everything after node a.
	result, err := compiled.ResumeFrom(testCtx(), store, "run-from", "a")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Value)
}

func TestResumeFrom_MissingCheckpoint(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	healthy := true
	compiled := flakyGraph(t, &healthy)

	_, err := compiled.Run(testCtx(), Counter{},
		WithCheckpointStore(store), WithRunID("run-miss"))
	require.NoError(t, err)

	_, err = compiled.ResumeFrom(testCtx(), store, "run-miss", "nonexistent")
	assert.ErrorIs(t, err, ErrNoCheckpoints)
}

func TestResume_StateOverride(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	healthy := false
	compiled := flakyGraph(t, &healthy)

	_, err := compiled.Run(testCtx(), Counter{},
		WithCheckpointStore(store), WithRunID("run-override"))
	require.Error(t, err)

	healthy = true
	result, err := compiled.Resume(testCtx(), store, "run-override",
		WithStateOverride(func(state any) any {
			c := state.(Counter)
			c.Value = 100
			return c
		}))
	require.NoError(t, err)
	// Overridden to 100, then b and c increment.
	assert.Equal(t, 102, result.Value)
}

func TestResume_StateValidation(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	healthy := false
	compiled := flakyGraph(t, &healthy)

	_, err := compiled.Run(testCtx(), Counter{},
		WithCheckpointStore(store), WithRunID("run-validate"))
	require.Error(t, err)

	invalid := errors.New("state out of range")
	_, err = compiled.Resume(testCtx(), store, "run-validate",
		WithStateValidation(func(state any) error {
			return invalid
		}))
	assert.ErrorIs(t, err, invalid)
}

func TestResume_VersionMismatch(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	cp := checkpoint.New("run-old", "a", 1, []byte(`{"Value":1}`), "b")
	cp.Version = checkpoint.Version + 1
	data, err := cp.Marshal()
	require.NoError(t, err)
	require.NoError(t, store.Save("run-old", "a", data))

	healthy := true
	compiled := flakyGraph(t, &healthy)

	_, err = compiled.Resume(testCtx(), store, "run-old")
	assert.ErrorIs(t, err, ErrCheckpointVersionMismatch)
}

func TestResume_RunActiveGuard(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()

	entered := make(chan struct{})
	release := make(chan struct{})

	compiled, err := NewGraph[Counter]().
		AddNode("a", increment).
		AddNode("slow", func(ctx Context, s Counter) (Counter, error) {
			close(entered)
			<-release
			return s, nil
		}).
		AddEdge("a", "slow").
		AddEdge("slow", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, runErr := compiled.Run(testCtx(), Counter{},
			WithCheckpointStore(store), WithRunID("run-guard"))
		done <- runErr
	}()

	<-entered
	_, err = compiled.Resume(testCtx(), store, "run-guard")
	assert.ErrorIs(t, err, ErrRunActive)

	close(release)
	require.NoError(t, <-done)
}
