package hiregraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNode_Validation(t *testing.T) {
	t.Run("Empty_ID_Panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewGraph[Counter]().AddNode("", increment)
		})
	})

	t.Run("Reserved_ID_Panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewGraph[Counter]().AddNode("END", increment)
		})
		assert.Panics(t, func() {
			NewGraph[Counter]().AddNode("__end__", increment)
		})
	})

	t.Run("Whitespace_ID_Panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewGraph[Counter]().AddNode("bad id", increment)
		})
	})

	t.Run("Nil_Func_Panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewGraph[Counter]().AddNode("ok", nil)
		})
	})

	t.Run("Duplicate_ID_Panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewGraph[Counter]().
				AddNode("dup", increment).
				AddNode("dup", increment)
		})
	})

	t.Run("Gate_Shares_Node_Namespace", func(t *testing.T) {
		assert.Panics(t, func() {
			NewGraph[State]().
				AddNode("review", passthrough[State]).
				AddGate("review", Gate[State]{})
		})
	})
}

func TestAddConditionalEdge_NilRouterPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewGraph[Counter]().AddConditionalEdge("a", nil)
	})
}

func TestCompile_Validation(t *testing.T) {
	t.Run("No_Entry_Point", func(t *testing.T) {
		_, err := NewGraph[Counter]().
			AddNode("a", increment).
			AddEdge("a", END).
			Compile()
		assert.ErrorIs(t, err, ErrNoEntryPoint)
	})

	t.Run("Entry_Not_Found", func(t *testing.T) {
		_, err := NewGraph[Counter]().
			AddNode("a", increment).
			AddEdge("a", END).
			SetEntry("missing").
			Compile()
		assert.ErrorIs(t, err, ErrEntryNotFound)
	})

	t.Run("Edge_Target_Missing", func(t *testing.T) {
		_, err := NewGraph[Counter]().
			AddNode("a", increment).
			AddEdge("a", "ghost").
			SetEntry("a").
			Compile()
		assert.ErrorIs(t, err, ErrNodeNotFound)
	})

	t.Run("No_Path_To_End", func(t *testing.T) {
		_, err := NewGraph[Counter]().
			AddNode("a", increment).
			AddNode("b", increment).
			AddEdge("a", "b").
			AddEdge("b", "a").
			SetEntry("a").
			Compile()
		assert.ErrorIs(t, err, ErrNoPathToEnd)
	})

	t.Run("Multiple_Errors_Joined", func(t *testing.T) {
		_, err := NewGraph[Counter]().
			AddNode("a", increment).
			AddEdge("a", "ghost").
			Compile()
		assert.ErrorIs(t, err, ErrNoEntryPoint)
		assert.ErrorIs(t, err, ErrNodeNotFound)
	})

	t.Run("Valid_Graph", func(t *testing.T) {
		compiled, err := NewGraph[Counter]().
			AddNode("a", increment).
			AddEdge("a", END).
			SetEntry("a").
			Compile()
		require.NoError(t, err)
		assert.Equal(t, "a", compiled.EntryPoint())
		assert.True(t, compiled.HasNode("a"))
		assert.False(t, compiled.HasNode("b"))
	})
}

func TestCompile_ForkJoinDetection(t *testing.T) {
	compiled, err := NewGraph[FanState]().
		AddNode("dispatch", passthrough[FanState]).
		AddNode("eval_a", passthrough[FanState]).
		AddNode("eval_b", passthrough[FanState]).
		AddNode("collect", passthrough[FanState]).
		AddEdge("dispatch", "eval_a").
		AddEdge("dispatch", "eval_b").
		AddEdge("eval_a", "collect").
		AddEdge("eval_b", "collect").
		AddEdge("collect", END).
		SetEntry("dispatch").
		Compile()
	require.NoError(t, err)

	assert.True(t, compiled.HasParallelExecution())
	assert.True(t, compiled.IsForkNode("dispatch"))
	assert.True(t, compiled.IsJoinNode("collect"))

	fork := compiled.GetForkNode("dispatch")
	require.NotNil(t, fork)
	assert.ElementsMatch(t, []string{"eval_a", "eval_b"}, fork.Branches)
	assert.Equal(t, "collect", fork.JoinNodeID)

	join := compiled.GetJoinNode("collect")
	require.NotNil(t, join)
	assert.Equal(t, "dispatch", join.ForkNodeID)
}

func TestCompile_GateIsNode(t *testing.T) {
	compiled, err := NewGraph[State]().
		AddNode("draft", passthrough[State]).
		AddGate("review", Gate[State]{}).
		AddEdge("draft", "review").
		AddEdge("review", END).
		SetEntry("draft").
		Compile()
	require.NoError(t, err)

	assert.True(t, compiled.HasNode("review"))
	assert.True(t, compiled.IsGate("review"))
	assert.False(t, compiled.IsGate("draft"))
}
