package recruit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluation_Validate(t *testing.T) {
	valid := Evaluation{Role: "technical", Score: 80, Justification: "strong"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name string
		eval Evaluation
	}{
		{"Missing_Role", Evaluation{Score: 80, Justification: "x"}},
		{"Score_Too_High", Evaluation{Role: "hr", Score: 101, Justification: "x"}},
		{"Score_Negative", Evaluation{Role: "hr", Score: -1, Justification: "x"}},
		{"Missing_Justification", Evaluation{Role: "hr", Score: 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.eval.Validate())
		})
	}
}

func TestScreeningState_Clone(t *testing.T) {
	s := ScreeningState{
		CandidateID: "c1",
		Profile:     "profile text",
		Evaluations: []Evaluation{{Role: "old", Score: 10, Justification: "stale"}},
		Critiques:   []Critique{{Feedback: "prior", Iteration: 1}},
		BranchDone:  map[string]bool{"evaluate_technical": true},
	}

	clone := s.Clone("evaluate_hr")

	assert.Equal(t, "c1", clone.CandidateID)
	assert.Equal(t, "profile text", clone.Profile)
	assert.Empty(t, clone.Evaluations)
	assert.Empty(t, clone.Critiques)
	assert.Equal(t, map[string]bool{"evaluate_hr": false}, clone.BranchDone)

	// Mutating the clone never touches the original.
	clone.Evaluations = append(clone.Evaluations, Evaluation{Role: "hr"})
	assert.Len(t, s.Evaluations, 1)
	assert.Equal(t, "old", s.Evaluations[0].Role)
}

func TestScreeningState_MergeIsDeterministic(t *testing.T) {
	base := ScreeningState{
		CandidateID: "c1",
		BranchDone: map[string]bool{
			"evaluate_hr":        false,
			"evaluate_technical": false,
		},
	}

	branches := map[string]ScreeningState{
		"evaluate_technical": {
			Evaluations: []Evaluation{{Role: "technical", Score: 90, Justification: "deep"}},
			BranchDone:  map[string]bool{"evaluate_technical": true},
		},
		"evaluate_hr": {
			Evaluations: []Evaluation{{Role: "hr", Score: 70, Justification: "solid"}},
			BranchDone:  map[string]bool{"evaluate_hr": true},
		},
	}

	merged := base.Merge(branches)

	// Sorted branch order regardless of map iteration.
	require.Len(t, merged.Evaluations, 2)
	assert.Equal(t, "hr", merged.Evaluations[0].Role)
	assert.Equal(t, "technical", merged.Evaluations[1].Role)
	assert.True(t, merged.AllBranchesDone())
}

func TestScreeningState_AllBranchesDone(t *testing.T) {
	var empty ScreeningState
	assert.False(t, empty.AllBranchesDone())

	partial := ScreeningState{BranchDone: map[string]bool{"a": true, "b": false}}
	assert.False(t, partial.AllBranchesDone())

	full := ScreeningState{BranchDone: map[string]bool{"a": true, "b": true}}
	assert.True(t, full.AllBranchesDone())
}

func TestScreeningState_LatestRound(t *testing.T) {
	s := ScreeningState{
		Evaluations: []Evaluation{
			{Role: "hr", Score: 40},
			{Role: "technical", Score: 50},
			{Role: "hr", Score: 60},
			{Role: "technical", Score: 70},
		},
	}

	latest := s.LatestRound(2)
	require.Len(t, latest, 2)
	assert.Equal(t, 60, latest[0].Score)
	assert.Equal(t, 70, latest[1].Score)

	// Degenerate sizes fall back to everything.
	assert.Len(t, s.LatestRound(0), 4)
	assert.Len(t, s.LatestRound(10), 4)
}

func TestPersonaRegistry_Defaults(t *testing.T) {
	pr := NewPersonaRegistry()

	assert.Equal(t, []string{RoleHR, RoleTechnical}, pr.Roles())

	tech, ok := pr.Get(RoleTechnical)
	require.True(t, ok)
	assert.True(t, tech.AllowSearch)

	hr, ok := pr.Get(RoleHR)
	require.True(t, ok)
	assert.False(t, hr.AllowSearch)
}

func TestPersonaRegistry_Register(t *testing.T) {
	pr := NewPersonaRegistry()

	err := pr.Register(Persona{Role: "compliance", Focus: "policy adherence"})
	require.NoError(t, err)
	assert.Equal(t, []string{"compliance", RoleHR, RoleTechnical}, pr.Roles())

	assert.Error(t, pr.Register(Persona{}))
}
