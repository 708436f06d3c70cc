package recruit

import (
	"fmt"
	"sort"
)

// DraftState carries a job-description drafting workflow.
//
// Scalar fields are last-write-wins: the node that runs last owns the
// value. RevisionCount is incremented only by the draft node.
type DraftState struct {
	// Inputs
	Title     string `json:"title"`
	Brief     string `json:"brief"`
	Reference string `json:"reference,omitempty"`

	// Working draft
	Draft         string `json:"draft,omitempty"`
	Feedback      string `json:"feedback,omitempty"`
	RevisionCount int    `json:"revision_count"`

	// Review control
	Approved    bool `json:"approved"`
	AutoApprove bool `json:"auto_approve"`

	// Terminal
	FinalArtifact string `json:"final_artifact,omitempty"`
}

// Evaluation is one persona's structured verdict on a candidate.
// Once appended to ScreeningState it is never mutated.
type Evaluation struct {
	Role          string   `json:"role"`
	Score         int      `json:"score"`
	Justification string   `json:"justification"`
	Findings      []string `json:"findings,omitempty"`

	// Degraded marks an evaluation synthesized after the model failed
	// to produce conforming output. The score is a mid-range default,
	// not a judgment.
	Degraded bool `json:"degraded,omitempty"`
}

// Validate checks schema conformance beyond JSON shape.
func (e Evaluation) Validate() error {
	if e.Role == "" {
		return fmt.Errorf("evaluation: role is required")
	}
	if e.Score < 0 || e.Score > 100 {
		return fmt.Errorf("evaluation: score %d out of range [0,100]", e.Score)
	}
	if e.Justification == "" {
		return fmt.Errorf("evaluation: justification is required")
	}
	return nil
}

// Critique is the reviewer's assessment of a round of evaluations.
type Critique struct {
	Feedback  string `json:"feedback"`
	Satisfied bool   `json:"satisfied"`
	Iteration int    `json:"iteration"`
}

// ScreeningState carries a candidate shortlisting workflow through
// fan-out evaluation, critique loops, and the shortlist gate.
//
// Evaluations and Critiques are append-only. Branch evaluations are
// concatenated at the join in sorted branch order, so the merged list
// is stable no matter which evaluator finishes first.
type ScreeningState struct {
	// Inputs
	CandidateID    string `json:"candidate_id"`
	CandidateName  string `json:"candidate_name"`
	Profile        string `json:"profile"`
	JobDescription string `json:"job_description"`

	// Accumulated results
	Evaluations []Evaluation `json:"evaluations,omitempty"`
	Critiques   []Critique   `json:"critiques,omitempty"`

	// Per-branch bookkeeping for the current round
	BranchDone map[string]bool `json:"branch_done,omitempty"`

	// Convergence control
	Iteration     int  `json:"iteration"`
	MaxIterations int  `json:"max_iterations"`
	IsSatisfied   bool `json:"is_satisfied"`

	// Shortlist control
	Approved    bool `json:"approved"`
	AutoApprove bool `json:"auto_approve"`

	// Terminal
	FinalScore  int    `json:"final_score,omitempty"`
	FinalReason string `json:"final_reason,omitempty"`
	SendStatus  string `json:"send_status,omitempty"`
}

// Clone hands a branch its own copy with the shared accumulators
// detached, so evaluators never observe each other's appends.
func (s ScreeningState) Clone(branchID string) ScreeningState {
	clone := s
	clone.Evaluations = nil
	clone.Critiques = nil
	clone.BranchDone = map[string]bool{branchID: false}
	return clone
}

// Merge folds branch results back into the fork-point state. Branch
// evaluations are appended in sorted branch ID order; Done flags are
// unioned.
func (s ScreeningState) Merge(branches map[string]ScreeningState) ScreeningState {
	merged := s

	ids := make([]string, 0, len(branches))
	for id := range branches {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	done := make(map[string]bool, len(ids))
	for k, v := range s.BranchDone {
		done[k] = v
	}
	for _, id := range ids {
		branch := branches[id]
		merged.Evaluations = append(merged.Evaluations, branch.Evaluations...)
		for k, v := range branch.BranchDone {
			done[k] = v
		}
	}
	merged.BranchDone = done

	return merged
}

// AllBranchesDone reports whether every tracked branch finished its
// current round.
func (s ScreeningState) AllBranchesDone() bool {
	if len(s.BranchDone) == 0 {
		return false
	}
	for _, done := range s.BranchDone {
		if !done {
			return false
		}
	}
	return true
}

// LatestRound returns the evaluations appended in the most recent
// fan-out round, one per persona role.
func (s ScreeningState) LatestRound(roles int) []Evaluation {
	if roles <= 0 || len(s.Evaluations) < roles {
		return s.Evaluations
	}
	return s.Evaluations[len(s.Evaluations)-roles:]
}
