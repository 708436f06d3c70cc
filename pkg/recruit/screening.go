package recruit

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/talentops/hiregraph/pkg/hiregraph"
	"github.com/talentops/hiregraph/pkg/hiregraph/config"
	"github.com/talentops/hiregraph/pkg/hiregraph/llm"
	"github.com/talentops/hiregraph/pkg/hiregraph/prompt"
	"github.com/talentops/hiregraph/pkg/hiregraph/search"
)

// Screening workflow node IDs. Evaluator nodes are named by persona
// role, which also fixes the deterministic merge order at the join.
const (
	NodeDispatch  = "dispatch"
	NodeCollect   = "collect"
	NodeCritique  = "critique"
	GateShortlist = "shortlist"
	NodeNotify    = "notify"
	NodeFinalize  = "finalize_screening"
)

// DegradedScore is the mid-range default recorded when a persona's
// structured output cannot be recovered after retries.
const DegradedScore = 50

// ScreeningDeps wires the screening workflow's dependencies. Model is
// required. Searcher enables the web search tool for personas that
// allow it; nil disables tool use entirely.
type ScreeningDeps struct {
	Model    llm.Client
	Searcher search.Searcher
	Notifier Notifier
	Ingester DocumentIngester
	Personas *PersonaRegistry
	Prompts  *prompt.Library
	Settings config.Settings

	// Recipient receives the shortlist notification.
	Recipient string
}

// NewScreeningWorkflow builds the candidate screening graph:
//
//	dispatch -> {evaluator per persona} -> collect -> critique
//	     ^                                               |
//	     +----------- not satisfied, under cap ----------+
//	                                                     |
//	                                           shortlist gate
//	                                            |         |
//	                                         notify    finalize
//
// Evaluators run in parallel with independent state clones; the
// critique loop repeats until the critique is satisfied or the
// iteration cap is reached. The shortlist gate suspends for a human
// decision unless AutoApprove is set.
func NewScreeningWorkflow(deps ScreeningDeps) (*hiregraph.CompiledGraph[ScreeningState], error) {
	if deps.Model == nil {
		return nil, fmt.Errorf("screening workflow: model client is required")
	}
	if deps.Personas == nil {
		deps.Personas = NewPersonaRegistry()
	}
	if deps.Prompts == nil {
		deps.Prompts = DefaultPrompts()
	}
	personas := deps.Personas.Personas()
	if len(personas) == 0 {
		return nil, fmt.Errorf("screening workflow: at least one persona is required")
	}
	if deps.Searcher == nil && deps.Settings.SearchEndpoint != "" {
		deps.Searcher = search.NewHTTPSearcher(deps.Settings.SearchEndpoint)
	}

	g := hiregraph.NewGraph[ScreeningState]().
		AddNode(NodeDispatch, dispatchNode(deps, personas)).
		AddNode(NodeCollect, collectNode()).
		AddNode(NodeCritique, critiqueNode(deps)).
		AddGate(GateShortlist, shortlistGate()).
		AddNode(NodeNotify, notifyNode(deps)).
		AddNode(NodeFinalize, finalizeScreeningNode(deps))

	for _, p := range personas {
		g.AddNode(evaluatorNodeID(p.Role), evaluatorNode(deps, p))
		g.AddEdge(NodeDispatch, evaluatorNodeID(p.Role))
		g.AddEdge(evaluatorNodeID(p.Role), NodeCollect)
	}

	return g.
		AddEdge(NodeCollect, NodeCritique).
		AddConditionalEdge(NodeCritique, routeAfterCritique(deps.Settings.ScoreThreshold)).
		AddConditionalEdge(GateShortlist, routeAfterGate).
		AddEdge(NodeNotify, hiregraph.END).
		AddEdge(NodeFinalize, hiregraph.END).
		SetEntry(NodeDispatch).
		Compile()
}

func evaluatorNodeID(role string) string {
	return "evaluate_" + role
}

// routeAfterCritique loops back to dispatch until the critique is
// satisfied and the round's average clears the score threshold, or the
// iteration cap is reached. Predicate order is fixed; first match
// wins. Threshold zero disables the score check.
func routeAfterCritique(scoreThreshold float64) hiregraph.RouterFunc[ScreeningState] {
	return func(ctx hiregraph.Context, s ScreeningState) string {
		if s.Iteration >= s.MaxIterations {
			return GateShortlist
		}
		if s.IsSatisfied && float64(latestAverage(s)) >= scoreThreshold {
			return GateShortlist
		}
		return NodeDispatch
	}
}

// latestAverage is the mean score of the most recent evaluation round.
func latestAverage(s ScreeningState) int {
	round := s.LatestRound(len(s.BranchDone))
	if len(round) == 0 {
		return 0
	}
	total := 0
	for _, eval := range round {
		total += eval.Score
	}
	return total / len(round)
}

// routeAfterGate sends approved candidates to notification, everyone
// else straight to finalization.
func routeAfterGate(ctx hiregraph.Context, s ScreeningState) string {
	if s.Approved {
		return NodeNotify
	}
	return NodeFinalize
}

// dispatchNode opens a fan-out round: it validates convergence
// settings, loads the candidate profile if an ingester is wired, and
// resets per-branch bookkeeping for the coming round.
func dispatchNode(deps ScreeningDeps, personas []Persona) hiregraph.NodeFunc[ScreeningState] {
	return func(ctx hiregraph.Context, s ScreeningState) (ScreeningState, error) {
		if s.MaxIterations <= 0 {
			s.MaxIterations = deps.Settings.MaxIterations
		}
		if s.MaxIterations <= 0 {
			return s, fmt.Errorf("dispatch: max iterations must be positive, got %d", s.MaxIterations)
		}

		if s.Profile == "" && deps.Ingester != nil {
			text, err := deps.Ingester.ExtractText(ctx, s.CandidateID)
			if err != nil {
				return s, fmt.Errorf("dispatch: extract candidate profile: %w", err)
			}
			s.Profile = text
		}

		done := make(map[string]bool, len(personas))
		for _, p := range personas {
			done[evaluatorNodeID(p.Role)] = false
		}
		s.BranchDone = done

		ctx.Logger().Info("screening round dispatched",
			"candidate_id", s.CandidateID,
			"iteration", s.Iteration,
			"personas", len(personas))
		return s, nil
	}
}

// evaluatorNode runs one persona's assessment: a bounded tool-use
// loop, then a schema-constrained call producing the structured
// Evaluation. Structured failure after retries degrades to a default
// score rather than failing the branch.
func evaluatorNode(deps ScreeningDeps, p Persona) hiregraph.NodeFunc[ScreeningState] {
	var tool *search.Tool
	if deps.Searcher != nil && p.AllowSearch {
		tool = search.NewTool(deps.Searcher, nil)
	}

	return func(ctx hiregraph.Context, s ScreeningState) (ScreeningState, error) {
		text, err := deps.Prompts.Render(PromptEvaluation, map[string]any{
			"role":            p.Role,
			"focus":           focusOrCritique(p, s),
			"job_description": s.JobDescription,
			"profile":         s.Profile,
		})
		if err != nil {
			return s, fmt.Errorf("evaluator %s: render prompt: %w", p.Role, err)
		}

		messages := []llm.Message{llm.UserMessage(text)}
		eval, err := runEvaluation(ctx, deps, p, tool, messages)
		if err != nil {
			var structErr *llm.StructuredOutputError
			if !errors.As(err, &structErr) {
				return s, fmt.Errorf("evaluator %s: %w", p.Role, err)
			}
			ctx.Logger().Warn("evaluation output did not conform, recording degraded default",
				"role", p.Role, "error", err)
			eval = Evaluation{
				Role:          p.Role,
				Score:         DegradedScore,
				Justification: "evaluation degraded: model output did not conform to the expected schema",
				Degraded:      true,
			}
		}

		s.Evaluations = append(s.Evaluations, eval)
		if s.BranchDone == nil {
			s.BranchDone = make(map[string]bool, 1)
		}
		s.BranchDone[evaluatorNodeID(p.Role)] = true
		return s, nil
	}
}

// focusOrCritique steers a re-evaluation round toward the latest
// critique feedback instead of the persona's default focus.
func focusOrCritique(p Persona, s ScreeningState) string {
	if len(s.Critiques) == 0 {
		return p.Focus
	}
	latest := s.Critiques[len(s.Critiques)-1]
	if latest.Satisfied || latest.Feedback == "" {
		return p.Focus
	}
	return p.Focus + "; additionally address this reviewer feedback: " + latest.Feedback
}

// runEvaluation drives the persona's conversation: up to MaxToolCalls
// tool rounds, then a forced finalization turn, each answer decoded as
// a structured Evaluation.
func runEvaluation(ctx hiregraph.Context, deps ScreeningDeps, p Persona, tool *search.Tool, messages []llm.Message) (Evaluation, error) {
	maxToolCalls := deps.Settings.MaxToolCalls
	if maxToolCalls <= 0 {
		maxToolCalls = 3
	}

	req := llm.Request{
		SystemPrompt: p.SystemPrompt,
		Model:        deps.Settings.Model,
		MaxTokens:    deps.Settings.MaxTokens,
		Temperature:  deps.Settings.Temperature,
	}
	if tool != nil {
		req.Tools = []llm.Tool{tool.Definition()}
	}

	toolCalls := 0
	for {
		req.Messages = messages
		resp, err := llm.CompleteWithRetry(ctx, deps.Model, req, retryOptions(deps.Settings)...)
		if err != nil {
			return Evaluation{}, err
		}

		if !resp.RequestedTool() {
			return decodeEvaluation(resp.Content)
		}

		if tool == nil {
			return Evaluation{}, fmt.Errorf("model requested a tool but none is available")
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			result := tool.Invoke(ctx, call)
			messages = append(messages, llm.ToolResultMessage(call.ID, call.Name, result))
			toolCalls++
		}

		// Hard cap: after the budget is spent the model must answer
		// from what it has.
		if toolCalls >= maxToolCalls {
			final, err := deps.Prompts.Render(PromptEvalFinalize, map[string]any{"role": p.Role})
			if err != nil {
				return Evaluation{}, fmt.Errorf("render finalize prompt: %w", err)
			}
			messages = append(messages, llm.UserMessage(final))
			req.Messages = messages
			req.Tools = nil

			eval, err := llm.Structured[Evaluation](ctx, deps.Model, req, retryOptions(deps.Settings)...)
			if err != nil {
				return Evaluation{}, err
			}
			return eval, nil
		}
	}
}

// decodeEvaluation parses a terminal model answer into an Evaluation.
func decodeEvaluation(content string) (Evaluation, error) {
	jsonStr, err := llm.ExtractJSON(content)
	if err != nil {
		return Evaluation{}, &llm.StructuredOutputError{Raw: content, Err: err}
	}
	var eval Evaluation
	if err := json.Unmarshal([]byte(jsonStr), &eval); err != nil {
		return Evaluation{}, &llm.StructuredOutputError{Raw: content, Err: fmt.Errorf("decode: %w", err)}
	}
	if err := eval.Validate(); err != nil {
		return Evaluation{}, &llm.StructuredOutputError{Raw: content, Err: fmt.Errorf("validate: %w", err)}
	}
	return eval, nil
}

// collectNode is the fan-in barrier. The scheduler only reaches it
// after every branch has merged, so it just asserts the invariant.
func collectNode() hiregraph.NodeFunc[ScreeningState] {
	return func(ctx hiregraph.Context, s ScreeningState) (ScreeningState, error) {
		if !s.AllBranchesDone() {
			return s, fmt.Errorf("collect: reached join with unfinished branches")
		}
		return s, nil
	}
}

// critiqueNode reviews the latest round of evaluations, appends the
// critique, and advances the iteration counter.
func critiqueNode(deps ScreeningDeps) hiregraph.NodeFunc[ScreeningState] {
	return func(ctx hiregraph.Context, s ScreeningState) (ScreeningState, error) {
		roles := len(s.BranchDone)
		text, err := deps.Prompts.Render(PromptCritique, map[string]any{
			"candidate_name": s.CandidateName,
			"iteration":      s.Iteration + 1,
			"max_iterations": s.MaxIterations,
			"evaluations":    formatEvaluations(s.LatestRound(roles)),
		})
		if err != nil {
			return s, fmt.Errorf("critique: render prompt: %w", err)
		}

		type critiqueOutput struct {
			Feedback  string `json:"feedback"`
			Satisfied bool   `json:"satisfied"`
		}

		out, err := llm.Structured[critiqueOutput](ctx, deps.Model, llm.Request{
			SystemPrompt: "You review candidate evaluations for consistency and completeness.",
			Messages:     []llm.Message{llm.UserMessage(text)},
			Model:        deps.Settings.Model,
			MaxTokens:    deps.Settings.MaxTokens,
			Temperature:  deps.Settings.Temperature,
		}, retryOptions(deps.Settings)...)
		if err != nil {
			return s, fmt.Errorf("critique: %w", err)
		}

		s.Iteration++
		s.IsSatisfied = out.Satisfied
		s.Critiques = append(s.Critiques, Critique{
			Feedback:  out.Feedback,
			Satisfied: out.Satisfied,
			Iteration: s.Iteration,
		})

		ctx.Logger().Info("critique recorded",
			"iteration", s.Iteration,
			"satisfied", out.Satisfied)
		return s, nil
	}
}

// shortlistGate suspends for the human shortlist decision. Bypassed
// runs are treated as approved.
func shortlistGate() hiregraph.Gate[ScreeningState] {
	return hiregraph.Gate[ScreeningState]{
		Bypass: func(ctx hiregraph.Context, s ScreeningState) bool {
			return s.AutoApprove
		},
		Payload: func(ctx hiregraph.Context, s ScreeningState) any {
			return map[string]any{
				"candidate_id":   s.CandidateID,
				"candidate_name": s.CandidateName,
				"evaluations":    s.Evaluations,
				"iterations":     s.Iteration,
			}
		},
		Apply: func(ctx hiregraph.Context, s ScreeningState, d hiregraph.Decision) (ScreeningState, error) {
			s.Approved = d.Approved
			if d.Feedback != "" {
				s.FinalReason = d.Feedback
			}
			return s, nil
		},
	}
}

// notifyNode computes the final verdict and sends it. The notifier's
// status is recorded verbatim; delivery failure never rolls back the
// approval.
func notifyNode(deps ScreeningDeps) hiregraph.NodeFunc[ScreeningState] {
	return func(ctx hiregraph.Context, s ScreeningState) (ScreeningState, error) {
		s = computeFinalVerdict(s)

		if deps.Notifier == nil {
			s.SendStatus = "skipped"
			return s, nil
		}

		subject := fmt.Sprintf("Shortlist decision: %s", s.CandidateName)
		body := fmt.Sprintf("Candidate %s scored %d.\n\n%s",
			s.CandidateName, s.FinalScore, s.FinalReason)

		result, err := deps.Notifier.SendEmail(ctx, deps.Recipient, subject, body)
		if err != nil {
			ctx.Logger().Warn("shortlist notification failed",
				"candidate_id", s.CandidateID, "error", err)
			s.SendStatus = "failed: " + err.Error()
			return s, nil
		}

		s.SendStatus = result.Status
		return s, nil
	}
}

// finalizeScreeningNode closes out a run that was not approved for
// notification.
func finalizeScreeningNode(deps ScreeningDeps) hiregraph.NodeFunc[ScreeningState] {
	return func(ctx hiregraph.Context, s ScreeningState) (ScreeningState, error) {
		s = computeFinalVerdict(s)
		ctx.Logger().Info("screening finalized without notification",
			"candidate_id", s.CandidateID,
			"score", s.FinalScore,
			"approved", s.Approved)
		return s, nil
	}
}

// computeFinalVerdict averages the converged evaluations into the
// terminal score and reason. Idempotent.
func computeFinalVerdict(s ScreeningState) ScreeningState {
	if s.FinalScore != 0 || len(s.Evaluations) == 0 {
		return s
	}

	round := s.LatestRound(len(s.BranchDone))
	total := 0
	reasons := make([]string, 0, len(round))
	for _, eval := range round {
		total += eval.Score
		reasons = append(reasons, fmt.Sprintf("%s (%d): %s", eval.Role, eval.Score, eval.Justification))
	}
	s.FinalScore = total / len(round)
	if s.FinalReason == "" {
		s.FinalReason = strings.Join(reasons, "\n")
	}
	return s
}

// formatEvaluations renders evaluations for inclusion in a prompt.
func formatEvaluations(evals []Evaluation) string {
	var b strings.Builder
	for i, eval := range evals {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s] score %d\n%s", eval.Role, eval.Score, eval.Justification)
		if eval.Degraded {
			b.WriteString("\n(degraded: schema-nonconforming output)")
		}
	}
	return b.String()
}
