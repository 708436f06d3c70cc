// Package recruit builds the recruiting workflows on top of the
// hiregraph engine: job-description drafting with human review, and
// multi-persona candidate screening with convergence loops and a
// shortlist gate.
package recruit

import (
	"fmt"

	"github.com/talentops/hiregraph/pkg/hiregraph"
	"github.com/talentops/hiregraph/pkg/hiregraph/config"
	"github.com/talentops/hiregraph/pkg/hiregraph/llm"
	"github.com/talentops/hiregraph/pkg/hiregraph/prompt"
)

// Draft workflow node IDs.
const (
	NodeDraft         = "draft"
	GateReview        = "review"
	NodeFinalizeDraft = "finalize"
)

// DraftDeps wires the drafting workflow's dependencies. Model is
// required; nil collaborators disable their step (no reference
// material, no artifact persistence).
type DraftDeps struct {
	Model      llm.Client
	References ReferenceLibrary
	Artifacts  ArtifactStore
	Prompts    *prompt.Library
	Settings   config.Settings
}

// NewDraftWorkflow builds the job-description drafting graph:
//
//	draft -> review gate -> finalize (approved)
//	              |
//	              +-> draft (rejected, feedback applied)
//
// The review gate suspends unless AutoApprove is set on the state.
func NewDraftWorkflow(deps DraftDeps) (*hiregraph.CompiledGraph[DraftState], error) {
	if deps.Model == nil {
		return nil, fmt.Errorf("draft workflow: model client is required")
	}
	if deps.Prompts == nil {
		deps.Prompts = DefaultPrompts()
	}

	return hiregraph.NewGraph[DraftState]().
		AddNode(NodeDraft, draftNode(deps)).
		AddGate(GateReview, hiregraph.Gate[DraftState]{
			Bypass: func(ctx hiregraph.Context, s DraftState) bool {
				return s.AutoApprove
			},
			Payload: func(ctx hiregraph.Context, s DraftState) any {
				return map[string]any{
					"title":          s.Title,
					"draft":          s.Draft,
					"revision_count": s.RevisionCount,
				}
			},
			Apply: func(ctx hiregraph.Context, s DraftState, d hiregraph.Decision) (DraftState, error) {
				s.Approved = d.Approved
				s.Feedback = d.Feedback
				return s, nil
			},
		}).
		AddNode(NodeFinalizeDraft, finalizeDraftNode(deps)).
		AddEdge(NodeDraft, GateReview).
		AddConditionalEdge(GateReview, func(ctx hiregraph.Context, s DraftState) string {
			if s.Approved {
				return NodeFinalizeDraft
			}
			return NodeDraft
		}).
		AddEdge(NodeFinalizeDraft, hiregraph.END).
		SetEntry(NodeDraft).
		Compile()
}

// draftNode produces the first draft or applies reviewer feedback to
// the current one. It always increments RevisionCount.
func draftNode(deps DraftDeps) hiregraph.NodeFunc[DraftState] {
	return func(ctx hiregraph.Context, s DraftState) (DraftState, error) {
		if s.Reference == "" && deps.References != nil {
			ref, err := deps.References.LoadReferenceMaterial(ctx, s.Title)
			if err != nil {
				ctx.Logger().Warn("reference material unavailable", "error", err)
			} else {
				s.Reference = ref
			}
		}

		var text string
		var err error
		if s.Draft == "" {
			text, err = deps.Prompts.Render(PromptDraftInitial, map[string]any{
				"title":     s.Title,
				"brief":     s.Brief,
				"reference": s.Reference,
			})
		} else {
			text, err = deps.Prompts.Render(PromptDraftRevision, map[string]any{
				"draft":    s.Draft,
				"feedback": s.Feedback,
			})
		}
		if err != nil {
			return s, fmt.Errorf("render draft prompt: %w", err)
		}

		resp, err := llm.CompleteWithRetry(ctx, deps.Model, llm.Request{
			SystemPrompt: "You write clear, specific job descriptions.",
			Messages:     []llm.Message{llm.UserMessage(text)},
			Model:        deps.Settings.Model,
			MaxTokens:    deps.Settings.MaxTokens,
			Temperature:  deps.Settings.Temperature,
		}, retryOptions(deps.Settings)...)
		if err != nil {
			return s, fmt.Errorf("draft generation: %w", err)
		}

		s.Draft = resp.Content
		s.RevisionCount++
		return s, nil
	}
}

// finalizeDraftNode promotes the approved draft to the terminal
// artifact and persists it.
func finalizeDraftNode(deps DraftDeps) hiregraph.NodeFunc[DraftState] {
	return func(ctx hiregraph.Context, s DraftState) (DraftState, error) {
		s.FinalArtifact = s.Draft
		if deps.Artifacts != nil {
			if err := deps.Artifacts.SaveFinalArtifact(ctx, s.Title, s.FinalArtifact); err != nil {
				return s, fmt.Errorf("persist artifact: %w", err)
			}
		}
		ctx.Logger().Info("job description finalized",
			"title", s.Title, "revisions", s.RevisionCount)
		return s, nil
	}
}

// retryOptions translates settings into retry policy options, leaving
// zero values to the package defaults.
func retryOptions(s config.Settings) []llm.RetryOption {
	var opts []llm.RetryOption
	if s.MaxRetries > 0 {
		opts = append(opts, llm.WithMaxRetries(s.MaxRetries))
	}
	if s.BaseDelay > 0 {
		opts = append(opts, llm.WithBaseDelay(s.BaseDelay))
	}
	return opts
}
