package recruit

import "github.com/talentops/hiregraph/pkg/hiregraph/prompt"

// Prompt template names.
const (
	PromptDraftInitial  = "draft_initial"
	PromptDraftRevision = "draft_revision"
	PromptEvaluation    = "evaluation"
	PromptEvalFinalize  = "evaluation_finalize"
	PromptCritique      = "critique"
)

// DefaultPrompts returns the prompt library used by the workflow
// builders. Callers may register replacements before building.
func DefaultPrompts() *prompt.Library {
	return prompt.NewLibrary(
		prompt.New(PromptDraftInitial,
			`Write a complete job description for the role "${title}".

Hiring brief:
${brief}

Reference material from prior postings:
${reference}

Produce the full posting: summary, responsibilities, requirements, and
benefits sections.`),

		prompt.New(PromptDraftRevision,
			`Revise the job description below. Apply ONLY the changes the
feedback asks for and keep every section the feedback does not mention
exactly as it is.

Current draft:
${draft}

Reviewer feedback:
${feedback}

Return the full revised posting.`),

		prompt.New(PromptEvaluation,
			`Evaluate this candidate against the job description, focusing on
${focus}.

Job description:
${job_description}

Candidate profile:
${profile}

If you need external context, call the available tool. When you have
enough information, answer with a JSON object:
{"role": "${role}", "score": <0-100>, "justification": "<one paragraph>", "findings": ["<finding>", ...]}`),

		prompt.New(PromptEvalFinalize,
			`You have used all available tool calls. Produce your final answer
now from what you already know, as a JSON object:
{"role": "${role}", "score": <0-100>, "justification": "<one paragraph>", "findings": ["<finding>", ...]}`),

		prompt.New(PromptCritique,
			`Review the evaluations below for consistency and completeness.
This is iteration ${iteration} of at most ${max_iterations}.

Candidate: ${candidate_name}

Evaluations:
${evaluations}

Answer with a JSON object:
{"feedback": "<what should be re-examined, if anything>", "satisfied": <true|false>}`),
	)
}
