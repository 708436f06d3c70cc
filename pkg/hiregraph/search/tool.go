package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"unicode/utf8"

	"github.com/talentops/hiregraph/pkg/hiregraph/llm"
)

// MaxResultLen is the maximum length, in runes, of a tool result
// returned to the model. Longer results are truncated.
const MaxResultLen = 800

// NoResults is returned whenever a search fails or yields nothing.
// The model sees a plain statement rather than an error so it can
// carry on without the enrichment.
const NoResults = "no results found"

// ToolName is the name the model uses to request a search.
const ToolName = "web_search"

// Tool adapts a Searcher for model tool use. Errors from the
// underlying searcher are logged and swallowed; the model always
// receives a usable string.
type Tool struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewTool wraps a Searcher. A nil logger discards log output.
func NewTool(s Searcher, logger *slog.Logger) *Tool {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tool{searcher: s, logger: logger}
}

// Definition returns the tool schema advertised to the model.
func (t *Tool) Definition() llm.Tool {
	return llm.Tool{
		Name:        ToolName,
		Description: "Search the web for current information. Returns a short plain-text summary of results.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "The search query"
				}
			},
			"required": ["query"]
		}`),
	}
}

// Run executes the query. It never returns an error: failures and
// empty result sets both produce the NoResults sentinel, and oversized
// results are truncated to MaxResultLen runes.
func (t *Tool) Run(ctx context.Context, query string) string {
	result, err := t.searcher.Search(ctx, query)
	if err != nil {
		t.logger.Warn("search failed", "query", query, "error", err)
		return NoResults
	}
	if result == "" {
		return NoResults
	}
	return Truncate(result, MaxResultLen)
}

// Invoke dispatches a model tool call to Run, decoding the query from
// the call's JSON arguments. Malformed arguments yield NoResults.
func (t *Tool) Invoke(ctx context.Context, call llm.ToolCall) string {
	var args struct {
		Query string `json:"query"`
	}
	if err := call.ParseArguments(&args); err != nil {
		t.logger.Warn("bad search arguments", "error", err)
		return NoResults
	}
	if args.Query == "" {
		return NoResults
	}
	return t.Run(ctx, args.Query)
}

// Truncate shortens s to at most max runes, keeping valid UTF-8.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
