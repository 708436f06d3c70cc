package config

import (
	"log/slog"
	"strings"
	"time"
)

// Settings holds the typed engine configuration extracted from a
// Config. Zero-value defaults match the engine's built-in defaults.
type Settings struct {
	// Model is the model identifier passed to the provider.
	Model string

	// MaxTokens caps model response length. Zero uses the provider
	// default.
	MaxTokens int

	// Temperature for model sampling.
	Temperature float64

	// MaxRetries is the total number of model call attempts.
	MaxRetries int

	// BaseDelay seeds the exponential backoff between attempts.
	BaseDelay time.Duration

	// MaxIterations bounds graph execution steps per run.
	MaxIterations int

	// MaxToolCalls bounds tool-use rounds within a single step.
	MaxToolCalls int

	// ScoreThreshold is the minimum average evaluation score that
	// clears a candidate without revision.
	ScoreThreshold float64

	// CheckpointPath is the SQLite checkpoint database path. Empty
	// selects the in-memory store.
	CheckpointPath string

	// SearchEndpoint is the web search backend URL. Empty disables
	// the search tool.
	SearchEndpoint string

	// LogLevel is the slog level name: debug, info, warn, error.
	LogLevel string
}

// SlogLevel maps the LogLevel name to a slog.Level. Unknown or empty
// names fall back to info.
func (s Settings) SlogLevel() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load extracts Settings from a Config. Missing keys take documented
// defaults; the file layout is flat keys under a "workflow" section
// plus a "model" section:
//
//	model:
//	  name: claude-sonnet-4-5
//	  max_tokens: 4096
//	  temperature: 0.2
//	  max_retries: 3
//	  base_delay: 1s
//	workflow:
//	  max_iterations: 50
//	  max_tool_calls: 3
//	  score_threshold: 75
//	  checkpoint_path: runs.db
//	  search_endpoint: https://search.internal/api
//	log_level: info
func Load(c Config) Settings {
	model := c.Sub("model")
	workflow := c.Sub("workflow")

	return Settings{
		Model:          model.String("name", ""),
		MaxTokens:      model.Int("max_tokens", 0),
		Temperature:    model.Float("temperature", 0),
		MaxRetries:     model.Int("max_retries", 3),
		BaseDelay:      model.Duration("base_delay", time.Second),
		MaxIterations:  workflow.Int("max_iterations", 100),
		MaxToolCalls:   workflow.Int("max_tool_calls", 3),
		ScoreThreshold: workflow.Float("score_threshold", 75),
		CheckpointPath: workflow.String("checkpoint_path", ""),
		SearchEndpoint: workflow.String("search_endpoint", ""),
		LogLevel:       c.String("log_level", "info"),
	}
}
