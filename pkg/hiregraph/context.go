package hiregraph

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/talentops/hiregraph/pkg/hiregraph/checkpoint"
	"github.com/talentops/hiregraph/pkg/hiregraph/llm"
)

// Context provides execution context to step functions. It extends
// context.Context with engine services and run metadata.
//
// Context is immutable after creation. The executor derives a context
// per node with the node ID set and the logger enriched.
type Context interface {
	context.Context

	// Logger returns the configured logger, enriched with run and node
	// identity. Never returns nil.
	Logger() *slog.Logger

	// Model returns the model gateway client, or nil if not
	// configured. Steps should check for nil before using.
	Model() llm.Client

	// Checkpointer returns the checkpoint store, or nil if not
	// configured.
	Checkpointer() checkpoint.Store

	// RunID returns the unique identifier for this execution run.
	// Auto-generated if not configured.
	RunID() string

	// NodeID returns the current node being executed. Empty before
	// execution starts.
	NodeID() string

	// Attempt returns the retry attempt number (1 = first attempt).
	Attempt() int
}

type executionContext struct {
	context.Context

	logger       *slog.Logger
	model        llm.Client
	checkpointer checkpoint.Store
	runID        string
	nodeID       string
	attempt      int
}

func (c *executionContext) Logger() *slog.Logger {
	return c.logger
}

func (c *executionContext) Model() llm.Client {
	return c.model
}

func (c *executionContext) Checkpointer() checkpoint.Store {
	return c.checkpointer
}

func (c *executionContext) RunID() string {
	return c.runID
}

func (c *executionContext) NodeID() string {
	return c.nodeID
}

func (c *executionContext) Attempt() int {
	return c.attempt
}

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the logger for the context. It is enriched with
// run_id, node_id, and attempt during execution.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		c.logger = logger
	}
}

// WithModel sets the model gateway client for the context.
func WithModel(client llm.Client) ContextOption {
	return func(c *executionContext) {
		c.model = client
	}
}

// WithCheckpointer sets the checkpoint store available to steps. Run
// also uses it as the default store, keyed by the context's run ID,
// when no WithCheckpointStore option is given.
func WithCheckpointer(store checkpoint.Store) ContextOption {
	return func(c *executionContext) {
		c.checkpointer = store
	}
}

// WithContextRunID sets the run identifier for the context. If not
// set, a UUID is generated. This is the identity used for logging and
// tracing; for checkpointing pass WithRunID to Run().
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		c.runID = id
	}
}

// NewContext creates an execution context from a standard context.
//
// Example:
//
//	ctx := hiregraph.NewContext(context.Background(),
//	    hiregraph.WithLogger(logger),
//	    hiregraph.WithModel(client))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
		attempt: 1,
	}

	for _, opt := range opts {
		opt(ec)
	}

	return ec
}

// withNodeID derives a per-node context with an enriched logger.
func (c *executionContext) withNodeID(nodeID string) *executionContext {
	return &executionContext{
		Context:      c.Context,
		logger:       c.logger.With("run_id", c.runID, "node_id", nodeID, "attempt", c.attempt),
		model:        c.model,
		checkpointer: c.checkpointer,
		runID:        c.runID,
		nodeID:       nodeID,
		attempt:      c.attempt,
	}
}
