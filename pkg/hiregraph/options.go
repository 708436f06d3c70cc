package hiregraph

import (
	"log/slog"

	"github.com/talentops/hiregraph/pkg/hiregraph/checkpoint"
	"github.com/talentops/hiregraph/pkg/hiregraph/event"
	"github.com/talentops/hiregraph/pkg/hiregraph/observability"
)

// runConfig holds configuration for graph execution.
type runConfig struct {
	maxIterations int

	// Checkpointing
	checkpointStore        checkpoint.Store
	runID                  string
	sequence               int
	checkpointFailureFatal bool

	// Observability
	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool

	// Lifecycle events
	eventBus event.Bus
}

// defaultRunConfig returns the default execution configuration.
func defaultRunConfig() runConfig {
	return runConfig{
		maxIterations: 100,
		metrics:       observability.NoopMetrics{},
		spans:         observability.NoopSpanManager{},
	}
}

// RunOption configures execution behavior.
type RunOption func(*runConfig)

// WithMaxIterations sets the maximum number of node executions per
// run. Default: 100.
//
// Cyclic graphs rely on this bound: a revision loop that never
// converges terminates with a MaxIterationsError instead of spinning.
func WithMaxIterations(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithCheckpointStore enables checkpoint persistence to the given
// store. Requires WithRunID.
func WithCheckpointStore(store checkpoint.Store) RunOption {
	return func(c *runConfig) {
		c.checkpointStore = store
	}
}

// WithRunID sets the run identifier used for checkpointing.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithCheckpointFailureFatal makes checkpoint save failures abort the
// run instead of being logged and skipped. Default: false.
func WithCheckpointFailureFatal(fatal bool) RunOption {
	return func(c *runConfig) {
		c.checkpointFailureFatal = fatal
	}
}

// WithRunLogger sets the logger for run-level and node-level logging.
func WithRunLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder for the run.
func WithMetrics(m observability.MetricsRecorder) RunOption {
	return func(c *runConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing enables span creation through the given span manager.
func WithTracing(sm observability.SpanManager) RunOption {
	return func(c *runConfig) {
		if sm != nil {
			c.spans = sm
			c.tracingEnabled = true
		}
	}
}

// WithEventBus publishes run lifecycle events to the given bus:
// run.started, run.suspended, run.resumed, run.completed, run.failed,
// and per-node node.started / node.finished.
func WithEventBus(bus event.Bus) RunOption {
	return func(c *runConfig) {
		c.eventBus = bus
	}
}

// resumeConfig holds configuration for resume operations.
type resumeConfig struct {
	stateOverride func(any) any
	validateState func(any) error
	replayNode    bool
}

// ResumeOption configures resume behavior.
type ResumeOption func(*resumeConfig)

// WithStateOverride transforms the restored state before execution
// continues. The function receives and must return the state type of
// the graph being resumed.
func WithStateOverride(fn func(state any) any) ResumeOption {
	return func(c *resumeConfig) {
		c.stateOverride = fn
	}
}

// WithStateValidation validates the restored state before execution
// continues. A non-nil error aborts the resume.
func WithStateValidation(fn func(state any) error) ResumeOption {
	return func(c *resumeConfig) {
		c.validateState = fn
	}
}

// WithReplayNode re-executes the checkpointed node instead of
// continuing from its successor.
func WithReplayNode() ResumeOption {
	return func(c *resumeConfig) {
		c.replayNode = true
	}
}
