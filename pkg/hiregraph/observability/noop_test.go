package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoopMetrics(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordNodeExecution(ctx, "draft", time.Second, nil)
		m.RecordNodeExecution(ctx, "draft", time.Second, errors.New("x"))
		m.RecordRun(ctx, true, time.Second)
		m.RecordSuspension(ctx, "approval")
		m.RecordModelCall(ctx, time.Second, true, nil)
		m.RecordCheckpoint(ctx, "draft", 1024)
	})
}

func TestNoopSpanManager(t *testing.T) {
	var sm SpanManager = NoopSpanManager{}
	ctx := context.Background()

	runCtx, runSpan := sm.StartRunSpan(ctx, "screening", "run-1")
	assert.Equal(t, ctx, runCtx)
	assert.NotNil(t, runSpan)

	nodeCtx, nodeSpan := sm.StartNodeSpan(ctx, "critique")
	assert.Equal(t, ctx, nodeCtx)
	assert.NotNil(t, nodeSpan)

	assert.NotPanics(t, func() {
		sm.EndSpanWithError(runSpan, errors.New("x"))
		sm.EndSpanWithError(nodeSpan, nil)
		sm.AddSpanEvent(ctx, "gate.decided", attribute.Bool("approved", true))
	})
}

func TestOtelMetricsRecorder(t *testing.T) {
	// Without a configured meter provider this still succeeds using
	// the global no-op provider.
	m := NewMetricsRecorder()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordNodeExecution(ctx, "draft", 10*time.Millisecond, nil)
		m.RecordRun(ctx, true, 50*time.Millisecond)
		m.RecordSuspension(ctx, "approval")
		m.RecordModelCall(ctx, 20*time.Millisecond, false, nil)
		m.RecordCheckpoint(ctx, "draft", 2048)
	})
}

func TestSpanManagerWithGlobalProvider(t *testing.T) {
	sm := NewSpanManager()
	ctx := context.Background()

	runCtx, span := sm.StartRunSpan(ctx, "jobdraft", "run-1")
	assert.NotNil(t, runCtx)
	_, nodeSpan := sm.StartNodeSpan(runCtx, "draft")

	assert.NotPanics(t, func() {
		sm.AddSpanEvent(runCtx, "run.suspended")
		sm.EndSpanWithError(nodeSpan, nil)
		sm.EndSpanWithError(span, errors.New("x"))
	})
}
