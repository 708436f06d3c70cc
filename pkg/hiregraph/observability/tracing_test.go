package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTracingTest(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)

	original := otel.GetTracerProvider()
	originalTracer := tracer
	otel.SetTracerProvider(provider)

	// The package tracer is bound at init, so rebind it to pick up
	// the test provider.
	tracer = otel.Tracer("hiregraph")

	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		tracer = originalTracer
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("tracer provider shutdown: %v", err)
		}
	})

	return exporter
}

func spanAttr(span tracetest.SpanStub, key string) (string, bool) {
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			return attr.Value.AsString(), true
		}
	}
	return "", false
}

func TestStartRunSpan(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	ctx, span := sm.StartRunSpan(context.Background(), "screening", "run-42")
	require.NotNil(t, ctx)
	require.NotNil(t, span)
	sm.EndSpanWithError(span, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "hiregraph.run", spans[0].Name)

	name, ok := spanAttr(spans[0], "workflow.name")
	require.True(t, ok)
	assert.Equal(t, "screening", name)

	runID, ok := spanAttr(spans[0], "run.id")
	require.True(t, ok)
	assert.Equal(t, "run-42", runID)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
}

func TestStartNodeSpan(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	runCtx, runSpan := sm.StartRunSpan(context.Background(), "screening", "run-42")
	nodeCtx, nodeSpan := sm.StartNodeSpan(runCtx, "critique")
	require.NotNil(t, nodeCtx)
	sm.EndSpanWithError(nodeSpan, nil)
	sm.EndSpanWithError(runSpan, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	// Node span ends first, so it is exported first.
	node := spans[0]
	run := spans[1]
	assert.Equal(t, "hiregraph.node.critique", node.Name)
	assert.Equal(t, "hiregraph.run", run.Name)

	nodeID, ok := spanAttr(node, "node.id")
	require.True(t, ok)
	assert.Equal(t, "critique", nodeID)

	assert.Equal(t, run.SpanContext.SpanID(), node.Parent.SpanID())
	assert.Equal(t, run.SpanContext.TraceID(), node.SpanContext.TraceID())
}

func TestEndSpanWithError(t *testing.T) {
	t.Run("Records_Error_Status", func(t *testing.T) {
		exporter := setupTracingTest(t)
		sm := NewSpanManager()

		_, span := sm.StartNodeSpan(context.Background(), "evaluate_technical")
		sm.EndSpanWithError(span, errors.New("model unavailable"))

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
		assert.Equal(t, "model unavailable", spans[0].Status.Description)

		require.NotEmpty(t, spans[0].Events)
		assert.Equal(t, "exception", spans[0].Events[0].Name)
	})

	t.Run("Nil_Span_Is_Safe", func(t *testing.T) {
		sm := NewSpanManager()
		assert.NotPanics(t, func() {
			sm.EndSpanWithError(nil, errors.New("ignored"))
		})
	})
}

func TestAddSpanEvent(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	t.Run("Adds_To_Recording_Span", func(t *testing.T) {
		exporter.Reset()
		ctx, span := sm.StartNodeSpan(context.Background(), "dispatch")
		sm.AddSpanEvent(ctx, "branches.forked")
		sm.EndSpanWithError(span, nil)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		require.NotEmpty(t, spans[0].Events)
		assert.Equal(t, "branches.forked", spans[0].Events[0].Name)
	})

	t.Run("No_Span_In_Context", func(t *testing.T) {
		assert.NotPanics(t, func() {
			sm.AddSpanEvent(context.Background(), "orphan")
		})
	})
}
