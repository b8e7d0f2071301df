package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the blockflow tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("blockflow")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartWorkflowSpan starts a span for the entire workflow execution.
	StartWorkflowSpan(ctx context.Context, executionID string) (context.Context, trace.Span)

	// StartBlockSpan starts a span for one block execution.
	// The block span should be a child of the workflow span.
	StartBlockSpan(ctx context.Context, blockNumber, kind string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartWorkflowSpan starts a span for the entire workflow execution.
func (m *otelSpanManager) StartWorkflowSpan(ctx context.Context, executionID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "blockflow.workflow",
		trace.WithAttributes(
			attribute.String("execution.id", executionID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartBlockSpan starts a span for a block execution.
func (m *otelSpanManager) StartBlockSpan(ctx context.Context, blockNumber, kind string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "blockflow.block."+blockNumber,
		trace.WithAttributes(
			attribute.String("block.number", blockNumber),
			attribute.String("block.kind", kind),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// StartWorkflowSpan starts a workflow span using the global tracer.
func StartWorkflowSpan(ctx context.Context, executionID string) (context.Context, trace.Span) {
	return (&otelSpanManager{}).StartWorkflowSpan(ctx, executionID)
}

// StartBlockSpan starts a block span using the global tracer.
func StartBlockSpan(ctx context.Context, blockNumber, kind string) (context.Context, trace.Span) {
	return (&otelSpanManager{}).StartBlockSpan(ctx, blockNumber, kind)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	(&otelSpanManager{}).EndSpanWithError(span, err)
}
