// ABOUTME: OpenTelemetry spans around hook dispatch and each sub-toolbar call
// ABOUTME: Uses the global tracer provider unless Deps carries a tracer

package toolbar

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of toolbar spans.
const TracerName = "github.com/2389/cms-toolbar/internal/toolbar"

func tracerOf(deps *Deps) trace.Tracer {
	if deps.Tracer != nil {
		return deps.Tracer
	}
	return otel.Tracer(TracerName)
}

// startDispatchSpan starts the span covering one hook across all sub-toolbars.
// Span name: toolbar.dispatch.<hook>
func startDispatchSpan(ctx context.Context, tracer trace.Tracer, hook Hook, language string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "toolbar.dispatch."+string(hook),
		trace.WithAttributes(
			attribute.String("toolbar.hook", string(hook)),
			attribute.String("toolbar.language", language),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// startHookSpan starts the span of a single sub-toolbar hook call.
// Span name: toolbar.hook.<hook>
func startHookSpan(ctx context.Context, tracer trace.Tracer, hook Hook, key string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "toolbar.hook."+string(hook),
		trace.WithAttributes(
			attribute.String("toolbar.hook", string(hook)),
			attribute.String("toolbar.key", key),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// endSpan ends span, recording err as the span status.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
