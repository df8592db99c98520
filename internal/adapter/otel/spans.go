package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "praxis"

// StartAccessCheckSpan starts a span for a permission evaluation.
func StartAccessCheckSpan(ctx context.Context, officeID, resource, action string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "access.check",
		trace.WithAttributes(
			attribute.String("office.id", officeID),
			attribute.String("access.resource", resource),
			attribute.String("access.action", action),
		),
	)
}

// StartSessionSpan starts a span for a session lifecycle operation.
func StartSessionSpan(ctx context.Context, op, sessionID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "session."+op,
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
		),
	)
}
