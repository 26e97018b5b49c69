// Package otel provides OpenTelemetry span helpers shared by the sync engine.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on sync spans.
const (
	AttrRepositoryName = attribute.Key("repository.name")
	AttrRepositoryID   = attribute.Key("repository.id")
	AttrRunID          = attribute.Key("sync.run_id")
	AttrStage          = attribute.Key("sync.stage")
	AttrStatus         = attribute.Key("sync.status")
	AttrProviderName   = attribute.Key("provider.name")
	AttrProviderType   = attribute.Key("provider.type")
	AttrPackage        = attribute.Key("package.key")
	AttrAttempts       = attribute.Key("fetch.attempts")
	AttrAddedCount     = attribute.Key("sync.added")
	AttrRemovedCount   = attribute.Key("sync.removed")
	AttrUnchangedCount = attribute.Key("sync.unchanged")
	AttrFailedCount    = attribute.Key("sync.failed")
)

// StartSpan starts a span on tracer, or returns the span already in ctx
// when tracer is nil.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err on span and marks the span failed. The status
// description stays generic; the error itself is kept in the span event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
