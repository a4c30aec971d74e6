package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Operation tracks the span and metrics of one served request.
type Operation struct {
	Command   string
	RequestID string
	StartTime time.Time
	Metrics   *Metrics

	span trace.Span
}

// StartOperation opens a request span and counts the request as active.
// Metrics may be nil.
func StartOperation(ctx context.Context, command, requestID string, metrics *Metrics) (context.Context, *Operation) {
	ctx, span := StartSpan(ctx, SpanRequest, trace.WithAttributes(
		attribute.String(AttrCommand, command),
		attribute.String(AttrRequestID, requestID),
	))
	metrics.RecordRequestStart(ctx)
	return ctx, &Operation{
		Command:   command,
		RequestID: requestID,
		StartTime: time.Now(),
		Metrics:   metrics,
		span:      span,
	}
}

// End closes the span and records the finished request.
func (o *Operation) End(ctx context.Context, status string, err error) {
	d := time.Since(o.StartTime)
	if err != nil {
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, err.Error())
	}
	o.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, d.Milliseconds()),
	)
	o.span.End()
	o.Metrics.RecordRequestEnd(ctx, o.Command, status, d)
}

// Duration returns the time since the operation started.
func (o *Operation) Duration() time.Duration {
	return time.Since(o.StartTime)
}
