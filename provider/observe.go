package provider

import (
	"context"
	"time"

	"github.com/kbukum/dictate/logger"
	"github.com/kbukum/dictate/observability"
)

// Attrs extracts the request fields worth logging and tracing, such as the
// audio path and beam width. It may be nil.
type Attrs[I any] func(I) map[string]any

// wrapped forwards the Provider methods to inner.
type wrapped[I, O any] struct {
	inner RequestResponse[I, O]
}

func (w wrapped[I, O]) Name() string                         { return w.inner.Name() }
func (w wrapped[I, O]) IsAvailable(ctx context.Context) bool { return w.inner.IsAvailable(ctx) }

// WithLogging logs each call with its duration and request attributes, at
// debug level on success and error level on failure.
func WithLogging[I, O any](log *logger.Logger, attrs Attrs[I]) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &logged[I, O]{wrapped: wrapped[I, O]{inner}, log: log, attrs: attrs}
	}
}

type logged[I, O any] struct {
	wrapped[I, O]
	log   *logger.Logger
	attrs Attrs[I]
}

func (l *logged[I, O]) Execute(ctx context.Context, in I) (O, error) {
	start := time.Now()
	out, err := l.inner.Execute(ctx, in)

	fields := logger.DurationFields("execute", time.Since(start))
	fields[logger.FieldProvider] = l.inner.Name()
	if l.attrs != nil {
		for k, v := range l.attrs(in) {
			fields[k] = v
		}
	}
	if err != nil {
		l.log.Error("provider call failed", logger.MergeWithError(fields, err))
	} else {
		l.log.Debug("provider call done", fields)
	}
	return out, err
}

// WithMetrics records a count and a duration per call under operation, and
// an error count for failures.
func WithMetrics[I, O any](metrics *observability.Metrics, operation string) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &measured[I, O]{wrapped: wrapped[I, O]{inner}, metrics: metrics, operation: operation}
	}
}

type measured[I, O any] struct {
	wrapped[I, O]
	metrics   *observability.Metrics
	operation string
}

func (m *measured[I, O]) Execute(ctx context.Context, in I) (O, error) {
	start := time.Now()
	out, err := m.inner.Execute(ctx, in)

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError
		m.metrics.RecordError(ctx, m.operation, m.inner.Name())
	}
	m.metrics.RecordOperation(ctx, m.inner.Name(), m.operation, status, time.Since(start))
	return out, err
}

// WithTracing wraps each call in a span named "{serviceName}.{provider}"
// carrying the request attributes.
func WithTracing[I, O any](serviceName string, attrs Attrs[I]) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &traced[I, O]{wrapped: wrapped[I, O]{inner}, serviceName: serviceName, attrs: attrs}
	}
}

type traced[I, O any] struct {
	wrapped[I, O]
	serviceName string
	attrs       Attrs[I]
}

func (t *traced[I, O]) Execute(ctx context.Context, in I) (O, error) {
	ctx, span := observability.StartSpan(ctx, t.serviceName+"."+t.inner.Name())
	defer span.End()

	observability.SetSpanAttribute(ctx, observability.AttrServiceName, t.serviceName)
	observability.SetSpanAttribute(ctx, observability.AttrProvider, t.inner.Name())
	if t.attrs != nil {
		for k, v := range t.attrs(in) {
			observability.SetSpanAttribute(ctx, k, v)
		}
	}

	out, err := t.inner.Execute(ctx, in)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return out, err
}
