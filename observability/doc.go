// Package observability wires OpenTelemetry metrics and tracing.
//
// Telemetry is off by default. When disabled, the global providers stay the
// OpenTelemetry no-op implementations, so instruments and spans can be used
// unconditionally:
//
//	tel, err := observability.Setup(ctx, cfg.Telemetry, "dictate", version.Short())
//	defer tel.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("dictate"))
//	ctx, span := observability.StartSpan(ctx, observability.SpanTranscribe)
//	defer span.End()
package observability
