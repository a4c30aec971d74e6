// Package provider is a small generic framework for swappable backends.
//
// A backend implements RequestResponse[I, O]: one input, one output. Backends
// are created by name from a Registry of factories, optionally set themselves
// up through Initializable, and release what they hold through Closeable.
//
// Cross-cutting behavior is layered on with Middleware:
//
//	wrapped := provider.Chain(
//	    provider.WithLogging[In, Out](log, attrs),
//	    provider.WithMetrics[In, Out](metrics, "transcribe"),
//	    provider.WithTracing[In, Out]("dictate", attrs),
//	)(provider.WithResilience(raw, resilienceCfg))
package provider
