package provider

import "context"

// Provider is the base interface all providers implement.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool
}

// RequestResponse is a provider that takes one input and returns one output:
// an HTTP call, a subprocess run, a model inference.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}

// Factory creates a provider instance from loosely typed options.
type Factory[T Provider] func(opts map[string]any) (T, error)
