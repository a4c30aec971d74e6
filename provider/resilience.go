package provider

import (
	"context"
	"errors"

	apperrors "github.com/kbukum/dictate/errors"
	"github.com/kbukum/dictate/resilience"
)

// ResilienceConfig bundles optional resilience policies for a provider.
// Nil fields are skipped; the zero value is a passthrough.
type ResilienceConfig struct {
	// CircuitBreaker fails fast after repeated errors.
	CircuitBreaker *resilience.CircuitBreakerConfig
	// Retry retries failed calls with exponential backoff.
	Retry *resilience.RetryConfig
}

// IsEmpty reports whether no policy is configured.
func (c ResilienceConfig) IsEmpty() bool {
	return c.CircuitBreaker == nil && c.Retry == nil
}

// WithResilience wraps p so each Execute runs CircuitBreaker → Retry → Execute.
// An empty config returns p unchanged.
func WithResilience[I, O any](p RequestResponse[I, O], cfg ResilienceConfig) RequestResponse[I, O] {
	if cfg.IsEmpty() {
		return p
	}
	r := &resilientRR[I, O]{inner: p, retry: cfg.Retry}
	if cfg.CircuitBreaker != nil {
		r.breaker = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	return r
}

type resilientRR[I, O any] struct {
	inner   RequestResponse[I, O]
	breaker *resilience.CircuitBreaker
	retry   *resilience.RetryConfig
}

func (r *resilientRR[I, O]) Name() string { return r.inner.Name() }

// IsAvailable is false while the breaker is open.
func (r *resilientRR[I, O]) IsAvailable(ctx context.Context) bool {
	if r.breaker != nil && r.breaker.State() == resilience.StateOpen {
		return false
	}
	return r.inner.IsAvailable(ctx)
}

func (r *resilientRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	call := func() (O, error) { return r.inner.Execute(ctx, input) }

	if r.retry != nil {
		cfg := *r.retry
		once := call
		call = func() (O, error) { return resilience.Retry(ctx, cfg, once) }
	}

	if r.breaker == nil {
		return call()
	}

	var out O
	var callErr error
	err := r.breaker.Execute(func() error {
		out, callErr = call()
		return callErr
	})
	if err != nil && callErr == nil {
		return out, wrapResilienceError(r.inner.Name(), err)
	}
	return out, callErr
}

// wrapResilienceError converts resilience sentinel errors to AppErrors.
func wrapResilienceError(name string, err error) error {
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return apperrors.ServiceUnavailable(name).WithCause(err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.Timeout(name).WithCause(err)
	default:
		return err
	}
}
