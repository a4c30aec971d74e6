// Package resilience holds the fault-tolerance primitives used around the
// model backends: Retry with exponential backoff, Poll for waiting on a
// service to come up, and a CircuitBreaker that fails fast once a backend has
// failed repeatedly.
package resilience
