// Package bootstrap runs the long-lived daemon process.
//
// NewApp loads nothing itself: it takes an already loaded config, applies
// defaults, validates it and initializes logging. Run starts the registered
// components in order, logs a startup summary, blocks until SIGINT, SIGTERM
// or context cancellation, then stops the components in reverse order within
// the graceful timeout.
package bootstrap
