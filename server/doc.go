// Package server is the daemon's optional loopback status server, built on
// Gin. It never carries transcription traffic; that goes over the control
// protocol.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: Panic recovery with structured logging
//   - RequestID: Request ID generation and propagation
//   - RequestLogger: Request logging with duration tracking
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /health: overall status, uptime, and each component's health with the
//     daemon state and request counters
//   - /version: build version information
package server
