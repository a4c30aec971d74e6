// Package component defines the lifecycle interface shared by the daemon's
// long-running parts and a registry that starts them in order and stops
// them in reverse.
//
// # Interfaces
//
//   - Component: lifecycle (Start/Stop) and health reporting
//   - Describable: one-line description logged at startup
package component
