package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string         `json:"name"`
	Status  HealthStatus   `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Component is a lifecycle-managed part of the process: the daemon's
// control listener, the status server, telemetry exporters.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start initializes and starts the component.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the component and releases resources.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) Health
}

// Description is what a component reports about itself at startup.
type Description struct {
	// Name is the display name. If empty, the component's Name() is used.
	Name string
	// Type categorizes the component: "listener", "server", "telemetry".
	Type string
	// Details is a one-liner such as "127.0.0.1:65432 provider=whisper".
	Details string
}

// Describable is optionally implemented by Components to appear in the
// startup log with more than their name.
type Describable interface {
	Describe() Description
}

// Describe returns c's description, falling back to its name.
func Describe(c Component) Description {
	var d Description
	if dc, ok := c.(Describable); ok {
		d = dc.Describe()
	}
	if d.Name == "" {
		d.Name = c.Name()
	}
	return d
}
