package bootstrap

import (
	"context"
	"time"

	"github.com/kbukum/dictate/component"
	"github.com/kbukum/dictate/logger"
)

// Summary describes a started application.
type Summary struct {
	Name            string
	Version         string
	StartupDuration time.Duration
	Components      []ComponentSummary
}

// ComponentSummary is one component's description and health at startup.
type ComponentSummary struct {
	component.Description
	Status  component.HealthStatus
	Message string
}

// NewSummary creates a summary for name and version.
func NewSummary(name, version string) *Summary {
	return &Summary{Name: name, Version: version}
}

// SetStartupDuration records how long startup took.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.StartupDuration = d
}

// Collect snapshots every registered component in start order.
func (s *Summary) Collect(ctx context.Context, registry *component.Registry) {
	s.Components = s.Components[:0]
	if registry == nil {
		return
	}
	// HealthAll reports in registration order, like All.
	health := registry.HealthAll(ctx)
	for i, c := range registry.All() {
		var h component.Health
		if i < len(health) {
			h = health[i]
		}
		s.Components = append(s.Components, ComponentSummary{
			Description: component.Describe(c),
			Status:      h.Status,
			Message:     h.Message,
		})
	}
}

// Log writes the summary, one line per component.
func (s *Summary) Log(log *logger.Logger) {
	log.Info("Application started", logger.Fields(
		"name", s.Name,
		"version", s.Version,
		"components", len(s.Components),
		logger.FieldDuration, s.StartupDuration.Milliseconds(),
	))
	for _, c := range s.Components {
		fields := logger.Fields(
			logger.FieldComponent, c.Name,
			"type", c.Type,
			logger.FieldStatus, string(c.Status),
		)
		if c.Details != "" {
			fields["details"] = c.Details
		}
		if c.Message != "" {
			fields["message"] = c.Message
		}
		if c.Status == component.StatusHealthy {
			log.Info("component ready", fields)
		} else {
			log.Warn("component not healthy", fields)
		}
	}
}
