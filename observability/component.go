package observability

import (
	"context"
	"sync"

	"github.com/kbukum/dictate/component"
)

const componentName = "telemetry"

var (
	_ component.Component   = (*TelemetryComponent)(nil)
	_ component.Describable = (*TelemetryComponent)(nil)
)

// TelemetryComponent runs Setup on Start and flushes on Stop. Register it
// before the components it instruments so it stops after them.
type TelemetryComponent struct {
	cfg            Config
	serviceName    string
	serviceVersion string

	mu  sync.Mutex
	tel *Telemetry
}

// NewComponent returns a component that owns the exporters described by cfg.
func NewComponent(cfg Config, serviceName, serviceVersion string) *TelemetryComponent {
	cfg.ApplyDefaults()
	return &TelemetryComponent{cfg: cfg, serviceName: serviceName, serviceVersion: serviceVersion}
}

func (c *TelemetryComponent) Name() string { return componentName }

func (c *TelemetryComponent) Start(ctx context.Context) error {
	tel, err := Setup(ctx, c.cfg, c.serviceName, c.serviceVersion)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.tel = tel
	c.mu.Unlock()
	return nil
}

func (c *TelemetryComponent) Stop(ctx context.Context) error {
	c.mu.Lock()
	tel := c.tel
	c.tel = nil
	c.mu.Unlock()
	return tel.Shutdown(ctx)
}

// Health is always healthy; export failures are reported by the SDK, not here.
func (c *TelemetryComponent) Health(_ context.Context) component.Health {
	h := component.Health{Name: componentName, Status: component.StatusHealthy}
	if !c.cfg.Enabled {
		h.Message = "disabled"
	}
	return h
}

func (c *TelemetryComponent) Describe() component.Description {
	details := "disabled"
	if c.cfg.Enabled {
		details = "otlp " + c.cfg.Endpoint
	}
	return component.Description{Name: "Telemetry", Type: "telemetry", Details: details}
}
