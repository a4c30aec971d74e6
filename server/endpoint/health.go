package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/dictate/component"
)

// HealthChecker returns the health of every registered component.
type HealthChecker func(ctx context.Context) []component.Health

// HealthReport is the body of GET /health.
type HealthReport struct {
	Status     component.HealthStatus `json:"status"`
	Service    string                 `json:"service"`
	Uptime     string                 `json:"uptime"`
	Components []component.Health     `json:"components"`
}

// Overall folds component states: one unhealthy component makes the service
// unhealthy, otherwise one degraded component makes it degraded.
func Overall(hs []component.Health) component.HealthStatus {
	status := component.StatusHealthy
	for _, h := range hs {
		switch h.Status {
		case component.StatusUnhealthy:
			return component.StatusUnhealthy
		case component.StatusDegraded:
			status = component.StatusDegraded
		}
	}
	return status
}

// Health serves a HealthReport. The daemon reports its state, backend and
// request counters as component details. An unhealthy service answers 503.
func Health(serviceName string, started time.Time, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := HealthReport{
			Service:    serviceName,
			Uptime:     time.Since(started).Round(time.Second).String(),
			Components: []component.Health{},
		}
		if checker != nil {
			report.Components = checker(c.Request.Context())
		}
		report.Status = Overall(report.Components)

		code := http.StatusOK
		if report.Status == component.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, report)
	}
}
