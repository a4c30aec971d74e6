package endpoint

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/dictate/component"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, path string, h gin.HandlerFunc, out any) int {
	t.Helper()
	r := gin.New()
	r.GET(path, h)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return rr.Code
}

func TestOverall(t *testing.T) {
	h := func(s component.HealthStatus) component.Health { return component.Health{Status: s} }
	tests := []struct {
		name string
		in   []component.Health
		want component.HealthStatus
	}{
		{"none", nil, component.StatusHealthy},
		{"all healthy", []component.Health{h(component.StatusHealthy)}, component.StatusHealthy},
		{"degraded", []component.Health{h(component.StatusHealthy), h(component.StatusDegraded)}, component.StatusDegraded},
		{"unhealthy wins", []component.Health{h(component.StatusDegraded), h(component.StatusUnhealthy)}, component.StatusUnhealthy},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overall(tc.in); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		status   component.HealthStatus
		wantCode int
	}{
		{"ready daemon", component.StatusHealthy, http.StatusOK},
		{"busy daemon", component.StatusDegraded, http.StatusOK},
		{"booting daemon", component.StatusUnhealthy, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			checker := func(context.Context) []component.Health {
				return []component.Health{{Name: "daemon", Status: tc.status, Details: map[string]any{"served": 3}}}
			}
			var report HealthReport
			code := serve(t, "/health", Health("dictate", time.Now().Add(-time.Minute), checker), &report)
			if code != tc.wantCode {
				t.Errorf("expected %d, got %d", tc.wantCode, code)
			}
			if report.Status != tc.status || report.Service != "dictate" {
				t.Errorf("unexpected report %+v", report)
			}
			if report.Uptime != "1m0s" {
				t.Errorf("expected uptime 1m0s, got %q", report.Uptime)
			}
			if len(report.Components) != 1 || report.Components[0].Details["served"] != float64(3) {
				t.Errorf("expected component details, got %+v", report.Components)
			}
		})
	}
}

func TestHealthNilChecker(t *testing.T) {
	var report HealthReport
	code := serve(t, "/health", Health("dictate", time.Now(), nil), &report)
	if code != http.StatusOK || report.Status != component.StatusHealthy {
		t.Errorf("unexpected response %d %+v", code, report)
	}
	if report.Components == nil {
		t.Error("components should encode as an empty list")
	}
}

func TestVersion(t *testing.T) {
	var report VersionReport
	code := serve(t, "/version", Version("dictate"), &report)
	if code != http.StatusOK || report.Service != "dictate" || report.Version == "" || report.GoVersion == "" {
		t.Errorf("unexpected version response %d %+v", code, report)
	}
}
