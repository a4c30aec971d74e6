package server

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/kbukum/dictate/component"
	"github.com/kbukum/dictate/logger"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled ignores addr", Config{Addr: "0.0.0.0:80"}, false},
		{"loopback v4", Config{Enabled: true, Addr: "127.0.0.1:65433"}, false},
		{"loopback v6", Config{Enabled: true, Addr: "[::1]:65433"}, false},
		{"localhost", Config{Enabled: true, Addr: "localhost:65433"}, false},
		{"public", Config{Enabled: true, Addr: "0.0.0.0:65433"}, true},
		{"no port", Config{Enabled: true, Addr: "127.0.0.1"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("wantErr=%v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestServerLifecycle(t *testing.T) {
	srv := New(Config{Enabled: true, Addr: "127.0.0.1:0"}, logger.Nop())
	srv.ApplyDefaults("dictate", func(context.Context) []component.Health {
		return []component.Health{{Name: "daemon", Status: component.StatusHealthy}}
	})
	comp := NewComponent(srv)

	if h := comp.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if err := comp.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer comp.Stop(context.Background())

	if h := comp.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy after start, got %s", h.Status)
	}
	if d := comp.Describe(); d.Details != srv.Addr() {
		t.Errorf("expected bound address in description, got %q", d.Details)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	if err != nil {
		t.Fatalf("get /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("unexpected body %v", body)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("expected request id header")
	}
}
