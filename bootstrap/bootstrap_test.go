package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/dictate/component"
	"github.com/kbukum/dictate/config"
	"github.com/kbukum/dictate/logger"
)

// testConfig is a minimal config that satisfies the Config interface.
type testConfig struct {
	config.ServiceConfig
}

// mockComponent implements component.Component for testing.
type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   component.Health
	started  bool
	stopped  bool
	events   *[]string
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(ctx context.Context) error {
	m.started = true
	m.record("start")
	return m.startErr
}

func (m *mockComponent) Stop(ctx context.Context) error {
	m.stopped = true
	m.record("stop")
	return m.stopErr
}

func (m *mockComponent) Health(ctx context.Context) component.Health {
	return m.health
}

func (m *mockComponent) Describe() component.Description {
	return component.Description{Type: "listener", Details: "127.0.0.1:0"}
}

func (m *mockComponent) record(what string) {
	if m.events != nil {
		*m.events = append(*m.events, what+" "+m.name)
	}
}

func healthy(name string, events *[]string) *mockComponent {
	return &mockComponent{
		name:   name,
		health: component.Health{Name: name, Status: component.StatusHealthy},
		events: events,
	}
}

func newTestConfig(name, version string) *testConfig {
	return &testConfig{
		ServiceConfig: config.ServiceConfig{
			Name:        name,
			Version:     version,
			Environment: "development",
		},
	}
}

func newTestApp(t *testing.T, opts ...Option) *App[*testConfig] {
	t.Helper()
	app, err := NewApp(newTestConfig("test", "1.0"), append([]Option{WithLogger(logger.Nop())}, opts...)...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func canceledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func TestNewApp(t *testing.T) {
	app, err := NewApp(newTestConfig("test-svc", "1.0.0"))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Name != "test-svc" || app.Version != "1.0.0" {
		t.Errorf("unexpected identity %q %q", app.Name, app.Version)
	}
	if app.Components == nil || app.Logger == nil || app.Summary == nil {
		t.Error("expected registry, logger and summary")
	}
	if app.Cfg.Logging.ServiceName != "test-svc" {
		t.Errorf("expected defaults to be applied, got %+v", app.Cfg.Logging)
	}
}

func TestNewAppValidation(t *testing.T) {
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "x", Environment: "staging"}}
	if _, err := NewApp(cfg); err == nil {
		t.Error("expected error for invalid environment")
	}
}

func TestNewAppWithAppConfig(t *testing.T) {
	app, err := NewApp(&config.App{}, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Cfg.Daemon.Addr == "" {
		t.Error("expected application defaults to be applied")
	}
}

func TestRegisterComponentDuplicate(t *testing.T) {
	app := newTestApp(t)
	if err := app.RegisterComponent(&mockComponent{name: "daemon"}); err != nil {
		t.Fatalf("RegisterComponent failed: %v", err)
	}
	if app.Components.Get("daemon") == nil {
		t.Error("expected component to be registered")
	}
	if err := app.RegisterComponent(&mockComponent{name: "daemon"}); err == nil {
		t.Error("expected error for duplicate component registration")
	}
}

func TestHooks(t *testing.T) {
	var order []string
	hooks := []Hook{
		func(ctx context.Context) error { order = append(order, "first"); return nil },
		func(ctx context.Context) error { order = append(order, "second"); return nil },
	}
	if err := runHooks(context.Background(), hooks); err != nil {
		t.Fatal(err)
	}
	if strings.Join(order, ",") != "first,second" {
		t.Errorf("expected [first second], got %v", order)
	}

	secondCalled := false
	failing := []Hook{
		func(ctx context.Context) error { return fmt.Errorf("fail") },
		func(ctx context.Context) error { secondCalled = true; return nil },
	}
	if err := runHooks(context.Background(), failing); err == nil {
		t.Error("expected error from failing hook")
	}
	if secondCalled {
		t.Error("expected second hook not to be called after first fails")
	}
}

func TestReadyCheck(t *testing.T) {
	tests := []struct {
		name    string
		status  component.HealthStatus
		wantErr bool
	}{
		{"healthy", component.StatusHealthy, false},
		{"degraded", component.StatusDegraded, true},
		{"unhealthy", component.StatusUnhealthy, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t)
			_ = app.RegisterComponent(healthy("status-server", nil))
			_ = app.RegisterComponent(&mockComponent{
				name:   "daemon",
				health: component.Health{Name: "daemon", Status: tc.status, Message: "booting"},
			})
			err := app.ReadyCheck(context.Background())
			if (err != nil) != tc.wantErr {
				t.Errorf("wantErr=%v, got %v", tc.wantErr, err)
			}
		})
	}

	if err := newTestApp(t).ReadyCheck(context.Background()); err != nil {
		t.Errorf("expected no error for empty registry, got %v", err)
	}
}

func TestRunLifecycleOrder(t *testing.T) {
	var events []string
	app := newTestApp(t)
	_ = app.RegisterComponent(healthy("telemetry", &events))
	_ = app.RegisterComponent(healthy("daemon", &events))
	app.OnStart(func(ctx context.Context) error { events = append(events, "onStart"); return nil })
	app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error {
		if a.Cfg.Name != "test" {
			t.Errorf("expected typed config, got %q", a.Cfg.Name)
		}
		events = append(events, "configure")
		return nil
	})
	app.OnReady(func(ctx context.Context) error { events = append(events, "onReady"); return nil })
	app.OnStop(func(ctx context.Context) error { events = append(events, "onStop"); return nil })

	if err := app.Run(canceledContext()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := "start telemetry,start daemon,onStart,configure,onReady,onStop,stop daemon,stop telemetry"
	if got := strings.Join(events, ","); got != want {
		t.Errorf("expected %s\ngot      %s", want, got)
	}
	if len(app.Summary.Components) != 2 || app.Summary.Components[1].Type != "listener" {
		t.Errorf("unexpected summary %+v", app.Summary.Components)
	}
}

func TestRunStartFailureStopsStartedComponents(t *testing.T) {
	var events []string
	app := newTestApp(t)
	first := healthy("telemetry", &events)
	broken := healthy("daemon", &events)
	broken.startErr = fmt.Errorf("model load failed")
	never := healthy("status-server", &events)
	_ = app.RegisterComponent(first)
	_ = app.RegisterComponent(broken)
	_ = app.RegisterComponent(never)

	err := app.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "model load failed") {
		t.Fatalf("expected start error, got %v", err)
	}
	if !first.stopped {
		t.Error("expected the started component to be stopped")
	}
	if never.started || never.stopped {
		t.Error("components after the failure must not be touched")
	}
}

func TestRunHookFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*App[*testConfig])
		want  string
	}{
		{"onStart", func(a *App[*testConfig]) {
			a.OnStart(func(context.Context) error { return fmt.Errorf("boom") })
		}, "onStart hook failed"},
		{"configure", func(a *App[*testConfig]) {
			a.OnConfigure(func(context.Context, *App[*testConfig]) error { return fmt.Errorf("boom") })
		}, "configuration failed"},
		{"onReady", func(a *App[*testConfig]) {
			a.OnReady(func(context.Context) error { return fmt.Errorf("boom") })
		}, "onReady hook failed"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t)
			c := healthy("daemon", nil)
			_ = app.RegisterComponent(c)
			tc.setup(app)
			err := app.Run(canceledContext())
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
			if !c.stopped {
				t.Error("expected components to be stopped after a failed startup")
			}
		})
	}
}

func TestRunStopErrors(t *testing.T) {
	app := newTestApp(t)
	c := healthy("daemon", nil)
	c.stopErr = fmt.Errorf("listener close failed")
	_ = app.RegisterComponent(c)
	app.OnStop(func(context.Context) error { return fmt.Errorf("hook failed") })

	err := app.Run(canceledContext())
	if err == nil || !strings.Contains(err.Error(), "listener close failed") {
		t.Fatalf("expected stop error, got %v", err)
	}
}

func TestShutdown(t *testing.T) {
	app := newTestApp(t)
	c := healthy("daemon", nil)
	_ = app.RegisterComponent(c)
	if err := app.Components.StartAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := app.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if !c.stopped {
		t.Error("expected component to be stopped")
	}
}

func TestWaitForSignalContextCancellation(t *testing.T) {
	app := newTestApp(t)
	done := make(chan struct{})
	go func() {
		app.WaitForSignal(canceledContext())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForSignal did not return on canceled context")
	}
}

func TestGracefulTimeout(t *testing.T) {
	if app := newTestApp(t); app.gracefulTimeout != 15*time.Second {
		t.Errorf("expected default 15s, got %v", app.gracefulTimeout)
	}
	if app := newTestApp(t, WithGracefulTimeout(5*time.Second)); app.gracefulTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", app.gracefulTimeout)
	}
}

func TestSummaryLog(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "info", Format: "json"}, "test", &buf)

	reg := component.NewRegistry()
	_ = reg.Register(healthy("daemon", nil))
	_ = reg.Register(&mockComponent{
		name:   "status-server",
		health: component.Health{Name: "status-server", Status: component.StatusUnhealthy, Message: "not listening"},
	})

	s := NewSummary("dictate", "1.2.3")
	s.SetStartupDuration(1500 * time.Millisecond)
	s.Collect(context.Background(), reg)
	s.Log(log)

	out := buf.String()
	for _, want := range []string{`"version":"1.2.3"`, `"duration_ms":1500`, `"details":"127.0.0.1:0"`, "component not healthy", "not listening"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in summary output:\n%s", want, out)
		}
	}

	s.Collect(context.Background(), nil)
	if len(s.Components) != 0 {
		t.Error("expected nil registry to clear the summary")
	}
}
