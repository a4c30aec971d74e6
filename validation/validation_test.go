package validation

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/kbukum/dictate/errors"
)

func TestValidatorRequired(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"ffmpeg", false},
		{"", true},
		{"   ", true},
	}
	for _, tc := range tests {
		v := New().Required("recorder.binary", tc.value)
		if v.HasErrors() != tc.wantErr {
			t.Errorf("Required(%q): wantErr=%v, got %v", tc.value, tc.wantErr, v.Errors())
		}
	}
}

func TestValidatorRange(t *testing.T) {
	tests := []struct {
		value   int
		wantErr bool
	}{
		{1, false},
		{16, false},
		{0, true},
		{17, true},
	}
	for _, tc := range tests {
		v := New().Range("model.beam_size", tc.value, 1, 16)
		if v.HasErrors() != tc.wantErr {
			t.Errorf("Range(%d): wantErr=%v, got %v", tc.value, tc.wantErr, v.Errors())
		}
	}
}

func TestValidatorOneOf(t *testing.T) {
	v := New()
	v.OneOf("model.provider", "whisper", []string{"whisper", "command"})
	if v.HasErrors() {
		t.Error("expected no error for valid oneOf value")
	}

	v2 := New()
	v2.OneOf("model.provider", "vosk", []string{"whisper", "command"})
	if !v2.HasErrors() {
		t.Error("expected error for invalid oneOf value")
	}

	v3 := New()
	v3.OneOf("model.provider", "", []string{"whisper"})
	if v3.HasErrors() {
		t.Error("expected no error for empty oneOf value")
	}
}

func TestValidatorAddresses(t *testing.T) {
	tests := []struct {
		name        string
		addr        string
		hostPortErr bool
		loopbackErr bool
	}{
		{"ipv4 loopback", "127.0.0.1:65432", false, false},
		{"ipv6 loopback", "[::1]:65432", false, false},
		{"localhost", "localhost:8080", false, false},
		{"wildcard", "0.0.0.0:65432", false, true},
		{"remote", "10.1.2.3:65432", false, true},
		{"no port", "127.0.0.1", true, true},
		{"bad port", "127.0.0.1:http", true, false},
		{"port too large", "127.0.0.1:70000", true, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := New().HostPort("addr", tc.addr).HasErrors(); got != tc.hostPortErr {
				t.Errorf("HostPort(%q): wantErr=%v, got %v", tc.addr, tc.hostPortErr, got)
			}
			if got := New().Loopback("addr", tc.addr).HasErrors(); got != tc.loopbackErr {
				t.Errorf("Loopback(%q): wantErr=%v, got %v", tc.addr, tc.loopbackErr, got)
			}
		})
	}
}

func TestValidatorCustom(t *testing.T) {
	v := New()
	v.Custom(true, "field", "should pass")
	if v.HasErrors() {
		t.Error("expected no error for true condition")
	}

	v2 := New()
	v2.Custom(false, "status.addr", "must differ from daemon.addr")
	if !v2.HasErrors() {
		t.Fatal("expected error for false condition")
	}
	if v2.Errors()[0].Message != "must differ from daemon.addr" {
		t.Errorf("unexpected message %q", v2.Errors()[0].Message)
	}
}

func TestValidatorValidate(t *testing.T) {
	if New().Required("name", "dictate").Validate() != nil {
		t.Error("expected nil for valid input")
	}
	if New().Err() != nil {
		t.Error("expected nil error for an empty validator")
	}

	v := New()
	v.Required("recorder.binary", "")
	v.Loopback("daemon.addr", "0.0.0.0:1")
	appErr := v.Validate()
	if appErr == nil {
		t.Fatal("expected error")
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "recorder.binary") || !strings.Contains(appErr.Message, "daemon.addr") {
		t.Errorf("expected both fields in message, got %q", appErr.Message)
	}
	if v.Err() == nil {
		t.Error("expected Err to report the same failure")
	}
}

func TestValidatorChaining(t *testing.T) {
	v := New()
	result := v.Required("name", "dictate").Range("beam", 5, 1, 16).HostPort("addr", "127.0.0.1:1")
	if result != v {
		t.Error("expected chaining to return same validator")
	}
	if v.HasErrors() {
		t.Errorf("expected no errors, got %v", v.Errors())
	}
}

type listenerConfig struct {
	Addr string `mapstructure:"addr" validate:"required,hostname_port"`
}

type modelConfig struct {
	Provider string `mapstructure:"provider" validate:"required"`
	BeamSize int    `mapstructure:"beam_size" validate:"gte=1,lte=16"`
}

type baseConfig struct {
	Name string `mapstructure:"name" validate:"required"`
}

type appConfig struct {
	baseConfig `mapstructure:",squash"`
	Daemon     listenerConfig `mapstructure:"daemon"`
	Model      modelConfig    `yaml:"model"`
	Mode       string         `json:"mode" validate:"omitempty,oneof=toggle hold"`
}

func validApp() appConfig {
	return appConfig{
		baseConfig: baseConfig{Name: "dictate"},
		Daemon:     listenerConfig{Addr: "127.0.0.1:65432"},
		Model:      modelConfig{Provider: "whisper", BeamSize: 1},
	}
}

func TestStructValidateValid(t *testing.T) {
	if err := Validate(validApp()); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestStructValidateFieldPaths(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*appConfig)
		field   string
		message string
	}{
		{"squashed field", func(c *appConfig) { c.Name = "" }, "name", "is required"},
		{"mapstructure key", func(c *appConfig) { c.Daemon.Addr = "nope" }, "daemon.addr", "must be a host:port address"},
		{"yaml fallback", func(c *appConfig) { c.Model.BeamSize = 0 }, "model.beam_size", "must be at least 1"},
		{"upper bound", func(c *appConfig) { c.Model.BeamSize = 17 }, "model.beam_size", "must be at most 16"},
		{"json fallback", func(c *appConfig) { c.Mode = "push" }, "mode", "must be one of: toggle hold"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validApp()
			tc.mutate(&cfg)
			err := Validate(cfg)
			var appErr *errors.AppError
			if !stderrors.As(err, &appErr) {
				t.Fatalf("expected AppError, got %v", err)
			}
			fields, _ := appErr.Details["fields"].([]FieldError)
			if len(fields) != 1 {
				t.Fatalf("expected one field error, got %v", fields)
			}
			if fields[0].Field != tc.field || fields[0].Message != tc.message {
				t.Errorf("expected %s: %s, got %s: %s", tc.field, tc.message, fields[0].Field, fields[0].Message)
			}
		})
	}
}

func TestFieldPath(t *testing.T) {
	tests := map[string]string{
		"appConfig.~.name":          "name",
		"appConfig.model.beam_size": "model.beam_size",
		"single":                    "single",
	}
	for in, want := range tests {
		if got := fieldPath(in); got != want {
			t.Errorf("fieldPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("MaxCommandBytes"); got != "max_command_bytes" {
		t.Errorf("unexpected %q", got)
	}
}
