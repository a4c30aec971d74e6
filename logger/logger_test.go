package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func jsonLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(&Config{Level: level, Format: "json"}, "test-svc", buf)
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "info")
	l.Info("request served", Fields("request_id", "abc", "chars", 12))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "request served" {
		t.Errorf("expected message, got %v", entry["message"])
	}
	if entry["service"] != "test-svc" {
		t.Errorf("expected service field, got %v", entry["service"])
	}
	if entry["request_id"] != "abc" {
		t.Errorf("expected request_id field, got %v", entry["request_id"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "warn")
	l.Info("hidden")
	l.Debug("hidden too")
	if buf.Len() != 0 {
		t.Fatalf("expected info/debug to be filtered, got %q", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn to be written, got %q", buf.String())
	}
}

func TestNewInvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "invalid-level")
	l.Info("falls back to info")
	if !strings.Contains(buf.String(), "falls back to info") {
		t.Errorf("expected info level fallback, got %q", buf.String())
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	l := NewFromEnv("env-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "info").WithComponent("daemon")
	l.Info("ready")
	if !strings.Contains(buf.String(), `"component":"daemon"`) {
		t.Errorf("expected component field, got %q", buf.String())
	}
	if l.service != "test-svc" {
		t.Errorf("service should be preserved, got %q", l.service)
	}
}

func TestWithFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "info").
		WithFields(map[string]interface{}{"pid": 42}).
		WithError(errors.New("boom"))
	l.Error("stop failed")
	out := buf.String()
	if !strings.Contains(out, `"pid":42`) {
		t.Errorf("expected pid field, got %q", out)
	}
	if !strings.Contains(out, `"error":"boom"`) {
		t.Errorf("expected error field, got %q", out)
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: "console", NoColor: true}, "dictate", &buf)
	l.Warn("careful")
	if !strings.Contains(buf.String(), "[WRN]") {
		t.Errorf("expected console level tag, got %q", buf.String())
	}
}

func TestNop(t *testing.T) {
	Nop().Error("nothing happens")
}

func TestInitSetsGlobal(t *testing.T) {
	prev := GetGlobalLogger()
	t.Cleanup(func() { SetGlobalLogger(prev) })

	Init(&Config{Level: "info", Format: "json", Output: "stderr", ServiceName: "dictate"})
	if GetGlobalLogger().service != "dictate" {
		t.Errorf("expected global service 'dictate', got %q", GetGlobalLogger().service)
	}
	if WithComponent("daemon").service != "dictate" {
		t.Error("package-level WithComponent should derive from the global logger")
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stderr" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp to default on")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "debug", Format: "json", Output: "stdout"}, false},
		{"bad level", Config{Level: "loud", Format: "json", Output: "stdout"}, true},
		{"bad format", Config{Level: "info", Format: "xml", Output: "stdout"}, true},
		{"bad output", Config{Level: "info", Format: "json", Output: "file"}, true},
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

func TestFields(t *testing.T) {
	f := Fields("a", 1, "b", "two", 3, "ignored-key-not-string", "dangling")
	if f["a"] != 1 || f["b"] != "two" {
		t.Errorf("unexpected fields: %v", f)
	}
	if len(f) != 2 {
		t.Errorf("expected 2 fields, got %d", len(f))
	}
}

func TestErrorAndDurationFields(t *testing.T) {
	ef := ErrorFields("stop", errors.New("gone"))
	if ef[FieldOperation] != "stop" || ef[FieldError] != "gone" {
		t.Errorf("unexpected error fields: %v", ef)
	}
	df := DurationFields("transcribe", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", df[FieldDuration])
	}
	merged := MergeWithError(nil, errors.New("x"))
	if merged[FieldError] != "x" {
		t.Errorf("expected merged error, got %v", merged)
	}
}

func TestOutputWriter(t *testing.T) {
	if outputWriter("stdout") != os.Stdout {
		t.Error("expected stdout")
	}
	if outputWriter("anything-else") != os.Stderr {
		t.Error("expected stderr fallback")
	}
}
