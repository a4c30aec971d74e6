package recorder

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	apperrors "github.com/kbukum/dictate/errors"
	"github.com/kbukum/dictate/handoff"
	"github.com/kbukum/dictate/logger"
	"github.com/kbukum/dictate/process"
	"github.com/kbukum/dictate/protocol"
)

// The fake recorder is "sh -c script rec -ac 1 -ar 16000 -y <audio>", so the
// audio path is $6 inside the script.
const (
	recordLoud   = `trap 'exit 0' TERM; head -c 4000 /dev/zero > "$6"; while :; do sleep 0.05; done`
	recordQuiet  = `trap 'exit 0' TERM; printf 'RIFF' > "$6"; while :; do sleep 0.05; done`
	recordStuck  = `trap '' TERM; head -c 4000 /dev/zero > "$6"; while :; do sleep 0.05; done`
	recordCrashy = `exit 1`
)

type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(context.Context) (string, error) {
	f.calls++
	return f.text, f.err
}

type captured struct{ texts []string }

func (c *captured) Name() string { return "captured" }

func (c *captured) Deliver(_ context.Context, text string) error {
	c.texts = append(c.texts, text)
	return nil
}

func testStore(t *testing.T) *handoff.Store {
	t.Helper()
	dir := t.TempDir()
	return handoff.New(handoff.Config{
		MarkerPath: filepath.Join(dir, "rec.pid"),
		AudioPath:  filepath.Join(dir, "audio.wav"),
	})
}

func shellConfig(script string) Config {
	return Config{
		Binary:       "sh",
		InputArgs:    []string{"-c", script, "rec"},
		StartupProbe: 100 * time.Millisecond,
		GracePeriod:  time.Second,
		KillWait:     time.Second,
	}
}

func startSession(t *testing.T, c *Controller) int {
	t.Helper()
	res, err := c.Toggle(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if res.Outcome != Started || res.PID <= 0 {
		t.Fatalf("expected Started with a pid, got %+v", res)
	}
	t.Cleanup(func() { _, _ = process.Terminate(res.PID, process.TerminateOptions{GracePeriod: 100 * time.Millisecond}) })
	return res.PID
}

func TestToggleRoundTripThroughDaemon(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		if cmd, _ := protocol.ReadCommand(conn, protocol.MaxCommandBytes); cmd == protocol.CommandTranscribe {
			_, _ = conn.Write(protocol.EncodeText(" hello world "))
		}
	}()

	store := testStore(t)
	sink := &captured{}
	client := protocol.NewClient(protocol.ClientConfig{Addr: ln.Addr().String()})
	c := New(shellConfig(recordLoud), store, client, WithConsumer(sink))

	pid := startSession(t, c)
	if got, err := store.ReadMarker(); err != nil || got != pid {
		t.Fatalf("expected marker with pid %d, got %d (%v)", pid, got, err)
	}
	if !process.Alive(pid) {
		t.Fatal("expected recorder to be running")
	}

	res, err := c.Toggle(context.Background())
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if res.Outcome != Transcribed || res.Text != "hello world" {
		t.Errorf("unexpected result %+v", res)
	}
	if res.PID != pid {
		t.Errorf("expected stopped pid %d, got %d", pid, res.PID)
	}
	if store.HasMarker() {
		t.Error("expected marker to be removed")
	}
	if process.Alive(pid) {
		t.Error("expected recorder to be stopped")
	}
	if len(sink.texts) != 1 || sink.texts[0] != "hello world" {
		t.Errorf("expected transcript to be delivered once, got %v", sink.texts)
	}
}

func TestRepeatedCyclesLeaveNothingBehind(t *testing.T) {
	store := testStore(t)
	c := New(shellConfig(recordLoud), store, &fakeTranscriber{text: "again"})

	var pids []int
	for i := 0; i < 2; i++ {
		pid := startSession(t, c)
		pids = append(pids, pid)
		if !store.HasMarker() {
			t.Fatalf("cycle %d: expected marker while recording", i)
		}

		res, err := c.Toggle(context.Background())
		if err != nil {
			t.Fatalf("cycle %d: stop: %v", i, err)
		}
		if res.Outcome != Transcribed || res.Text != "again" {
			t.Errorf("cycle %d: unexpected result %+v", i, res)
		}
		if res.Audio == nil || !res.Audio.Exists || res.Audio.Size <= 0 {
			t.Fatalf("cycle %d: expected a non-empty artifact, got %+v", i, res.Audio)
		}
		data, err := os.ReadFile(store.AudioPath)
		if err != nil || int64(len(data)) != res.Audio.Size {
			t.Errorf("cycle %d: artifact not readable as reported: %d bytes, %v", i, len(data), err)
		}
		if store.HasMarker() {
			t.Errorf("cycle %d: expected marker to be removed", i)
		}
	}

	for _, pid := range pids {
		if process.Alive(pid) {
			t.Errorf("recorder %d still running", pid)
		}
	}
}

func TestToggleWithoutNotifier(t *testing.T) {
	store := testStore(t)
	c := New(shellConfig(recordLoud), store, &fakeTranscriber{})

	pid := startSession(t, c)
	if got, err := store.ReadMarker(); err != nil || got != pid {
		t.Fatalf("expected marker with pid %d, got %d (%v)", pid, got, err)
	}
	res, err := c.Toggle(context.Background())
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if res.Outcome != NoSpeech || store.HasMarker() || process.Alive(pid) {
		t.Errorf("expected a clean NoSpeech stop, got %+v", res)
	}
}

func TestStopLogsStoppingState(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "dictate", &buf)
	store := testStore(t)
	c := New(shellConfig(recordLoud), store, &fakeTranscriber{text: "x"}, WithLogger(log))

	startSession(t, c)
	if _, err := c.Toggle(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !strings.Contains(buf.String(), `"state":"stopping"`) {
		t.Errorf("expected the stopping state to be logged, got %q", buf.String())
	}
}

func TestToggleNoSpeech(t *testing.T) {
	tests := []struct {
		name      string
		script    string
		text      string
		wantCalls int
	}{
		{"undersized audio skips the daemon", recordQuiet, "unused", 0},
		{"empty transcript", recordLoud, "   ", 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := testStore(t)
			fake := &fakeTranscriber{text: tc.text}
			sink := &captured{}
			c := New(shellConfig(tc.script), store, fake, WithConsumer(sink))

			startSession(t, c)
			res, err := c.Toggle(context.Background())
			if err != nil {
				t.Fatalf("stop: %v", err)
			}
			if res.Outcome != NoSpeech {
				t.Errorf("expected NoSpeech, got %v", res.Outcome)
			}
			if fake.calls != tc.wantCalls {
				t.Errorf("expected %d daemon calls, got %d", tc.wantCalls, fake.calls)
			}
			if len(sink.texts) != 0 {
				t.Errorf("nothing should be delivered, got %v", sink.texts)
			}
			if store.HasMarker() {
				t.Error("expected marker to be removed")
			}
		})
	}
}

func TestToggleDaemonUnavailable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	store := testStore(t)
	client := protocol.NewClient(protocol.ClientConfig{Addr: addr, DialTimeout: 500 * time.Millisecond})
	c := New(shellConfig(recordLoud), store, client)

	pid := startSession(t, c)
	_, err = c.Toggle(context.Background())
	if !apperrors.IsCode(err, apperrors.ErrCodeDaemonUnavailable) {
		t.Fatalf("expected DAEMON_UNAVAILABLE, got %v", err)
	}
	if apperrors.ExitCode(err) != apperrors.ExitUnavailable {
		t.Errorf("expected exit code %d, got %d", apperrors.ExitUnavailable, apperrors.ExitCode(err))
	}
	if store.HasMarker() || process.Alive(pid) {
		t.Error("expected session to be torn down even though the daemon is down")
	}
}

func TestToggleDaemonError(t *testing.T) {
	store := testStore(t)
	fake := &fakeTranscriber{err: apperrors.TranscriptionFailed("model crashed")}
	c := New(shellConfig(recordLoud), store, fake)

	startSession(t, c)
	_, err := c.Toggle(context.Background())
	if !apperrors.IsCode(err, apperrors.ErrCodeTranscriptionFailed) {
		t.Fatalf("expected TRANSCRIPTION_FAILED, got %v", err)
	}
	if store.HasMarker() {
		t.Error("expected marker to be removed")
	}
}

func TestToggleStaleMarker(t *testing.T) {
	h, err := process.Spawn(process.Command{Binary: "true"})
	if err != nil {
		t.Fatal(err)
	}
	<-h.Exited()

	tests := []struct {
		name   string
		marker string
		pid    int
	}{
		{"garbage", "not-a-pid\n", 0},
		{"dead process", strconv.Itoa(h.PID) + "\n", h.PID},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := testStore(t)
			if err := os.WriteFile(store.MarkerPath, []byte(tc.marker), 0o600); err != nil {
				t.Fatal(err)
			}
			fake := &fakeTranscriber{}
			c := New(shellConfig(recordLoud), store, fake)

			res, err := c.Toggle(context.Background())
			if err != nil {
				t.Fatalf("toggle: %v", err)
			}
			if res.Outcome != NoSpeech || res.PID != tc.pid {
				t.Errorf("unexpected result %+v", res)
			}
			if store.HasMarker() {
				t.Error("expected stale marker to be removed")
			}
			if fake.calls != 0 {
				t.Error("daemon must not be contacted without audio")
			}
		})
	}
}

func TestToggleStartFailures(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing binary", Config{Binary: filepath.Join(t.TempDir(), "no-such-recorder")}},
		{"exits immediately", func() Config {
			cfg := shellConfig(recordCrashy)
			cfg.StartupProbe = 500 * time.Millisecond
			return cfg
		}()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := testStore(t)
			c := New(tc.cfg, store, &fakeTranscriber{})
			_, err := c.Toggle(context.Background())
			if !apperrors.IsCode(err, apperrors.ErrCodeRecorderFailed) {
				t.Fatalf("expected RECORDER_FAILED, got %v", err)
			}
			if store.HasMarker() {
				t.Error("a failed start must not leave a marker")
			}
		})
	}
}

func TestStartKillsRecorderWhenMarkerExists(t *testing.T) {
	store := testStore(t)
	if err := store.WriteMarker(os.Getpid()); err != nil {
		t.Fatal(err)
	}
	c := New(shellConfig(recordLoud), store, &fakeTranscriber{})

	_, err := c.start()
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || !errors.Is(err, handoff.ErrMarkerExists) {
		t.Fatalf("expected marker conflict, got %v", err)
	}
	pid, _ := appErr.Details["pid"].(int)
	if pid <= 0 {
		t.Fatalf("expected pid detail, got %v", appErr.Details)
	}
	if process.Alive(pid) {
		t.Error("expected the just-spawned recorder to be killed")
	}
	if got, _ := store.ReadMarker(); got != os.Getpid() {
		t.Error("the existing marker must be left alone")
	}
}

func TestStopEscalatesToKill(t *testing.T) {
	store := testStore(t)
	cfg := shellConfig(recordStuck)
	cfg.GracePeriod = 200 * time.Millisecond
	c := New(cfg, store, &fakeTranscriber{text: "done"})

	pid := startSession(t, c)
	start := time.Now()
	res, err := c.Toggle(context.Background())
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if time.Since(start) < cfg.GracePeriod {
		t.Error("expected stop to wait out the grace period")
	}
	if process.Alive(pid) {
		t.Error("expected recorder to be killed")
	}
	if res.Outcome != Transcribed {
		t.Errorf("expected Transcribed, got %v", res.Outcome)
	}
}

func TestStopLeavesForeignProcessAlone(t *testing.T) {
	h, err := process.Spawn(process.Command{Binary: "sleep", Args: []string{"5"}})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _, _ = process.Terminate(h.PID, process.TerminateOptions{}) })

	store := testStore(t)
	if err := store.WriteMarker(h.PID); err != nil {
		t.Fatal(err)
	}
	c := New(shellConfig(recordLoud), store, &fakeTranscriber{})

	if _, err := c.Toggle(context.Background()); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !process.Alive(h.PID) {
		t.Error("a process that is not the recorder must not be signalled")
	}
	if store.HasMarker() {
		t.Error("expected marker to be removed")
	}
}

func TestStopSignalsProcessNames(t *testing.T) {
	h, err := process.Spawn(process.Command{Binary: "sleep", Args: []string{"5"}})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _, _ = process.Terminate(h.PID, process.TerminateOptions{}) })

	store := testStore(t)
	if err := store.WriteMarker(h.PID); err != nil {
		t.Fatal(err)
	}
	cfg := shellConfig(recordLoud)
	cfg.ProcessNames = []string{"sleep"}
	c := New(cfg, store, &fakeTranscriber{})

	if _, err := c.Toggle(context.Background()); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if process.Alive(h.PID) {
		t.Error("a recorder running under one of its process names must be stopped")
	}
	if store.HasMarker() {
		t.Error("expected marker to be removed")
	}
}

func TestStatus(t *testing.T) {
	store := testStore(t)
	c := New(shellConfig(recordLoud), store, &fakeTranscriber{text: "x"})

	sess, err := c.Status()
	if err != nil || sess.State != handoff.Idle {
		t.Fatalf("expected idle, got %+v (%v)", sess, err)
	}

	pid := startSession(t, c)
	sess, err = c.Status()
	if err != nil {
		t.Fatal(err)
	}
	if sess.State != handoff.Recording || sess.PID != pid || sess.Stale {
		t.Errorf("unexpected session %+v", sess)
	}
	if !process.Alive(pid) || !store.HasMarker() {
		t.Error("Status must not change anything")
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Binary != DefaultBinary || cfg.GracePeriod != DefaultGracePeriod || cfg.MinAudioBytes != DefaultMinAudioBytes {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	want := []string{"-f", "pulse", "-i", "default", "-ac", "1", "-ar", "16000", "-y", "/tmp/a.wav"}
	got := cfg.captureArgs("/tmp/a.wav")
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestConfigValidate(t *testing.T) {
	for _, sig := range []string{"", "TERM", "INT", "SIGINT"} {
		cfg := Config{StopSignal: sig}
		if err := cfg.Validate(); err != nil {
			t.Errorf("%q: unexpected error %v", sig, err)
		}
	}
	cfg := Config{StopSignal: "HUP"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected HUP to be rejected")
	}
}

func TestOutcomeString(t *testing.T) {
	var zero Result
	if zero.Outcome != Unknown {
		t.Errorf("a zero Result must not read as an outcome, got %v", zero.Outcome)
	}
	for o, want := range map[Outcome]string{Unknown: "unknown", Started: "started", Transcribed: "transcribed", NoSpeech: "no_speech", Outcome(9): "unknown"} {
		if o.String() != want {
			t.Errorf("expected %q, got %q", want, o.String())
		}
	}
}
