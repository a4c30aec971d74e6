package recorder

import (
	"fmt"
	"syscall"
	"time"
)

const (
	DefaultBinary        = "ffmpeg"
	DefaultStartupProbe  = 500 * time.Millisecond
	DefaultGracePeriod   = 3 * time.Second
	DefaultKillWait      = time.Second
	DefaultMinAudioBytes = 1000
)

// DefaultInputArgs captures the default PulseAudio source.
var DefaultInputArgs = []string{"-f", "pulse", "-i", "default"}

// Config configures the capture subprocess and how it is stopped.
type Config struct {
	// Binary is the capture program. It receives InputArgs followed by
	// "-ac 1 -ar 16000 -y <audio path>".
	Binary    string   `yaml:"binary" mapstructure:"binary"`
	InputArgs []string `yaml:"input_args" mapstructure:"input_args"`
	// StartupProbe is how long Toggle waits to see whether the recorder dies
	// right after starting. Negative disables the probe.
	StartupProbe time.Duration `yaml:"startup_probe" mapstructure:"startup_probe"`
	// StopSignal is TERM or INT.
	StopSignal    string        `yaml:"stop_signal" mapstructure:"stop_signal" validate:"omitempty,oneof=TERM INT SIGTERM SIGINT"`
	GracePeriod   time.Duration `yaml:"grace_period" mapstructure:"grace_period" validate:"gte=0"`
	KillWait      time.Duration `yaml:"kill_wait" mapstructure:"kill_wait" validate:"gte=0"`
	MinAudioBytes int64         `yaml:"min_audio_bytes" mapstructure:"min_audio_bytes" validate:"gte=0"`
	// LogFile receives the recorder's output. Discarded when empty.
	LogFile string `yaml:"log_file" mapstructure:"log_file"`
	// ProcessNames are extra names the running recorder may appear under,
	// for a Binary that is a wrapper exec'ing the real capture program.
	ProcessNames []string `yaml:"process_names" mapstructure:"process_names"`
	// SkipBinaryCheck signals the marker PID even when the running process
	// looks like neither Binary nor any of ProcessNames. Without it, a marker
	// whose process has another name is removed and the process is left
	// running.
	SkipBinaryCheck bool `yaml:"skip_binary_check" mapstructure:"skip_binary_check"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = DefaultBinary
	}
	if c.InputArgs == nil {
		c.InputArgs = append([]string(nil), DefaultInputArgs...)
	}
	if c.StartupProbe == 0 {
		c.StartupProbe = DefaultStartupProbe
	}
	if c.StopSignal == "" {
		c.StopSignal = "TERM"
	}
	if c.GracePeriod == 0 {
		c.GracePeriod = DefaultGracePeriod
	}
	if c.KillWait == 0 {
		c.KillWait = DefaultKillWait
	}
	if c.MinAudioBytes == 0 {
		c.MinAudioBytes = DefaultMinAudioBytes
	}
}

// Validate checks the stop signal.
func (c *Config) Validate() error {
	if _, err := parseSignal(c.StopSignal); err != nil {
		return err
	}
	return nil
}

// captureArgs returns the full argument list for writing to audioPath.
func (c *Config) captureArgs(audioPath string) []string {
	args := make([]string, 0, len(c.InputArgs)+6)
	args = append(args, c.InputArgs...)
	return append(args, "-ac", "1", "-ar", "16000", "-y", audioPath)
}

func parseSignal(name string) (syscall.Signal, error) {
	switch name {
	case "", "TERM", "SIGTERM":
		return syscall.SIGTERM, nil
	case "INT", "SIGINT":
		return syscall.SIGINT, nil
	default:
		return 0, fmt.Errorf("recorder.stop_signal: unsupported signal %q", name)
	}
}
