package handoff

import (
	"fmt"
	"os"
	"path/filepath"
)

// Default file names, placed in the system temporary directory.
const (
	DefaultMarkerName = "whisper_rec.pid"
	DefaultAudioName  = "whisper_audio.wav"
)

// Config locates the marker file and the audio artifact.
type Config struct {
	MarkerPath string `yaml:"marker" mapstructure:"marker"`
	AudioPath  string `yaml:"audio" mapstructure:"audio"`
}

// ApplyDefaults fills unset paths.
func (c *Config) ApplyDefaults() {
	if c.MarkerPath == "" {
		c.MarkerPath = filepath.Join(os.TempDir(), DefaultMarkerName)
	}
	if c.AudioPath == "" {
		c.AudioPath = filepath.Join(os.TempDir(), DefaultAudioName)
	}
}

// Validate checks that both paths are set and distinct.
func (c *Config) Validate() error {
	if c.MarkerPath == "" {
		return fmt.Errorf("paths.marker is required")
	}
	if c.AudioPath == "" {
		return fmt.Errorf("paths.audio is required")
	}
	if filepath.Clean(c.MarkerPath) == filepath.Clean(c.AudioPath) {
		return fmt.Errorf("paths.marker and paths.audio must differ (both %s)", c.MarkerPath)
	}
	return nil
}
