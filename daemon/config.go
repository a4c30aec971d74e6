package daemon

import (
	"time"

	"github.com/kbukum/dictate/protocol"
	"github.com/kbukum/dictate/provider"
	"github.com/kbukum/dictate/resilience"
	"github.com/kbukum/dictate/transcription"
)

// Config configures the control listener.
type Config struct {
	// Addr is the loopback host:port to listen on.
	Addr string `yaml:"addr" mapstructure:"addr" validate:"required,hostname_port"`
	// ReadTimeout bounds reading the command tag.
	ReadTimeout time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	// WriteTimeout bounds writing the response.
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	// MaxCommandBytes bounds how much of a request is read.
	MaxCommandBytes int `yaml:"max_command_bytes" mapstructure:"max_command_bytes" validate:"gte=0"`
	// ShutdownTimeout bounds waiting for the in-flight request on shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = protocol.DefaultAddr
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 5 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.MaxCommandBytes <= 0 {
		c.MaxCommandBytes = protocol.MaxCommandBytes
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}

// ModelConfig selects and parameterizes the transcription backend.
type ModelConfig struct {
	// Provider is the registered backend name.
	Provider string `yaml:"provider" mapstructure:"provider" validate:"required"`
	// Model overrides the backend's default model.
	Model string `yaml:"model" mapstructure:"model"`
	// Language forces the spoken language; empty lets the model detect it.
	Language string `yaml:"language" mapstructure:"language"`
	// BeamSize is the decoder beam width.
	BeamSize int `yaml:"beam_size" mapstructure:"beam_size" validate:"gte=1,lte=16"`
	// Options are passed to the backend factory.
	Options map[string]any `yaml:"options" mapstructure:"options"`

	// CircuitBreaker, when set, fails requests fast after repeated errors.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	// Retry, when set, retries failed transcriptions.
	Retry *resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// ApplyDefaults fills unset fields.
func (c *ModelConfig) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = "whisper"
	}
	if c.BeamSize <= 0 {
		c.BeamSize = transcription.DefaultBeamSize
	}
	if c.CircuitBreaker != nil && c.CircuitBreaker.Name == "" {
		c.CircuitBreaker.Name = c.Provider
	}
}

// Resilience returns the provider resilience policies.
func (c *ModelConfig) Resilience() provider.ResilienceConfig {
	return provider.ResilienceConfig{CircuitBreaker: c.CircuitBreaker, Retry: c.Retry}
}
