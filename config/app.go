package config

import (
	"github.com/kbukum/dictate/daemon"
	apperrors "github.com/kbukum/dictate/errors"
	"github.com/kbukum/dictate/delivery"
	"github.com/kbukum/dictate/handoff"
	"github.com/kbukum/dictate/observability"
	"github.com/kbukum/dictate/protocol"
	"github.com/kbukum/dictate/recorder"
	"github.com/kbukum/dictate/server"
	"github.com/kbukum/dictate/validation"
)

const (
	// DefaultServiceName names the config directory and the log tag.
	DefaultServiceName = "dictate"
	// EnvPrefix marks environment overrides, e.g. DICTATE_DAEMON_ADDR.
	EnvPrefix = "DICTATE"
)

// App is the complete configuration of the toggle and the daemon. Both read
// the same file so they agree on paths and the daemon address.
type App struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Paths     handoff.Config        `yaml:"paths" mapstructure:"paths"`
	Recorder  recorder.Config       `yaml:"recorder" mapstructure:"recorder"`
	Daemon    daemon.Config         `yaml:"daemon" mapstructure:"daemon"`
	Client    protocol.ClientConfig `yaml:"client" mapstructure:"client"`
	Model     daemon.ModelConfig    `yaml:"model" mapstructure:"model"`
	Delivery  delivery.Config       `yaml:"delivery" mapstructure:"delivery"`
	Status    server.Config         `yaml:"status" mapstructure:"status"`
	Telemetry observability.Config  `yaml:"telemetry" mapstructure:"telemetry"`
}

// ApplyDefaults fills every unset field. The client talks to daemon.addr
// unless client.addr says otherwise.
func (c *App) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Paths.ApplyDefaults()
	c.Recorder.ApplyDefaults()
	c.Daemon.ApplyDefaults()
	if c.Client.Addr == "" {
		c.Client.Addr = c.Daemon.Addr
	}
	c.Client.ApplyDefaults()
	c.Model.ApplyDefaults()
	c.Delivery.ApplyDefaults()
	c.Status.ApplyDefaults()
	if c.Telemetry.Environment == "" {
		c.Telemetry.Environment = c.Environment
	}
	c.Telemetry.ApplyDefaults()
}

// Validate checks struct tags, each section, and the rules that span
// sections.
func (c *App) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	sections := []interface{ Validate() error }{
		&c.Paths, &c.Recorder, &c.Delivery, &c.Status, &c.Telemetry,
	}
	for _, s := range sections {
		if err := s.Validate(); err != nil {
			return err
		}
	}

	v := validation.New()
	v.Required("recorder.binary", c.Recorder.Binary)
	v.Loopback("daemon.addr", c.Daemon.Addr)
	v.Loopback("client.addr", c.Client.Addr)
	v.Range("model.beam_size", c.Model.BeamSize, 1, 16)
	if c.Status.Enabled {
		v.Custom(c.Status.Addr != c.Daemon.Addr, "status.addr", "must differ from daemon.addr")
	}
	return v.Err()
}

// Load reads the application config, applies defaults and validates it.
// path may be empty to search the standard locations. The second result is
// the file that was read, or "" when none was found. Every failure is an
// INVALID_INPUT AppError, so the CLI exits with the usage status.
func Load(path string, opts ...LoaderOption) (*App, string, error) {
	var cfg App
	all := append([]LoaderOption{WithConfigFile(path), WithEnvPrefix(EnvPrefix)}, opts...)
	used, err := LoadConfig(DefaultServiceName, &cfg, all...)
	if err != nil {
		return nil, "", asConfigError(err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, used, asConfigError(err)
	}
	return &cfg, used, nil
}

func asConfigError(err error) error {
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	return apperrors.Validation(err.Error())
}
