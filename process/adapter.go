package process

import (
	"context"
	"time"

	"github.com/kbukum/dictate/provider"
)

var _ provider.RequestResponse[Command, *Result] = (*Adapter)(nil)

// Config configures a process adapter.
type Config struct {
	// Name identifies the adapter in logs and errors.
	Name string `yaml:"name,omitempty" mapstructure:"name"`
	// GracePeriod applies to commands that do not set their own.
	GracePeriod time.Duration `yaml:"grace_period,omitempty" mapstructure:"grace_period"`
	// Timeout bounds each run. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	// Binary, when set, must resolve on PATH for the adapter to report itself available.
	Binary string `yaml:"binary,omitempty" mapstructure:"binary"`
}

// Adapter runs one-shot commands as a provider.RequestResponse.
type Adapter struct {
	config Config
}

// NewAdapter creates a process adapter.
func NewAdapter(cfg Config) *Adapter {
	return &Adapter{config: cfg}
}

// Run executes cmd with the adapter's defaults applied.
func (a *Adapter) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.GracePeriod == 0 && a.config.GracePeriod > 0 {
		cmd.GracePeriod = a.config.GracePeriod
	}
	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}
	return Run(ctx, cmd)
}

func (a *Adapter) Name() string { return a.config.Name }

// IsAvailable reports whether the configured binary can be found.
func (a *Adapter) IsAvailable(_ context.Context) bool {
	if a.config.Binary == "" {
		return true
	}
	return LookPath(a.config.Binary) == nil
}

func (a *Adapter) Execute(ctx context.Context, cmd Command) (*Result, error) {
	return a.Run(ctx, cmd)
}
