package delivery

import (
	"fmt"
	"io"
	"time"

	apperrors "github.com/kbukum/dictate/errors"
	"github.com/kbukum/dictate/logger"
)

// Delivery targets.
const (
	TargetClipboard = "clipboard"
	TargetType      = "type"
	TargetStdout    = "stdout"
)

// Notification modes.
const (
	NotifyDesktop = "desktop"
	NotifyNone    = "none"
)

const (
	DefaultTypeBinary = "xdotool"
	DefaultTypeDelay  = 10 * time.Millisecond
	DefaultTitle      = "Whisper"
)

// Config selects where transcripts go and how the user is notified.
type Config struct {
	// Targets run in order. Defaults to clipboard then type.
	Targets       []string      `yaml:"targets" mapstructure:"targets" validate:"dive,oneof=clipboard type stdout"`
	TypeBinary    string        `yaml:"type_binary" mapstructure:"type_binary"`
	TypeDelay     time.Duration `yaml:"type_delay" mapstructure:"type_delay" validate:"gte=0"`
	Notifications string        `yaml:"notifications" mapstructure:"notifications" validate:"omitempty,oneof=desktop none"`
	Title         string        `yaml:"title" mapstructure:"title"`
	Icon          string        `yaml:"icon" mapstructure:"icon"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Targets == nil {
		c.Targets = []string{TargetClipboard, TargetType}
	}
	if c.TypeBinary == "" {
		c.TypeBinary = DefaultTypeBinary
	}
	if c.TypeDelay == 0 {
		c.TypeDelay = DefaultTypeDelay
	}
	if c.Notifications == "" {
		c.Notifications = NotifyDesktop
	}
	if c.Title == "" {
		c.Title = DefaultTitle
	}
}

// Validate checks the targets and notification mode.
func (c *Config) Validate() error {
	for _, t := range c.Targets {
		switch t {
		case TargetClipboard, TargetType, TargetStdout:
		default:
			return fmt.Errorf("delivery.targets: unknown target %q", t)
		}
	}
	switch c.Notifications {
	case "", NotifyDesktop, NotifyNone:
	default:
		return fmt.Errorf("delivery.notifications: unknown mode %q", c.Notifications)
	}
	return nil
}

// New builds the consumer chain for cfg. stdout receives the stdout target.
func New(cfg Config, stdout io.Writer, log *logger.Logger) (*Fanout, error) {
	cfg.ApplyDefaults()
	consumers := make([]Consumer, 0, len(cfg.Targets))
	for _, t := range cfg.Targets {
		switch t {
		case TargetClipboard:
			consumers = append(consumers, Clipboard{})
		case TargetType:
			consumers = append(consumers, NewTyper(cfg.TypeBinary, cfg.TypeDelay))
		case TargetStdout:
			consumers = append(consumers, Writer{W: stdout})
		default:
			return nil, apperrors.InvalidInput("delivery.targets", "unknown target "+t)
		}
	}
	return NewFanout(log, consumers...), nil
}
