package server

import (
	"fmt"
	"net"
	"time"
)

// Config holds status server configuration.
type Config struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Addr is the host:port to bind. Loopback only.
	Addr string `yaml:"addr" mapstructure:"addr" validate:"omitempty,hostname_port"`
	// MaxConns caps concurrently open connections.
	MaxConns     int           `yaml:"max_conns" mapstructure:"max_conns" validate:"gte=0"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:65433"
	}
	if c.MaxConns == 0 {
		c.MaxConns = 8
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 5 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 30 * time.Second
	}
}

// Validate checks that the server binds to a loopback address.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	host, _, err := net.SplitHostPort(c.Addr)
	if err != nil {
		return fmt.Errorf("status.addr: %w", err)
	}
	if host == "localhost" {
		return nil
	}
	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("status.addr must be a loopback address (got: %s)", c.Addr)
	}
	return nil
}
