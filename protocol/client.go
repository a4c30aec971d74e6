package protocol

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	apperrors "github.com/kbukum/dictate/errors"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	// Addr is the daemon's host:port.
	Addr string `yaml:"addr" mapstructure:"addr" validate:"required,hostname_port"`
	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	// ResponseTimeout bounds the whole exchange once connected. Zero waits
	// for as long as the daemon takes.
	ResponseTimeout time.Duration `yaml:"response_timeout" mapstructure:"response_timeout"`
}

// ApplyDefaults fills unset fields.
func (c *ClientConfig) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 2 * time.Second
	}
}

// Client sends commands to the daemon.
type Client struct {
	cfg ClientConfig
}

// NewClient creates a Client. Unset fields take their defaults.
func NewClient(cfg ClientConfig) *Client {
	cfg.ApplyDefaults()
	return &Client{cfg: cfg}
}

// Addr returns the daemon address the client dials.
func (c *Client) Addr() string { return c.cfg.Addr }

// Transcribe asks the daemon to transcribe the audio artifact. An empty
// string with a nil error means no text was recognized. When the daemon
// cannot be reached the error has code DAEMON_UNAVAILABLE.
func (c *Client) Transcribe(ctx context.Context) (string, error) {
	return c.Do(ctx, CommandTranscribe)
}

// Do sends one command and returns the decoded response.
func (c *Client) Do(ctx context.Context, command string) (string, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if c.cfg.ResponseTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(c.cfg.ResponseTimeout))
	}

	if _, err := conn.Write([]byte(command)); err != nil {
		return "", apperrors.DaemonUnavailable(c.cfg.Addr).WithCause(err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.CloseWrite()
	}

	raw, err := io.ReadAll(conn)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return "", apperrors.Timeout("transcribe").WithCause(err)
		}
		return "", apperrors.TranscriptionFailed(fmt.Sprintf("connection to daemon lost: %v", err)).WithCause(err)
	}
	return Decode(raw)
}

// Ping checks that something accepts connections at the daemon address.
func (c *Client) Ping(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	return conn.Close()
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", c.cfg.Addr)
	if err != nil {
		return nil, apperrors.DaemonUnavailable(c.cfg.Addr).WithCause(err)
	}
	return conn, nil
}
