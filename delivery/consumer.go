package delivery

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/atotto/clipboard"

	apperrors "github.com/kbukum/dictate/errors"
	"github.com/kbukum/dictate/logger"
	"github.com/kbukum/dictate/process"
)

// Consumer receives a transcript.
type Consumer interface {
	Name() string
	Deliver(ctx context.Context, text string) error
}

// Clipboard copies the transcript to the system clipboard.
type Clipboard struct{}

func (Clipboard) Name() string { return TargetClipboard }

func (Clipboard) Deliver(_ context.Context, text string) error {
	if clipboard.Unsupported {
		return apperrors.ServiceUnavailable("clipboard")
	}
	if err := clipboard.WriteAll(text); err != nil {
		return apperrors.ExternalServiceError("clipboard", err)
	}
	return nil
}

// Typer types the transcript into the focused window.
type Typer struct {
	adapter *process.Adapter
	binary  string
	delay   time.Duration
}

// NewTyper creates a Typer running binary (xdotool when empty) with a
// per-keystroke delay.
func NewTyper(binary string, delay time.Duration) *Typer {
	if binary == "" {
		binary = DefaultTypeBinary
	}
	return &Typer{
		adapter: process.NewAdapter(process.Config{
			Name:    TargetType,
			Binary:  binary,
			Timeout: 2 * time.Minute,
		}),
		binary: binary,
		delay:  delay,
	}
}

func (t *Typer) Name() string { return TargetType }

func (t *Typer) Deliver(ctx context.Context, text string) error {
	res, err := t.adapter.Run(ctx, process.Command{Binary: t.binary, Args: t.args(text)})
	if err != nil {
		if tail := res.StderrTail(); tail != "" {
			err = fmt.Errorf("%w: %s", err, tail)
		}
		return apperrors.ExternalServiceError(t.binary, err)
	}
	return nil
}

func (t *Typer) args(text string) []string {
	return []string{"type", "--delay", strconv.FormatInt(t.delay.Milliseconds(), 10), "--", text}
}

// Writer prints the transcript followed by a newline.
type Writer struct {
	W io.Writer
}

func (Writer) Name() string { return TargetStdout }

func (w Writer) Deliver(_ context.Context, text string) error {
	_, err := fmt.Fprintln(w.W, text)
	return err
}

// Fanout delivers to every consumer in order. Failures are logged and never
// returned.
type Fanout struct {
	consumers []Consumer
	log       *logger.Logger
}

// NewFanout creates a Fanout. A nil logger discards failures.
func NewFanout(log *logger.Logger, consumers ...Consumer) *Fanout {
	if log == nil {
		log = logger.Nop()
	}
	return &Fanout{consumers: consumers, log: log}
}

func (f *Fanout) Name() string { return "fanout" }

// Targets lists the consumer names in delivery order.
func (f *Fanout) Targets() []string {
	names := make([]string, 0, len(f.consumers))
	for _, c := range f.consumers {
		names = append(names, c.Name())
	}
	return names
}

func (f *Fanout) Deliver(ctx context.Context, text string) error {
	for _, c := range f.consumers {
		if err := c.Deliver(ctx, text); err != nil {
			f.log.Warn("delivery failed", logger.Fields("target", c.Name(), logger.FieldError, err.Error()))
			continue
		}
		f.log.Debug("delivered", logger.Fields("target", c.Name(), "chars", len(text)))
	}
	return nil
}
