package process

import (
	"context"
	"os/exec"

	apperrors "github.com/kbukum/dictate/errors"
)

// LookPath reports whether binary resolves to an executable.
func LookPath(binary string) error {
	_, err := exec.LookPath(binary)
	return err
}

// SubprocessProvider runs a command per request and parses its output.
// buildCmd turns the input into a Command; parseOut turns the Result into
// the output type.
type SubprocessProvider[I, O any] struct {
	name      string
	buildCmd  func(I) Command
	parseOut  func(*Result) (O, error)
	available func(context.Context) bool
}

// NewSubprocessProvider creates a RequestResponse provider backed by a subprocess.
func NewSubprocessProvider[I, O any](
	name string,
	buildCmd func(I) Command,
	parseOut func(*Result) (O, error),
) *SubprocessProvider[I, O] {
	return &SubprocessProvider[I, O]{
		name:     name,
		buildCmd: buildCmd,
		parseOut: parseOut,
	}
}

// WithAvailabilityCheck sets a custom availability check.
func (p *SubprocessProvider[I, O]) WithAvailabilityCheck(fn func(context.Context) bool) *SubprocessProvider[I, O] {
	p.available = fn
	return p
}

func (p *SubprocessProvider[I, O]) Name() string { return p.name }

func (p *SubprocessProvider[I, O]) IsAvailable(ctx context.Context) bool {
	if p.available != nil {
		return p.available(ctx)
	}
	return true
}

// Execute runs the command built from input. A non-zero exit is reported as
// an external service error carrying the last line of stderr.
func (p *SubprocessProvider[I, O]) Execute(ctx context.Context, input I) (O, error) {
	result, err := Run(ctx, p.buildCmd(input))
	if err != nil {
		var zero O
		appErr := apperrors.ExternalServiceError(p.name, err)
		if tail := result.StderrTail(); tail != "" {
			appErr = appErr.WithDetail("stderr", tail)
		}
		return zero, appErr
	}
	return p.parseOut(result)
}
