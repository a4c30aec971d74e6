// Package command is a transcription backend that runs a configured
// executable once per request. It suits whisper.cpp style CLIs and scripts.
//
// Args may use the placeholders {audio}, {beam}, {model} and {language}.
// Stdout is parsed as JSON
//
//	{"text": "...", "segments": [{"start":0,"end":1,"text":"..."}],
//	 "language": "en", "language_probability": 0.98}
//
// and, when it is not JSON, as plain text with one segment per non-empty line.
package command

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/kbukum/dictate/errors"
	"github.com/kbukum/dictate/process"
	"github.com/kbukum/dictate/provider"
	"github.com/kbukum/dictate/transcription"
)

// ProviderName is the registered name for the command provider.
const ProviderName = "command"

// Config holds configuration for the command provider.
type Config struct {
	Binary   string   `json:"binary" yaml:"binary" mapstructure:"binary"`
	Args     []string `json:"args" yaml:"args" mapstructure:"args"`
	Model    string   `json:"model" yaml:"model" mapstructure:"model"`
	Language string   `json:"language" yaml:"language" mapstructure:"language"`
	Env      []string `json:"env" yaml:"env" mapstructure:"env"`
	Dir      string   `json:"dir" yaml:"dir" mapstructure:"dir"`
	// Timeout bounds a single run. Zero means no limit.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// Provider runs Config.Binary per request.
type Provider struct {
	cfg   Config
	inner *process.SubprocessProvider[transcription.Request, *transcription.Response]
}

var _ transcription.Provider = (*Provider)(nil)

// NewProvider creates a command provider.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Binary == "" {
		return nil, apperrors.MissingField("binary")
	}
	if len(cfg.Args) == 0 {
		cfg.Args = []string{"{audio}"}
	}
	p := &Provider{cfg: cfg}
	p.inner = process.NewSubprocessProvider(ProviderName, p.buildCmd, parseOutput).
		WithAvailabilityCheck(func(context.Context) bool {
			return process.LookPath(cfg.Binary) == nil
		})
	return p, nil
}

// Factory returns a provider.Factory for the command backend.
func Factory() provider.Factory[transcription.Provider] {
	return func(opts map[string]any) (transcription.Provider, error) {
		var cc Config
		if err := transcription.DecodeOptions(opts, &cc); err != nil {
			return nil, apperrors.InvalidInput("model.options", err.Error()).WithCause(err)
		}
		return NewProvider(cc)
	}
}

func (p *Provider) Name() string { return ProviderName }

func (p *Provider) IsAvailable(ctx context.Context) bool { return p.inner.IsAvailable(ctx) }

// Init checks that the binary resolves, so a bad configuration fails at boot
// instead of on the first request.
func (p *Provider) Init(_ context.Context) error {
	if err := process.LookPath(p.cfg.Binary); err != nil {
		return apperrors.ModelLoadFailed(ProviderName).WithCause(err).WithDetail("binary", p.cfg.Binary)
	}
	return nil
}

// Execute runs the binary against req.AudioPath.
func (p *Provider) Execute(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}
	return p.inner.Execute(ctx, req)
}

func (p *Provider) buildCmd(req transcription.Request) process.Command {
	model, lang := p.cfg.Model, p.cfg.Language
	if req.Model != "" {
		model = req.Model
	}
	if req.Language != "" {
		lang = req.Language
	}
	beam := req.BeamSize
	if beam <= 0 {
		beam = transcription.DefaultBeamSize
	}
	return process.Command{
		Binary: p.cfg.Binary,
		Args: transcription.Expand(p.cfg.Args, map[string]string{
			"audio":    req.AudioPath,
			"beam":     strconv.Itoa(beam),
			"model":    model,
			"language": lang,
		}),
		Dir: p.cfg.Dir,
		Env: p.cfg.Env,
	}
}

func parseOutput(res *process.Result) (*transcription.Response, error) {
	out := bytes.TrimSpace(res.Stdout)
	if len(out) > 0 && out[0] == '{' {
		var resp transcription.Response
		if err := json.Unmarshal(out, &resp); err != nil {
			return nil, apperrors.TranscriptionFailed("invalid JSON from transcription command").WithCause(err)
		}
		return &resp, nil
	}
	resp := &transcription.Response{}
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			resp.Segments = append(resp.Segments, transcription.Segment{Text: line})
		}
	}
	return resp, nil
}
