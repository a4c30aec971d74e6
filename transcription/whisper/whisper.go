// Package whisper is a transcription backend that talks to a faster-whisper
// compatible HTTP sidecar. The sidecar can be an independent service or a
// process the daemon starts at boot and stops at shutdown.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/kbukum/dictate/errors"
	"github.com/kbukum/dictate/logger"
	"github.com/kbukum/dictate/process"
	"github.com/kbukum/dictate/provider"
	"github.com/kbukum/dictate/resilience"
	"github.com/kbukum/dictate/transcription"
)

const (
	// ProviderName is the registered name for the Whisper provider.
	ProviderName = "whisper"

	defaultWhisperURL     = "http://127.0.0.1:8387"
	defaultWhisperModel   = "base"
	defaultWhisperTimeout = 120 * time.Second
	defaultLoadTimeout    = 120 * time.Second
	defaultHealthInterval = 250 * time.Millisecond
)

// Config holds configuration for the Whisper transcription provider.
type Config struct {
	URL         string        `json:"url" yaml:"url" mapstructure:"url"`
	Model       string        `json:"model" yaml:"model" mapstructure:"model"`
	ModelPath   string        `json:"model_path,omitempty" yaml:"model_path" mapstructure:"model_path"`
	Language    string        `json:"language,omitempty" yaml:"language" mapstructure:"language"`
	Device      string        `json:"device,omitempty" yaml:"device" mapstructure:"device"`
	ComputeType string        `json:"compute_type,omitempty" yaml:"compute_type" mapstructure:"compute_type"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// LoadTimeout bounds how long Init waits for the sidecar to report healthy.
	LoadTimeout time.Duration `json:"load_timeout" yaml:"load_timeout" mapstructure:"load_timeout"`
	// HealthInterval is the polling interval while waiting.
	HealthInterval time.Duration `json:"health_interval" yaml:"health_interval" mapstructure:"health_interval"`

	// Sidecar, when Binary is set, is started by Init and stopped by Close.
	Sidecar SidecarConfig `json:"sidecar" yaml:"sidecar" mapstructure:"sidecar"`
}

// SidecarConfig describes a sidecar process owned by the provider.
// Args may use {model}, {model_path}, {device}, {compute_type} and {port}.
type SidecarConfig struct {
	Binary      string        `json:"binary" yaml:"binary" mapstructure:"binary"`
	Args        []string      `json:"args" yaml:"args" mapstructure:"args"`
	LogFile     string        `json:"log_file" yaml:"log_file" mapstructure:"log_file"`
	GracePeriod time.Duration `json:"grace_period" yaml:"grace_period" mapstructure:"grace_period"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.URL == "" {
		c.URL = defaultWhisperURL
	}
	if c.Model == "" {
		c.Model = defaultWhisperModel
	}
	if c.Timeout == 0 {
		c.Timeout = defaultWhisperTimeout
	}
	if c.LoadTimeout == 0 {
		c.LoadTimeout = defaultLoadTimeout
	}
	if c.HealthInterval == 0 {
		c.HealthInterval = defaultHealthInterval
	}
}

// Provider implements transcription.Provider using a faster-whisper HTTP sidecar.
type Provider struct {
	cfg    Config
	client *http.Client
	log    *logger.Logger

	mu      sync.Mutex
	sidecar *process.Handle
}

var (
	_ transcription.Provider = (*Provider)(nil)
	_ provider.Initializable = (*Provider)(nil)
	_ provider.Closeable     = (*Provider)(nil)
)

// NewProvider creates a new Whisper transcription provider.
func NewProvider(cfg Config) *Provider {
	cfg.ApplyDefaults()
	return &Provider{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: logger.WithComponent("whisper"),
	}
}

// Factory returns a provider.Factory that creates Whisper Provider
// instances from a generic config map.
func Factory() provider.Factory[transcription.Provider] {
	return func(opts map[string]any) (transcription.Provider, error) {
		var wc Config
		if err := transcription.DecodeOptions(opts, &wc); err != nil {
			return nil, apperrors.InvalidInput("model.options", err.Error()).WithCause(err)
		}
		return NewProvider(wc), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks if the Whisper sidecar is reachable.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	return p.health(ctx) == nil
}

// Init starts the sidecar when one is configured and waits until it reports
// healthy. It fails with MODEL_LOAD_FAILED when the sidecar exits or the
// load timeout passes first.
func (p *Provider) Init(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.LoadTimeout)
	defer cancel()

	var exited <-chan struct{}
	if p.cfg.Sidecar.Binary != "" {
		h, err := p.startSidecar()
		if err != nil {
			return apperrors.ModelLoadFailed(ProviderName).WithCause(err)
		}
		exited = h.Exited()
		go func() {
			select {
			case <-exited:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	start := time.Now()
	err := resilience.Poll(ctx, p.cfg.HealthInterval, p.health)
	if err != nil {
		if exited != nil {
			select {
			case <-exited:
				err = fmt.Errorf("sidecar exited before becoming healthy: %w", err)
			default:
			}
		}
		_ = p.Close(context.Background())
		return apperrors.ModelLoadFailed(ProviderName).
			WithCause(err).
			WithDetail("url", p.cfg.URL)
	}
	p.log.Info("model ready", logger.Fields(
		"model", p.cfg.Model,
		"url", p.cfg.URL,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return nil
}

// Close stops the sidecar if Init started one. It is safe to call twice.
func (p *Provider) Close(_ context.Context) error {
	p.mu.Lock()
	h := p.sidecar
	p.sidecar = nil
	p.mu.Unlock()
	if h == nil {
		return nil
	}
	res, err := process.Terminate(h.PID, process.TerminateOptions{GracePeriod: p.cfg.Sidecar.GracePeriod})
	if err != nil {
		return fmt.Errorf("stop whisper sidecar: %w", err)
	}
	p.log.Info("sidecar stopped", logger.Fields(logger.FieldPID, h.PID, "forced", res.Forced))
	return nil
}

func (p *Provider) startSidecar() (*process.Handle, error) {
	sc := p.cfg.Sidecar
	args := transcription.Expand(sc.Args, map[string]string{
		"model":        p.modelRef(),
		"model_path":   p.cfg.ModelPath,
		"device":       p.cfg.Device,
		"compute_type": p.cfg.ComputeType,
		"port":         p.port(),
	})
	h, err := process.Spawn(process.Command{
		Binary:  sc.Binary,
		Args:    args,
		LogFile: sc.LogFile,
	})
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.sidecar = h
	p.mu.Unlock()
	p.log.Info("sidecar started", logger.Fields(logger.FieldPID, h.PID, "binary", sc.Binary))
	return h, nil
}

// modelRef prefers a local model directory when it holds a converted model.
func (p *Provider) modelRef() string {
	if p.cfg.ModelPath != "" {
		if _, err := os.Stat(filepath.Join(p.cfg.ModelPath, "model.bin")); err == nil {
			return p.cfg.ModelPath
		}
	}
	return p.cfg.Model
}

func (p *Provider) port() string {
	req, err := http.NewRequest(http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return ""
	}
	return req.URL.Port()
}

func (p *Provider) health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("whisper health: status %d", resp.StatusCode)
	}
	return nil
}

// Execute sends an audio file to the Whisper sidecar and returns the transcription.
func (p *Provider) Execute(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	audioData, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	model := p.modelRef()
	if req.Model != "" {
		model = req.Model
	}
	lang := p.cfg.Language
	if req.Language != "" {
		lang = req.Language
	}
	beam := req.BeamSize
	if beam <= 0 {
		beam = transcription.DefaultBeamSize
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio", filepath.Base(req.AudioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audioData); err != nil {
		return nil, fmt.Errorf("write audio data: %w", err)
	}

	_ = writer.WriteField("model", model)
	_ = writer.WriteField("beam_size", strconv.Itoa(beam))
	if lang != "" {
		_ = writer.WriteField("language", lang)
	}
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL+"/transcribe", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.ExternalServiceError(ProviderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperrors.TranscriptionFailed(
			fmt.Sprintf("whisper error (status %d): %s", resp.StatusCode, bytes.TrimSpace(body)))
	}

	var result whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode whisper response: %w", err)
	}

	return toResponse(&result), nil
}

// --- internal Whisper API response types ---

type whisperResponse struct {
	Text                string           `json:"text"`
	Segments            []whisperSegment `json:"segments"`
	Language            string           `json:"language"`
	LanguageProbability float64          `json:"language_probability"`
	Duration            float64          `json:"duration"`
}

type whisperSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func toResponse(resp *whisperResponse) *transcription.Response {
	segments := make([]transcription.Segment, len(resp.Segments))
	for i, seg := range resp.Segments {
		segments[i] = transcription.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		}
	}

	out := &transcription.Response{
		Text:                resp.Text,
		Segments:            segments,
		Language:            resp.Language,
		LanguageProbability: resp.LanguageProbability,
		Duration:            resp.Duration,
	}
	out.Duration = out.EndTime()
	return out
}
