package recorder

import (
	"context"
	"errors"
	"strings"
	"syscall"
	"time"

	"github.com/kbukum/dictate/delivery"
	apperrors "github.com/kbukum/dictate/errors"
	"github.com/kbukum/dictate/handoff"
	"github.com/kbukum/dictate/logger"
	"github.com/kbukum/dictate/process"
)

// Outcome is what a Toggle did.
type Outcome int

const (
	// Unknown is the outcome of a Toggle that failed.
	Unknown Outcome = iota
	// Started means a recording session was opened.
	Started
	// Transcribed means a session was closed and produced text.
	Transcribed
	// NoSpeech means a session was closed without usable audio or text.
	NoSpeech
)

func (o Outcome) String() string {
	switch o {
	case Unknown:
		return "unknown"
	case Started:
		return "started"
	case Transcribed:
		return "transcribed"
	case NoSpeech:
		return "no_speech"
	default:
		return "unknown"
	}
}

// MarshalText renders the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Result describes a completed Toggle.
type Result struct {
	Outcome Outcome `json:"outcome"`
	// PID is the recorder that was started or stopped. Zero when the marker
	// was unreadable.
	PID  int    `json:"pid,omitempty"`
	Text string `json:"text,omitempty"`
	// Audio is set once a session has been stopped.
	Audio *handoff.AudioInfo `json:"audio,omitempty"`
}

// Transcriber asks the daemon for the text of the current audio artifact.
type Transcriber interface {
	Transcribe(ctx context.Context) (string, error)
}

// Controller toggles recording sessions.
type Controller struct {
	cfg      Config
	signal   syscall.Signal
	store    *handoff.Store
	client   Transcriber
	consumer delivery.Consumer
	notifier *delivery.Notifier
	log      *logger.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithConsumer sets where transcripts go. Without one the text is only
// returned.
func WithConsumer(c delivery.Consumer) Option {
	return func(ctl *Controller) { ctl.consumer = c }
}

// WithNotifier sets the lifecycle notifier.
func WithNotifier(n *delivery.Notifier) Option {
	return func(ctl *Controller) { ctl.notifier = n }
}

// WithLogger sets the controller logger.
func WithLogger(l *logger.Logger) Option {
	return func(ctl *Controller) { ctl.log = l }
}

// New creates a Controller. cfg must have passed Validate.
func New(cfg Config, store *handoff.Store, client Transcriber, opts ...Option) *Controller {
	cfg.ApplyDefaults()
	sig, _ := parseSignal(cfg.StopSignal)
	c := &Controller{
		cfg:    cfg,
		signal: sig,
		store:  store,
		client: client,
		log:    logger.Nop(),
		// Disabled until WithNotifier supplies one.
		notifier: delivery.NewNotifier(delivery.Config{Notifications: delivery.NotifyNone}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status reports the current session without changing anything.
func (c *Controller) Status() (handoff.Session, error) {
	return c.store.Session()
}

// Toggle starts a session when none is open and stops it otherwise.
func (c *Controller) Toggle(ctx context.Context) (Result, error) {
	pid, err := c.store.ReadMarker()
	switch {
	case errors.Is(err, handoff.ErrNoMarker):
		return c.start()
	case errors.Is(err, handoff.ErrInvalidMarker):
		c.log.Warn("discarding unreadable marker", logger.Fields(logger.FieldPath, c.store.MarkerPath, logger.FieldError, err.Error()))
		return c.stop(ctx, 0)
	case err != nil:
		return Result{}, apperrors.RecorderFailed("read marker").WithCause(err)
	}
	return c.stop(ctx, pid)
}

func (c *Controller) start() (Result, error) {
	if err := c.store.RemoveAudio(); err != nil {
		return Result{}, apperrors.RecorderFailed("remove previous audio").WithCause(err)
	}

	h, err := process.Spawn(process.Command{
		Binary:  c.cfg.Binary,
		Args:    c.cfg.captureArgs(c.store.AudioPath),
		LogFile: c.cfg.LogFile,
	})
	if err != nil {
		c.notifier.Failed(err)
		return Result{}, apperrors.RecorderFailed("start "+c.cfg.Binary).WithCause(err)
	}
	log := c.log.WithFields(map[string]interface{}{"pid": h.PID})

	if c.cfg.StartupProbe > 0 {
		select {
		case <-h.Exited():
			err := apperrors.RecorderFailed(c.cfg.Binary+" exited immediately").WithDetail("pid", h.PID)
			if c.cfg.LogFile != "" {
				err.WithDetail("log_file", c.cfg.LogFile)
			}
			c.notifier.Failed(err)
			return Result{}, err
		case <-time.After(c.cfg.StartupProbe):
		}
	}

	if err := c.store.WriteMarker(h.PID); err != nil {
		if _, kerr := process.Terminate(h.PID, c.terminateOptions()); kerr != nil {
			log.Error("could not kill recorder after marker failure", logger.Fields(logger.FieldError, kerr.Error()))
		}
		reason := "persist marker"
		if errors.Is(err, handoff.ErrMarkerExists) {
			reason = "another session was started concurrently"
		}
		return Result{}, apperrors.RecorderFailed(reason).WithCause(err).WithDetail("pid", h.PID)
	}

	log.Info("recording started", logger.Fields(logger.FieldPath, c.store.AudioPath))
	c.notifier.Recording()
	return Result{Outcome: Started, PID: h.PID}, nil
}

func (c *Controller) stop(ctx context.Context, pid int) (Result, error) {
	res := Result{PID: pid}
	c.log.Debug("session state", logger.Fields("pid", pid, "state", handoff.Stopping.String()))
	stopErr := c.terminate(pid)
	if err := c.store.RemoveMarker(); err != nil {
		c.log.Error("remove marker", logger.Fields(logger.FieldError, err.Error()))
	}
	if stopErr != nil {
		c.notifier.Failed(stopErr)
		return res, apperrors.RecorderFailed("stop recorder").WithCause(stopErr).WithDetail("pid", pid)
	}

	info, err := c.store.AudioInfo()
	if err != nil {
		return res, apperrors.RecorderFailed("inspect audio").WithCause(err)
	}
	res.Audio = &info
	c.log.Debug("audio captured", logger.Fields(
		"bytes", info.Size,
		"wav", info.Valid,
		"sample_rate", info.SampleRate,
		"channels", info.Channels,
		logger.FieldDuration, info.Duration.Milliseconds(),
	))
	if !info.Usable(c.cfg.MinAudioBytes) {
		c.log.Info("no usable audio", logger.Fields("bytes", info.Size, "min_bytes", c.cfg.MinAudioBytes))
		c.notifier.NoSpeech()
		res.Outcome = NoSpeech
		return res, nil
	}

	c.notifier.Transcribing()
	text, err := c.client.Transcribe(ctx)
	if err != nil {
		c.notifier.Failed(err)
		return res, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		c.notifier.NoSpeech()
		res.Outcome = NoSpeech
		return res, nil
	}

	res.Outcome = Transcribed
	res.Text = text
	if c.consumer != nil {
		if err := c.consumer.Deliver(ctx, text); err != nil {
			c.log.Warn("delivery failed", logger.Fields(logger.FieldError, err.Error()))
		}
	}
	c.log.Info("transcribed", logger.Fields("chars", len(text), "state", handoff.Idle.String()))
	c.notifier.Done(text)
	return res, nil
}

// terminate stops pid if it is still the recorder. A process that is already
// gone is not an error.
func (c *Controller) terminate(pid int) error {
	if pid <= 0 {
		return nil
	}
	log := c.log.WithFields(map[string]interface{}{"pid": pid})
	if !process.Alive(pid) {
		log.Info("recorder already gone")
		return nil
	}
	if !c.cfg.SkipBinaryCheck && !process.MatchesBinary(pid, c.binaryNames()...) {
		log.Warn("marker pid belongs to another program, not signalling", logger.Fields("comm", process.CommandName(pid)))
		return nil
	}
	tr, err := process.Terminate(pid, c.terminateOptions())
	if err != nil {
		return err
	}
	log.Info("recording stopped", logger.Fields("forced", tr.Forced, logger.FieldDuration, tr.Waited.Milliseconds()))
	return nil
}

func (c *Controller) binaryNames() []string {
	return append([]string{c.cfg.Binary}, c.cfg.ProcessNames...)
}

func (c *Controller) terminateOptions() process.TerminateOptions {
	return process.TerminateOptions{
		Signal:      c.signal,
		GracePeriod: c.cfg.GracePeriod,
		KillWait:    c.cfg.KillWait,
	}
}
