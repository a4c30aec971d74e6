package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/dictate/component"
	apperrors "github.com/kbukum/dictate/errors"
	"github.com/kbukum/dictate/handoff"
	"github.com/kbukum/dictate/logger"
	"github.com/kbukum/dictate/observability"
	"github.com/kbukum/dictate/protocol"
	"github.com/kbukum/dictate/provider"
	"github.com/kbukum/dictate/transcription"
)

const componentName = "daemon"

var (
	_ component.Component   = (*Server)(nil)
	_ component.Describable = (*Server)(nil)
)

// Server owns the transcription provider and serves the control protocol.
type Server struct {
	cfg     Config
	model   ModelConfig
	store   *handoff.Store
	raw     transcription.Provider
	handler transcription.Provider
	metrics *observability.Metrics
	log     *logger.Logger
	service string

	state   atomic.Int32
	served  atomic.Int64
	failed  atomic.Int64
	started time.Time

	mu       sync.Mutex
	listener net.Listener
	done     chan struct{}
	closed   bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetrics records request and provider metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithServiceName sets the service name used on provider spans.
func WithServiceName(name string) Option {
	return func(s *Server) { s.service = name }
}

// New creates a Server around p. p is initialized by Start and closed by Stop;
// requests go through logging, metrics, tracing and the configured resilience
// policies.
func New(cfg Config, model ModelConfig, store *handoff.Store, p transcription.Provider, opts ...Option) *Server {
	cfg.ApplyDefaults()
	model.ApplyDefaults()
	s := &Server{
		cfg:     cfg,
		model:   model,
		store:   store,
		raw:     p,
		log:     logger.WithComponent(componentName),
		service: "dictate",
	}
	for _, o := range opts {
		o(s)
	}
	chain := provider.Chain(
		provider.WithLogging[transcription.Request, *transcription.Response](s.log, transcription.RequestAttrs),
		provider.WithMetrics[transcription.Request, *transcription.Response](s.metrics, "transcribe"),
		provider.WithTracing[transcription.Request, *transcription.Response](s.service, transcription.RequestAttrs),
	)
	s.handler = chain(provider.WithResilience(p, model.Resilience()))
	s.state.Store(int32(StateBooting))
	return s
}

// Name returns the component name.
func (s *Server) Name() string { return componentName }

// State returns the current lifecycle state.
func (s *Server) State() State { return State(s.state.Load()) }

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start loads the model and binds the listener. Serving continues on a
// background goroutine. A load failure is returned and never retried.
func (s *Server) Start(ctx context.Context) error {
	start := time.Now()
	s.log.Info("loading model", logger.Fields(
		logger.FieldProvider, s.raw.Name(),
		"model", s.model.Model,
	))
	loadCtx, span := observability.StartSpan(ctx, observability.SpanModelLoad)
	err := provider.Init(loadCtx, s.raw)
	if err != nil {
		observability.SetSpanError(loadCtx, err)
	}
	span.End()
	if err != nil {
		s.state.Store(int32(StateStopped))
		if _, ok := apperrors.AsAppError(err); !ok {
			err = apperrors.ModelLoadFailed(s.raw.Name()).WithCause(err)
		}
		return err
	}
	s.log.Info("model loaded", logger.DurationFields("load", time.Since(start)))

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		_ = provider.Close(context.Background(), s.raw)
		s.state.Store(int32(StateStopped))
		return fmt.Errorf("daemon failed to bind %s: %w", s.cfg.Addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.done = make(chan struct{})
	s.started = time.Now()
	s.mu.Unlock()

	s.state.Store(int32(StateReady))
	go s.serve(ln, s.done)

	s.log.Info("daemon ready", logger.Fields(logger.FieldAddr, ln.Addr().String()))
	return nil
}

// Stop stops accepting connections, waits for the in-flight request within
// ctx and releases the model.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.closed || s.listener == nil {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ln, done := s.listener, s.done
	s.mu.Unlock()

	_ = ln.Close()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("in-flight request did not finish before shutdown deadline")
	}

	err := provider.Close(ctx, s.raw)
	s.state.Store(int32(StateStopped))
	if err != nil {
		return fmt.Errorf("release model: %w", err)
	}
	s.log.Info("daemon stopped", logger.Fields(
		"served", s.served.Load(),
		"failed", s.failed.Load(),
	))
	return nil
}

// Health reports the daemon state with its counters.
func (s *Server) Health(_ context.Context) component.Health {
	st := s.Stats()
	h := component.Health{
		Name:   componentName,
		Status: component.StatusHealthy,
		Details: map[string]any{
			"state":    st.State.String(),
			"provider": st.Provider,
			"model":    st.Model,
			"served":   st.Served,
			"failed":   st.Failed,
			"uptime":   st.Uptime.Round(time.Second).String(),
		},
	}
	switch st.State {
	case StateBooting:
		h.Status = component.StatusDegraded
		h.Message = "model loading"
	case StateStopped:
		h.Status = component.StatusUnhealthy
		h.Message = "stopped"
	}
	return h
}

// Describe reports the listener address and backend.
func (s *Server) Describe() component.Description {
	addr := s.cfg.Addr
	if a := s.Addr(); a != nil {
		addr = a.String()
	}
	return component.Description{
		Name:    "Transcription daemon",
		Type:    "listener",
		Details: fmt.Sprintf("%s provider=%s beam=%d", addr, s.raw.Name(), s.model.BeamSize),
	}
}

// Stats is a snapshot of the daemon counters.
type Stats struct {
	State    State         `json:"state"`
	Provider string        `json:"provider"`
	Model    string        `json:"model,omitempty"`
	Served   int64         `json:"served"`
	Failed   int64         `json:"failed"`
	Uptime   time.Duration `json:"uptime"`
}

// Stats returns a snapshot of the daemon counters.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	st := Stats{
		State:    s.State(),
		Provider: s.raw.Name(),
		Model:    s.model.Model,
		Served:   s.served.Load(),
		Failed:   s.failed.Load(),
	}
	if !started.IsZero() {
		st.Uptime = time.Since(started)
	}
	return st
}

// serve accepts and handles connections one at a time until ln is closed.
func (s *Server) serve(ln net.Listener, done chan struct{}) {
	defer close(done)
	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			backoff = min(max(2*backoff, 5*time.Millisecond), time.Second)
			s.log.Warn("accept failed", logger.Fields(logger.FieldError, err.Error(), "retry_in", backoff.String()))
			time.Sleep(backoff)
			continue
		}
		backoff = 0
		s.handle(conn)
	}
}

// handle serves one connection to completion. Nothing that happens here
// escapes to the accept loop.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	s.state.Store(int32(StateBusy))
	defer s.state.CompareAndSwap(int32(StateBusy), int32(StateReady))

	reqID := uuid.New().String()
	log := s.log.WithFields(map[string]interface{}{logger.FieldRequestID: reqID})

	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	cmd, readErr := protocol.ReadCommand(conn, s.cfg.MaxCommandBytes)
	if readErr != nil {
		log.Debug("command read incomplete", logger.Fields(logger.FieldError, readErr.Error()))
	}

	ctx, op := observability.StartOperation(context.Background(), cmd, reqID, s.metrics)
	reply, status, err := s.respond(ctx, log, cmd)
	op.End(ctx, status, err)

	if err != nil {
		s.failed.Add(1)
	} else if status != observability.StatusRejected {
		s.served.Add(1)
	}

	_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if len(reply) > 0 {
		if _, werr := conn.Write(reply); werr != nil {
			log.Warn("write reply failed", logger.Fields(logger.FieldError, werr.Error()))
		}
	}

	log.Info("request served", logger.Fields(
		"command", cmd,
		logger.FieldStatus, status,
		"bytes", len(reply),
		logger.FieldDuration, op.Duration().Milliseconds(),
	))
}

// respond produces the wire reply for cmd. A provider panic is converted to
// the error indicator here.
func (s *Server) respond(ctx context.Context, log *logger.Logger, cmd string) (reply []byte, status string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.Internal(fmt.Errorf("panic: %v", r))
			log.Error("panic during transcription", logger.Fields(
				logger.FieldError, fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			))
			s.metrics.RecordError(ctx, "panic", componentName)
			reply, status = protocol.EncodeError(""), observability.StatusError
		}
	}()

	if cmd == "" {
		// "dictate status" connects and closes without a command.
		log.Debug("empty request")
		return nil, observability.StatusRejected, nil
	}
	if !protocol.IsKnown(cmd) {
		log.Warn("unknown command", logger.Fields("command", cmd))
		return nil, observability.StatusRejected, nil
	}

	info, ierr := s.store.AudioInfo()
	if ierr != nil {
		log.Error("audio artifact unreadable", logger.Fields(logger.FieldPath, s.store.AudioPath, logger.FieldError, ierr.Error()))
		s.metrics.RecordError(ctx, "audio_io", componentName)
		return protocol.EncodeError(errorMessage(ierr)), observability.StatusError, ierr
	}
	if !info.Exists {
		log.Info("no audio artifact", logger.Fields(logger.FieldPath, s.store.AudioPath))
		return nil, observability.StatusEmpty, nil
	}
	observability.SetSpanAttribute(ctx, observability.AttrAudioBytes, info.Size)

	resp, err := s.handler.Execute(ctx, transcription.Request{
		AudioPath: s.store.AudioPath,
		BeamSize:  s.model.BeamSize,
		Language:  s.model.Language,
		Model:     s.model.Model,
	})
	if err != nil {
		s.metrics.RecordError(ctx, errorType(err), componentName)
		return protocol.EncodeError(errorMessage(err)), observability.StatusError, err
	}

	text := resp.Transcript()
	if text == "" {
		return nil, observability.StatusEmpty, nil
	}
	log.Debug("transcribed", logger.Fields(
		"chars", len(text),
		"language", resp.Language,
		"language_probability", resp.LanguageProbability,
	))
	return protocol.EncodeText(text), observability.StatusOK, nil
}

// errorMessage is what the client sees after the error indicator.
func errorMessage(err error) string {
	if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrCodeTranscriptionFailed {
		return appErr.Message
	}
	return apperrors.TranscriptionFailed("").Message + ": " + err.Error()
}

func errorType(err error) string {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	return "unknown"
}
