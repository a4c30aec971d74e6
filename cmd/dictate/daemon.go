package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kbukum/dictate/bootstrap"
	"github.com/kbukum/dictate/component"
	"github.com/kbukum/dictate/config"
	"github.com/kbukum/dictate/daemon"
	apperrors "github.com/kbukum/dictate/errors"
	"github.com/kbukum/dictate/handoff"
	"github.com/kbukum/dictate/logger"
	"github.com/kbukum/dictate/observability"
	"github.com/kbukum/dictate/provider"
	"github.com/kbukum/dictate/server"
	"github.com/kbukum/dictate/transcription"
	"github.com/kbukum/dictate/transcription/command"
	"github.com/kbukum/dictate/transcription/whisper"
	"github.com/kbukum/dictate/version"
)

func newDaemonCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Load the model once and serve transcription requests",
		Long: "Loads the configured transcription backend and listens on daemon.addr " +
			"until interrupted. Requests are served one at a time. " +
			"A backend that fails to load ends the process with a non-zero status.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.loadDaemon()
			if err != nil {
				return err
			}
			app, err := newDaemonApp(cfg, log)
			if err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}
}

// newBackends returns the registry of transcription backends the daemon can
// be configured with.
func newBackends() *provider.Registry[transcription.Provider] {
	reg := transcription.NewRegistry()
	reg.RegisterFactory(whisper.ProviderName, whisper.Factory())
	reg.RegisterFactory(command.ProviderName, command.Factory())
	return reg
}

// newDaemonApp wires telemetry, the control listener and the optional status
// server into one application. Components start in that order and stop in
// reverse, so telemetry flushes last.
func newDaemonApp(cfg *config.App, log *logger.Logger) (*bootstrap.App[*config.App], error) {
	if cfg.Version == "" {
		cfg.Version = version.Short()
	}
	app, err := bootstrap.NewApp(cfg,
		bootstrap.WithLogger(log),
		bootstrap.WithGracefulTimeout(cfg.Daemon.ShutdownTimeout),
	)
	if err != nil {
		return nil, err
	}

	backends := newBackends()
	if !backends.Has(cfg.Model.Provider) {
		return nil, apperrors.InvalidInput("model.provider", "unknown backend "+cfg.Model.Provider).
			WithDetail("available", backends.List())
	}
	p, err := backends.Create(cfg.Model.Provider, cfg.Model.Options)
	if err != nil {
		return nil, apperrors.ModelLoadFailed(cfg.Model.Provider).WithCause(err)
	}

	metrics, err := observability.NewMetrics(observability.Meter(app.Name))
	if err != nil {
		return nil, err
	}

	if err := app.RegisterComponent(observability.NewComponent(cfg.Telemetry, app.Name, app.Version)); err != nil {
		return nil, err
	}
	srv := daemon.New(cfg.Daemon, cfg.Model, handoff.New(cfg.Paths), p,
		daemon.WithLogger(log.WithComponent("daemon")),
		daemon.WithMetrics(metrics),
		daemon.WithServiceName(app.Name),
	)
	if err := app.RegisterComponent(srv); err != nil {
		return nil, err
	}

	if cfg.Status.Enabled {
		status := server.New(cfg.Status, log)
		status.ApplyDefaults(app.Name, func(ctx context.Context) []component.Health {
			return app.Components.HealthAll(ctx)
		})
		if err := app.RegisterComponent(server.NewComponent(status)); err != nil {
			return nil, err
		}
	}
	return app, nil
}
