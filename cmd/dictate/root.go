package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/kbukum/dictate/config"
	"github.com/kbukum/dictate/logger"
)

// globalOptions are shared by every subcommand.
type globalOptions struct {
	configFile string
	stdout     io.Writer
	stderr     io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:   "dictate",
		Short: "Toggle voice capture and transcribe it with a resident model",
		Long: "Run once to start recording, run again to stop and transcribe. " +
			"The transcript is delivered to the clipboard and typed into the active window. " +
			"Transcription is served by \"dictate daemon\", which keeps the model loaded.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runToggle(cmd.Context(), opts, false)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "",
		"config file (default: ./config.yml, then the user config dir, then /etc/dictate)")

	root.AddCommand(
		newToggleCmd(opts),
		newDaemonCmd(opts),
		newStatusCmd(opts),
		newVersionCmd(opts),
	)
	return root
}

// load reads and validates the configuration and builds a stderr logger from
// its logging section. stdout is left for transcripts.
func (o *globalOptions) load() (*config.App, *logger.Logger, error) {
	return o.loadWith(func(*config.App) io.Writer { return o.stderr })
}

// loadDaemon is load for the daemon, which has no transcript to protect and
// logs to the output its config names.
func (o *globalOptions) loadDaemon() (*config.App, *logger.Logger, error) {
	return o.loadWith(func(cfg *config.App) io.Writer {
		if cfg.Logging.Output == "stdout" {
			return o.stdout
		}
		return o.stderr
	})
}

func (o *globalOptions) loadWith(output func(*config.App) io.Writer) (*config.App, *logger.Logger, error) {
	cfg, used, err := config.Load(o.configFile)
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewWithWriter(&cfg.Logging, cfg.Name, output(cfg))
	logger.SetGlobalLogger(log)
	if used != "" {
		log.Debug("config loaded", logger.Fields(logger.FieldPath, used))
	}
	return cfg, log, nil
}
