package main

import (
	"context"
	"slices"

	"github.com/spf13/cobra"

	"github.com/kbukum/dictate/delivery"
	"github.com/kbukum/dictate/handoff"
	"github.com/kbukum/dictate/logger"
	"github.com/kbukum/dictate/protocol"
	"github.com/kbukum/dictate/recorder"
)

func newToggleCmd(opts *globalOptions) *cobra.Command {
	var printText bool
	cmd := &cobra.Command{
		Use:   "toggle",
		Short: "Start recording, or stop the running recording and transcribe it",
		Long: "Starts the recorder when no recording is in progress. Otherwise stops it, " +
			"sends the audio to the daemon and delivers the transcript. " +
			"Exits with status 3 when the daemon is not running.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runToggle(cmd.Context(), opts, printText)
		},
	}
	cmd.Flags().BoolVarP(&printText, "print", "p", false, "also write the transcript to stdout")
	return cmd
}

func runToggle(ctx context.Context, opts *globalOptions, printText bool) error {
	cfg, log, err := opts.load()
	if err != nil {
		return err
	}
	if printText && !slices.Contains(cfg.Delivery.Targets, delivery.TargetStdout) {
		cfg.Delivery.Targets = append(cfg.Delivery.Targets, delivery.TargetStdout)
	}

	consumer, err := delivery.New(cfg.Delivery, opts.stdout, log)
	if err != nil {
		return err
	}
	notifier := delivery.NewNotifier(cfg.Delivery, delivery.WithNotifierLogger(log))

	ctl := recorder.New(cfg.Recorder, handoff.New(cfg.Paths), protocol.NewClient(cfg.Client),
		recorder.WithConsumer(consumer),
		recorder.WithNotifier(notifier),
		recorder.WithLogger(log),
	)
	res, err := ctl.Toggle(ctx)
	if err != nil {
		return err
	}
	log.Info("toggle complete", logger.Fields(
		logger.FieldStatus, res.Outcome.String(),
		"pid", res.PID,
		"chars", len(res.Text),
	))
	return nil
}
