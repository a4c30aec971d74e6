package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/dictate/handoff"
	"github.com/kbukum/dictate/protocol"
)

const pingTimeout = 2 * time.Second

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the recording state and whether the daemon is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			sess, err := handoff.New(cfg.Paths).Session()
			if err != nil {
				return err
			}
			printSession(opts, sess)

			ctx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
			defer cancel()
			client := protocol.NewClient(cfg.Client)
			if err := client.Ping(ctx); err != nil {
				fmt.Fprintf(opts.stdout, "daemon:    unreachable at %s\n", client.Addr())
				return err
			}
			fmt.Fprintf(opts.stdout, "daemon:    ready at %s\n", client.Addr())
			return nil
		},
	}
}

func printSession(opts *globalOptions, sess handoff.Session) {
	state := sess.State.String()
	if sess.Stale {
		state += " (stale marker)"
	}
	fmt.Fprintf(opts.stdout, "recording: %s\n", state)
	if sess.PID > 0 {
		fmt.Fprintf(opts.stdout, "pid:       %d\n", sess.PID)
	}
	fmt.Fprintf(opts.stdout, "audio:     %s\n", sess.AudioPath)
}
