package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/dictate/version"
)

func newVersionCmd(opts *globalOptions) *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if short {
				fmt.Fprintln(opts.stdout, version.Short())
				return nil
			}
			fmt.Fprintln(opts.stdout, "dictate", version.Get().String())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "print only the version and commit")
	return cmd
}
