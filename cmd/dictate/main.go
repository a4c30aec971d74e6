// Command dictate toggles voice capture and transcribes the recording through
// a resident transcription daemon.
//
// Bind "dictate" (or "dictate toggle") to a hotkey: the first press starts
// recording, the second stops it and delivers the transcript. "dictate daemon"
// keeps the model loaded between presses.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	apperrors "github.com/kbukum/dictate/errors"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and maps the outcome to a process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "dictate:", err)
	}
	return apperrors.ExitCode(err)
}
