package process

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// Handle tracks a process started by Spawn.
type Handle struct {
	// PID is the process id, which is also its process group and session id.
	PID int

	done chan struct{}
}

// Exited is closed once the spawned process has exited and been reaped.
func (h *Handle) Exited() <-chan struct{} {
	return h.done
}

// Spawn starts a subprocess in a new session and returns without waiting.
//
// The child outlives the caller: it is detached from the controlling terminal
// and its output is discarded unless cmd.LogFile is set. While the caller is
// alive a background goroutine reaps the child so it never lingers as a zombie.
func Spawn(cmd Command) (*Handle, error) {
	if cmd.Binary == "" {
		return nil, ErrBinaryRequired
	}

	c := exec.Command(cmd.Binary, cmd.Args...) //nolint:gosec // running configured tools is the point
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)
	c.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	var logFile *os.File
	if cmd.LogFile != "" {
		f, err := os.OpenFile(cmd.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("process: open log file: %w", err)
		}
		logFile = f
		c.Stdout = f
		c.Stderr = f
	}

	if err := c.Start(); err != nil {
		if logFile != nil {
			_ = logFile.Close()
		}
		return nil, fmt.Errorf("process: start %s: %w", cmd.Binary, err)
	}

	h := &Handle{PID: c.Process.Pid, done: make(chan struct{})}
	go func() {
		_ = c.Wait()
		if logFile != nil {
			_ = logFile.Close()
		}
		close(h.done)
	}()
	return h, nil
}
