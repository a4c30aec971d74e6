package process

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// TerminateOptions bounds the graceful stop of a process.
type TerminateOptions struct {
	// Signal is sent first. Defaults to SIGTERM.
	Signal syscall.Signal
	// GracePeriod is how long to wait for exit before escalating to SIGKILL.
	GracePeriod time.Duration
	// KillWait is how long to wait for exit after SIGKILL.
	KillWait time.Duration
	// PollInterval is how often liveness is checked while waiting.
	PollInterval time.Duration
}

func (o *TerminateOptions) applyDefaults() {
	if o.Signal == 0 {
		o.Signal = syscall.SIGTERM
	}
	if o.GracePeriod <= 0 {
		o.GracePeriod = 3 * time.Second
	}
	if o.KillWait <= 0 {
		o.KillWait = time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 25 * time.Millisecond
	}
}

// TerminateResult describes what Terminate found and did.
type TerminateResult struct {
	// Found reports whether a live process existed when Terminate was called.
	Found bool
	// Forced reports whether SIGKILL was needed.
	Forced bool
	// Waited is how long Terminate waited for the process to go away.
	Waited time.Duration
}

// Terminate stops pid and its process group: the configured signal first,
// SIGKILL once the grace period runs out. A pid that does not exist is not an
// error; the result simply reports Found=false. An error is returned only when
// the process survives SIGKILL for KillWait, or signalling is not permitted.
func Terminate(pid int, opts TerminateOptions) (TerminateResult, error) {
	opts.applyDefaults()
	if !Alive(pid) {
		return TerminateResult{}, nil
	}

	start := time.Now()
	res := TerminateResult{Found: true}

	if err := signalGroup(pid, opts.Signal); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			res.Waited = time.Since(start)
			return res, nil
		}
		return res, fmt.Errorf("process: signal %d: %w", pid, err)
	}
	if waitGone(pid, opts.GracePeriod, opts.PollInterval) {
		res.Waited = time.Since(start)
		return res, nil
	}

	res.Forced = true
	if err := signalGroup(pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		res.Waited = time.Since(start)
		return res, fmt.Errorf("process: kill %d: %w", pid, err)
	}
	gone := waitGone(pid, opts.KillWait, opts.PollInterval)
	res.Waited = time.Since(start)
	if !gone {
		return res, fmt.Errorf("process: %d still alive %s after SIGKILL", pid, opts.KillWait)
	}
	return res, nil
}

// Alive reports whether pid refers to a running process. Zombies count as
// exited: their output is final even if nobody has reaped them yet.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	if err := syscall.Kill(pid, 0); err != nil && !errors.Is(err, syscall.EPERM) {
		return false
	}
	return procState(pid) != 'Z'
}

// CommandName returns the kernel's short name for pid (at most 15 bytes), or
// "" when it cannot be determined.
func CommandName(pid int) string {
	b, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "comm"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// MatchesBinary reports whether pid looks like an instance of any of the
// named binaries, by its kernel name or its executable. It is permissive: when
// neither can be read the answer is true.
func MatchesBinary(pid int, binaries ...string) bool {
	comm := CommandName(pid)
	exe := executableName(pid)
	if comm == "" && exe == "" {
		return true
	}
	for _, b := range binaries {
		want := filepath.Base(b)
		if exe != "" && exe == want {
			return true
		}
		if len(want) > 15 {
			want = want[:15]
		}
		if comm != "" && comm == want {
			return true
		}
	}
	return false
}

func executableName(pid int) string {
	target, err := os.Readlink(filepath.Join("/proc", strconv.Itoa(pid), "exe"))
	if err != nil {
		return ""
	}
	return filepath.Base(strings.TrimSuffix(target, " (deleted)"))
}

// signalGroup signals the process group led by pid, falling back to pid alone
// when it does not lead a group.
func signalGroup(pid int, sig syscall.Signal) error {
	if err := syscall.Kill(-pid, sig); err == nil {
		return nil
	}
	return syscall.Kill(pid, sig)
}

func waitGone(pid int, limit, poll time.Duration) bool {
	deadline := time.Now().Add(limit)
	for {
		if !Alive(pid) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(poll)
	}
}

// procState returns the single-letter state from /proc/<pid>/stat, or 0 when
// it is unavailable.
func procState(pid int) byte {
	b, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
	if err != nil {
		return 0
	}
	i := strings.LastIndexByte(string(b), ')')
	if i < 0 || i+2 >= len(b) {
		return 0
	}
	return b[i+2]
}
