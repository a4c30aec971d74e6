package handoff

import (
	"errors"

	"github.com/kbukum/dictate/process"
)

// State is the lifecycle state of a recording session.
type State int

const (
	// Idle means no marker file exists.
	Idle State = iota
	// Recording means a marker file names a capture subprocess.
	Recording
	// Stopping is held only inside a controller invocation that is tearing a
	// session down.
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Session is a RecordingSession rebuilt from the marker file.
type Session struct {
	State     State  `json:"state"`
	PID       int    `json:"pid,omitempty"`
	AudioPath string `json:"audio_path"`
	// Stale is set when a marker exists but its process is gone or the PID
	// is unreadable. The next toggle cleans it up.
	Stale bool `json:"stale,omitempty"`
}

// Session reconstructs the current session without changing anything on disk.
func (s *Store) Session() (Session, error) {
	sess := Session{State: Idle, AudioPath: s.AudioPath}
	pid, err := s.ReadMarker()
	switch {
	case errors.Is(err, ErrNoMarker):
		return sess, nil
	case errors.Is(err, ErrInvalidMarker):
		sess.State = Recording
		sess.Stale = true
		return sess, nil
	case err != nil:
		return sess, err
	}
	sess.State = Recording
	sess.PID = pid
	sess.Stale = !process.Alive(pid)
	return sess, nil
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
