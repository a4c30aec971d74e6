package handoff

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrNoMarker means no recording session is open.
	ErrNoMarker = errors.New("handoff: no marker file")
	// ErrMarkerExists means a recording session is already open.
	ErrMarkerExists = errors.New("handoff: marker file already exists")
	// ErrInvalidMarker means the marker exists but does not hold a PID.
	ErrInvalidMarker = errors.New("handoff: marker file does not contain a valid pid")
)

// Store reads and writes the marker file and audio artifact.
type Store struct {
	MarkerPath string
	AudioPath  string
}

// New creates a Store for cfg. Unset paths take their defaults.
func New(cfg Config) *Store {
	cfg.ApplyDefaults()
	return &Store{MarkerPath: cfg.MarkerPath, AudioPath: cfg.AudioPath}
}

// ReadMarker returns the PID stored in the marker file. It returns
// ErrNoMarker when the file is absent and ErrInvalidMarker when its content is
// not a positive decimal integer.
func (s *Store) ReadMarker() (int, error) {
	b, err := os.ReadFile(s.MarkerPath)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, ErrNoMarker
	}
	if err != nil {
		return 0, fmt.Errorf("handoff: read marker: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMarker, strings.TrimSpace(string(b)))
	}
	return pid, nil
}

// WriteMarker records pid as the open session. It fails with ErrMarkerExists
// if a marker is already present.
func (s *Store) WriteMarker(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMarker, pid)
	}

	dir := filepath.Dir(s.MarkerPath)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.MarkerPath)+".*")
	if err != nil {
		return fmt.Errorf("handoff: create marker: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.WriteString(strconv.Itoa(pid) + "\n"); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("handoff: write marker: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("handoff: sync marker: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("handoff: close marker: %w", err)
	}

	if err := os.Link(tmpName, s.MarkerPath); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrMarkerExists
		}
		return fmt.Errorf("handoff: publish marker: %w", err)
	}
	return nil
}

// RemoveMarker deletes the marker file. A missing marker is not an error.
func (s *Store) RemoveMarker() error {
	return removeIfExists(s.MarkerPath)
}

// RemoveAudio deletes the audio artifact. A missing artifact is not an error.
func (s *Store) RemoveAudio() error {
	return removeIfExists(s.AudioPath)
}

// HasMarker reports whether the marker file exists.
func (s *Store) HasMarker() bool {
	_, err := os.Lstat(s.MarkerPath)
	return err == nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("handoff: remove %s: %w", path, err)
	}
	return nil
}
