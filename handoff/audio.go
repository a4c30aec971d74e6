package handoff

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// AudioInfo describes the audio artifact on disk.
type AudioInfo struct {
	Exists  bool
	Size    int64
	ModTime time.Time

	// The fields below are set only when the WAV header parses.
	Valid      bool
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// Usable reports whether the artifact exists and holds at least minBytes.
func (a AudioInfo) Usable(minBytes int64) bool {
	return a.Exists && a.Size >= minBytes
}

// AudioInfo stats the audio artifact and inspects its WAV header. A missing
// file is reported through Exists, not as an error. A header that does not
// parse leaves Valid false; size alone still describes the file.
func (s *Store) AudioInfo() (AudioInfo, error) {
	st, err := os.Stat(s.AudioPath)
	if errors.Is(err, fs.ErrNotExist) {
		return AudioInfo{}, nil
	}
	if err != nil {
		return AudioInfo{}, fmt.Errorf("handoff: stat audio: %w", err)
	}
	info := AudioInfo{Exists: true, Size: st.Size(), ModTime: st.ModTime()}
	if st.Size() == 0 {
		return info, nil
	}

	f, err := os.Open(s.AudioPath)
	if err != nil {
		return info, fmt.Errorf("handoff: open audio: %w", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return info, nil
	}
	info.Valid = true
	info.SampleRate = int(d.SampleRate)
	info.Channels = int(d.NumChans)
	info.BitDepth = int(d.BitDepth)
	if dur, err := d.Duration(); err == nil {
		info.Duration = dur
	}
	return info, nil
}
