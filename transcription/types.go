package transcription

import "strings"

// DefaultBeamSize is the beam width used when none is configured.
const DefaultBeamSize = 1

// Request holds parameters for a transcription call.
type Request struct {
	// AudioPath is the path to the audio file to transcribe.
	AudioPath string `json:"audio_path"`
	// BeamSize is the decoder beam width.
	BeamSize int `json:"beam_size"`
	// Language forces the spoken language (e.g. "en"); empty detects it.
	Language string `json:"language,omitempty"`
	// Model overrides the backend's configured model.
	Model string `json:"model,omitempty"`
}

// RequestAttrs returns the fields of r that go into logs and spans.
func RequestAttrs(r Request) map[string]any {
	attrs := map[string]any{
		"audio_path": r.AudioPath,
		"beam_size":  r.BeamSize,
	}
	if r.Language != "" {
		attrs["language"] = r.Language
	}
	return attrs
}

// Response holds the result of a transcription call.
type Response struct {
	// Text is the full transcript as reported by the backend, if any.
	Text string `json:"text,omitempty"`
	// Segments are the recognized segments in time order.
	Segments []Segment `json:"segments,omitempty"`
	// Language is the detected or forced language.
	Language string `json:"language,omitempty"`
	// LanguageProbability is the detection confidence in [0, 1].
	LanguageProbability float64 `json:"language_probability,omitempty"`
	// Duration is the audio duration in seconds.
	Duration float64 `json:"duration,omitempty"`
}

// Segment is a time-aligned portion of a transcript.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript returns the trimmed segment texts joined by a single space.
// Without segments it falls back to the trimmed Text.
func (r *Response) Transcript() string {
	if r == nil {
		return ""
	}
	if len(r.Segments) == 0 {
		return strings.TrimSpace(r.Text)
	}
	parts := make([]string, 0, len(r.Segments))
	for _, s := range r.Segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// EndTime returns the end of the last segment, or Duration when larger.
func (r *Response) EndTime() float64 {
	if r == nil {
		return 0
	}
	end := r.Duration
	if n := len(r.Segments); n > 0 && r.Segments[n-1].End > end {
		end = r.Segments[n-1].End
	}
	return end
}
