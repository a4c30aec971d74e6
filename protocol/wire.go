package protocol

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	apperrors "github.com/kbukum/dictate/errors"
)

// CommandTranscribe asks the daemon to transcribe the audio artifact.
const CommandTranscribe = "transcribe"

// DefaultAddr is the loopback address the daemon listens on.
const DefaultAddr = "127.0.0.1:65432"

// MaxCommandBytes bounds how much of a request the daemon reads.
const MaxCommandBytes = 1024

const errorIndicator = "\x00ERR "

var knownCommands = []string{CommandTranscribe}

// EncodeText returns the wire form of a transcript. NUL bytes are dropped so
// text can never be read back as the error indicator.
func EncodeText(text string) []byte {
	text = strings.ToValidUTF8(text, "�")
	return []byte(strings.ReplaceAll(text, "\x00", ""))
}

// EncodeError returns the wire form of a failure message.
func EncodeError(message string) []byte {
	if message == "" {
		message = apperrors.TranscriptionFailed("").Message
	}
	return []byte(errorIndicator + strings.ReplaceAll(message, "\x00", ""))
}

// Decode interprets a complete response. Text is returned trimmed. An error
// indicator becomes a TRANSCRIPTION_FAILED error carrying the daemon's message.
func Decode(raw []byte) (string, error) {
	if len(raw) > 0 && raw[0] == 0 {
		msg, ok := bytes.CutPrefix(raw, []byte(errorIndicator))
		if !ok {
			return "", apperrors.TranscriptionFailed("malformed error reply from daemon")
		}
		return "", apperrors.TranscriptionFailed(strings.TrimSpace(string(msg)))
	}
	if !utf8.Valid(raw) {
		raw = bytes.ToValidUTF8(raw, []byte("�"))
	}
	return strings.TrimSpace(string(raw)), nil
}

// ReadCommand reads one command tag from r, reading at most max bytes. It
// stops at the first newline, at EOF, once the bytes read spell a known
// command, or as soon as they can no longer become one; a client that never
// half-closes is therefore still served. The result is trimmed. Timeouts are
// the caller's concern, typically a read deadline on the connection.
func ReadCommand(r io.Reader, max int) (string, error) {
	if max <= 0 {
		max = MaxCommandBytes
	}
	buf := make([]byte, 0, 32)
	chunk := make([]byte, 32)
	for len(buf) < max {
		n, err := r.Read(chunk[:min(len(chunk), max-len(buf))])
		buf = append(buf, chunk[:n]...)
		if commandComplete(buf) || errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return strings.TrimSpace(string(buf)), err
		}
	}
	return strings.TrimSpace(string(buf)), nil
}

// IsKnown reports whether cmd is a command the daemon serves.
func IsKnown(cmd string) bool {
	for _, k := range knownCommands {
		if cmd == k {
			return true
		}
	}
	return false
}

func commandComplete(buf []byte) bool {
	if bytes.IndexByte(buf, '\n') >= 0 {
		return true
	}
	got := strings.TrimSpace(string(buf))
	if got == "" {
		return false
	}
	for _, k := range knownCommands {
		if got == k {
			return true
		}
		if strings.HasPrefix(k, got) {
			return false
		}
	}
	return true
}
