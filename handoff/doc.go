// Package handoff is the filesystem state shared by independent invocations
// of the recording controller and by the transcription daemon.
//
// Two fixed paths make up the store. The marker file holds the decimal PID of
// the running capture subprocess followed by a newline; it exists exactly
// while a recording session is open. The audio artifact is the mono 16 kHz
// WAV file the capture subprocess writes and the daemon reads.
//
// The marker is created atomically: its content goes to a temporary file in
// the same directory which is then hard-linked into place, so a reader never
// observes a half-written PID and two writers can never both succeed.
package handoff
