// Package recorder implements the toggle: the first invocation starts a
// capture subprocess, the next one stops it and asks the transcription daemon
// for the text.
//
// Nothing is kept in memory between invocations. Each Toggle rebuilds the
// session from the handoff store, so two unrelated processes (for example two
// presses of a keyboard shortcut) cooperate through the marker file alone.
//
// A Toggle never leaves an orphan recorder or a dangling marker: a failed
// start kills what it spawned, and a stop removes the marker whatever it found.
package recorder
