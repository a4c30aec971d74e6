// Package delivery hands a finished transcript to the user.
//
// A Consumer receives the text once per successful toggle. The built-in
// consumers write to the clipboard, type into the focused window through
// xdotool, or print to a writer. Fanout runs several of them and only logs
// their failures: a transcript that reached the clipboard is not lost because
// typing failed.
//
// Notifier raises desktop notifications for the recording lifecycle.
package delivery
