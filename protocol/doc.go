// Package protocol is the local control protocol between the recording
// controller and the transcription daemon.
//
// Every request uses its own TCP connection. The client connects, writes the
// command tag, half-closes its write side and reads until the daemon closes
// the connection. The response is raw UTF-8 and is delimited by the close:
// an empty response means there was no text.
//
// A failed request is answered with the error indicator: a NUL byte, the
// ASCII text "ERR " and a message. Transcript text never contains NUL, so the
// indicator cannot be confused with speech.
package protocol
