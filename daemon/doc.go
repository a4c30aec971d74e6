// Package daemon is the long-lived transcription service.
//
// A Server loads its transcription provider once when it starts, then serves
// control protocol connections strictly one at a time on a single goroutine.
// A failing or panicking request is answered with the protocol error
// indicator and never takes the service down.
//
// Server implements component.Component, so bootstrap drives its lifecycle:
// Start loads the model and binds the listener, Stop stops accepting, lets
// the in-flight request finish and releases the model.
package daemon
