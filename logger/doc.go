// Package logger provides structured logging for dictate using zerolog.
//
// Both modes of the binary share it: the short-lived toggle invocation logs to
// stderr so stdout stays clean for the transcript, and the daemon logs to
// whichever output its config names.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//	  output: "stderr"
//
// # Usage
//
//	log := logger.WithComponent("daemon")
//	log.Info("request served", logger.Fields("request_id", id, "chars", n))
package logger
