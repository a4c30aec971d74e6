// Package errors provides the typed error used across dictate.
//
// Every failure that crosses a package boundary is an *AppError carrying a
// machine-readable code, a human-readable message, a retryable flag and the
// process exit code the CLI should use when the error reaches main.
//
//	if errors.IsCode(err, errors.ErrCodeDaemonUnavailable) {
//	    // the daemon is not listening: different from an empty transcript
//	}
package errors
