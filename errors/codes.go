package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Availability errors (retryable)
const (
	// ErrCodeDaemonUnavailable indicates the transcription daemon could not be reached.
	ErrCodeDaemonUnavailable ErrorCode = "DAEMON_UNAVAILABLE"
	// ErrCodeServiceUnavailable indicates a backend service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates an operation exceeded its bound.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeExternalService indicates an error returned by an external collaborator.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// Domain errors
const (
	// ErrCodeRecorderFailed indicates the capture subprocess could not be started or tracked.
	ErrCodeRecorderFailed ErrorCode = "RECORDER_FAILED"
	// ErrCodeTranscriptionFailed indicates the daemon reported a failed transcription.
	ErrCodeTranscriptionFailed ErrorCode = "TRANSCRIPTION_FAILED"
	// ErrCodeModelLoadFailed indicates the model capability could not be loaded at boot.
	ErrCodeModelLoadFailed ErrorCode = "MODEL_LOAD_FAILED"
	// ErrCodeInvalidCommand indicates an unrecognized control command.
	ErrCodeInvalidCommand ErrorCode = "INVALID_COMMAND"
	// ErrCodeNotFound indicates a required file or resource does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeDaemonUnavailable:  true,
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeExternalService:    true,
	ErrCodeInternal:           false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// Process exit codes returned by the CLI.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitUnavailable = 3
)

var exitCodes = map[ErrorCode]int{
	ErrCodeDaemonUnavailable: ExitUnavailable,
	ErrCodeInvalidInput:      ExitUsage,
	ErrCodeMissingField:      ExitUsage,
}

// ExitCodeFor returns the CLI exit code associated with an error code.
func ExitCodeFor(code ErrorCode) int {
	if c, ok := exitCodes[code]; ok {
		return c
	}
	return ExitFailure
}
