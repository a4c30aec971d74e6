package errors

import (
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// ExitCode is the recommended process exit code for this error.
	ExitCode int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable and exit code detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
		ExitCode:  ExitCodeFor(code),
	}
}

// --- Domain constructors ---

// DaemonUnavailable creates an AppError for a transcription daemon that is not listening.
func DaemonUnavailable(addr string) *AppError {
	return New(ErrCodeDaemonUnavailable,
		fmt.Sprintf("The transcription daemon at %s is not reachable. Start it with 'dictate daemon'.", addr)).
		WithDetail("addr", addr)
}

// RecorderFailed creates an AppError for a capture subprocess that could not be started.
func RecorderFailed(reason string) *AppError {
	return New(ErrCodeRecorderFailed, fmt.Sprintf("Recorder failed: %s", reason))
}

// TranscriptionFailed creates an AppError for a transcription the daemon could not complete.
func TranscriptionFailed(reason string) *AppError {
	if reason == "" {
		reason = "Error during transcription"
	}
	return New(ErrCodeTranscriptionFailed, reason)
}

// ModelLoadFailed creates an AppError for a model capability that failed to load.
func ModelLoadFailed(provider string) *AppError {
	return New(ErrCodeModelLoadFailed, fmt.Sprintf("Failed to load the %s model.", provider)).
		WithDetail("provider", provider)
}

// InvalidCommand creates an AppError for an unrecognized control command.
func InvalidCommand(command string) *AppError {
	return New(ErrCodeInvalidCommand, fmt.Sprintf("Unrecognized command %q.", command)).
		WithDetail("command", command)
}

// NotFound creates an AppError for a resource that does not exist.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return New(ErrCodeNotFound, fmt.Sprintf("The requested %s was not found.", resource)).
		WithDetails(details)
}

// --- Common constructors ---

// ServiceUnavailable creates an AppError for a backend that is temporarily unavailable.
func ServiceUnavailable(service string) *AppError {
	return New(ErrCodeServiceUnavailable,
		fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service)).
		WithDetail("service", service)
}

// Timeout creates an AppError for an operation that exceeded its bound.
func Timeout(operation string) *AppError {
	return New(ErrCodeTimeout, "The operation took too long.").
		WithDetail("operation", operation)
}

// InvalidInput creates an AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return New(ErrCodeInvalidInput, fmt.Sprintf("Invalid input: %s", reason)).
		WithDetails(details)
}

// Validation creates an AppError for validation errors.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message)
}

// MissingField creates an AppError for a missing required field.
func MissingField(field string) *AppError {
	return New(ErrCodeMissingField, fmt.Sprintf("Missing required field: %s", field)).
		WithDetail("field", field)
}

// Internal creates an AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred.").WithCause(cause)
}

// ExternalServiceError creates an AppError for an error from an external service.
func ExternalServiceError(service string, cause error) *AppError {
	return New(ErrCodeExternalService,
		fmt.Sprintf("The %s service encountered an error.", service)).
		WithDetail("service", service).
		WithCause(cause)
}
