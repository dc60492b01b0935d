package errors

import (
	"fmt"
)

// SyncError is the structured error type for codeturtle.
// It carries the context the reconciler needs to apply per-category policy:
// fatal errors abort the run, warnings are logged and skipped, everything
// else is reported in the run summary.
type SyncError struct {
	// Code is the unique error code (e.g., "ERR_301_FILE_UNREADABLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Input, IO, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SyncError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
func (e *SyncError) Is(target error) bool {
	if t, ok := target.(*SyncError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *SyncError) WithDetail(key, value string) *SyncError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new SyncError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *SyncError {
	return &SyncError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a SyncError from an existing error.
// The error's message becomes the SyncError message.
func Wrap(code string, err error) *SyncError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *SyncError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// InputError creates an error for an unreadable explicitly-named change list.
func InputError(message string, cause error) *SyncError {
	return New(ErrCodeUpsertListUnreadable, message, cause)
}

// FileError creates a per-file I/O error, recovered locally by the caller.
func FileError(message string, cause error) *SyncError {
	return New(ErrCodeFileUnreadable, message, cause)
}

// EmbedError creates an embedding failure error for a batch.
func EmbedError(message string, cause error) *SyncError {
	return New(ErrCodeEmbedFailed, message, cause)
}

// StoreError creates a vector store upsert error.
func StoreError(message string, cause error) *SyncError {
	return New(ErrCodeUpsertFailed, message, cause)
}

// IsFatal checks if an error has fatal severity.
// Fatal errors abort the run before further store mutation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*SyncError); ok {
		return se.Severity == SeverityFatal
	}
	return false
}

// IsRetryable checks if an error is retryable within the current run.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*SyncError); ok {
		return se.Retryable
	}
	return false
}

// GetCode extracts the error code from a SyncError.
// Returns empty string if not a SyncError.
func GetCode(err error) string {
	if se, ok := err.(*SyncError); ok {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category from a SyncError.
// Returns empty string if not a SyncError.
func GetCategory(err error) Category {
	if se, ok := err.(*SyncError); ok {
		return se.Category
	}
	return ""
}
