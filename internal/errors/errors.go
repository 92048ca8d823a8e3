// Package errors provides error code definitions for the floorsync core.
package errors

import "fmt"

// ErrorCode represents a unique error code surfaced to the host application.
type ErrorCode string

const (
	// General errors
	ErrInternal ErrorCode = "INTERNAL_ERROR"
	ErrInvalid  ErrorCode = "INVALID_INPUT"
	ErrNotFound ErrorCode = "NOT_FOUND"

	// Database errors
	ErrDatabase  ErrorCode = "DATABASE_ERROR"
	ErrMigration ErrorCode = "MIGRATION_FAILED"

	// Sync errors
	ErrVersionConflict ErrorCode = "VERSION_CONFLICT"
	ErrTransport       ErrorCode = "TRANSPORT_ERROR"
	ErrOfflineDeferred ErrorCode = "OFFLINE_DEFERRED"
	ErrSaveInFlight    ErrorCode = "SAVE_IN_FLIGHT"
	ErrNoBaseline      ErrorCode = "NO_BASELINE"

	// Live channel errors
	ErrChannelClosed    ErrorCode = "CHANNEL_CLOSED"
	ErrHandshakeFailed  ErrorCode = "HANDSHAKE_FAILED"
	ErrNotAuthenticated ErrorCode = "NOT_AUTHENTICATED"
)

// AppError represents an application error with code and message.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is checks if an error is of a specific code.
func Is(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the error code carried by err, or ErrInternal for errors
// produced outside this package.
func CodeOf(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ErrInternal
}
