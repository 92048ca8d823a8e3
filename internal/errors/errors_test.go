// Package errors tests for error code definitions and error handling.
package errors

import (
	"errors"
	"strings"
	"testing"
)

// TestAppError_Error verifies error message formatting.
func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		want     string
	}{
		{
			name:     "error without underlying error",
			appError: &AppError{Code: ErrVersionConflict, Message: "version token is stale"},
			want:     "[VERSION_CONFLICT] version token is stale",
		},
		{
			name:     "error with underlying error",
			appError: &AppError{Code: ErrTransport, Message: "update request failed", Err: errors.New("connection lost")},
			want:     "[TRANSPORT_ERROR] update request failed: connection lost",
		},
		{
			name:     "not found error",
			appError: &AppError{Code: ErrNotFound, Message: "floor plan not found"},
			want:     "[NOT_FOUND] floor plan not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appError.Error()
			if got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestAppError_Unwrap verifies unwrapping of underlying error.
func TestAppError_Unwrap(t *testing.T) {
	underlyingErr := errors.New("underlying error")

	withErr := Wrap(ErrDatabase, "query failed", underlyingErr)
	if withErr.Unwrap() != underlyingErr {
		t.Errorf("Unwrap() = %v, want %v", withErr.Unwrap(), underlyingErr)
	}

	withoutErr := New(ErrDatabase, "query failed")
	if withoutErr.Unwrap() != nil {
		t.Errorf("Unwrap() = %v, want nil", withoutErr.Unwrap())
	}
}

// TestIs verifies error code checking.
func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{
			name: "matching AppError",
			err:  &AppError{Code: ErrVersionConflict, Message: "conflict"},
			code: ErrVersionConflict,
			want: true,
		},
		{
			name: "non-matching AppError",
			err:  &AppError{Code: ErrVersionConflict, Message: "conflict"},
			code: ErrTransport,
			want: false,
		},
		{
			name: "non-AppError",
			err:  errors.New("standard error"),
			code: ErrTransport,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			code: ErrTransport,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Is(tt.err, tt.code)
			if got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestCodeOf verifies code extraction.
func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(ErrNoBaseline, "no token")); got != ErrNoBaseline {
		t.Errorf("CodeOf() = %q, want %q", got, ErrNoBaseline)
	}
	if got := CodeOf(errors.New("plain")); got != ErrInternal {
		t.Errorf("CodeOf() = %q, want %q", got, ErrInternal)
	}
}

// TestErrorCodes_areUnique verifies all error codes are unique.
func TestErrorCodes_areUnique(t *testing.T) {
	codes := []ErrorCode{
		ErrInternal, ErrInvalid, ErrNotFound,
		ErrDatabase, ErrMigration,
		ErrVersionConflict, ErrTransport, ErrOfflineDeferred, ErrSaveInFlight, ErrNoBaseline,
		ErrChannelClosed, ErrHandshakeFailed, ErrNotAuthenticated,
	}

	seen := make(map[ErrorCode]bool)
	for _, code := range codes {
		if code == "" {
			t.Error("ErrorCode should not be empty")
		}
		if seen[code] {
			t.Errorf("ErrorCode %q is duplicated", code)
		}
		seen[code] = true

		if string(code) != strings.ToUpper(string(code)) {
			t.Errorf("ErrorCode %q should be uppercase", code)
		}
	}
}
