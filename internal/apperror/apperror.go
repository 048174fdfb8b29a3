package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors for the application's error taxonomy. Services wrap these;
// handlers map them to HTTP status codes with errors.Is.
//
// The split between ErrNotFound, ErrConflict, and ErrUnavailable matters for
// correctness, not just status codes. "No row" is a legitimate branch
// condition for the handle resolver and the toggle reconciler, a uniqueness
// violation is a recoverable race signal in the toggle add path, and
// ErrUnavailable (the store failed for any other reason) must always abort —
// treating a failed probe as "row is free" would fabricate availability.
var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnavailable     = errors.New("store unavailable")
)

type AppError struct {
	Err     error  // sentinel this error belongs to
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated returns an AppError indicating the caller must log in.
// HTTP handlers map this to 401; the frontend redirects to the login page.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// Unavailable wraps a storage failure that is neither "no row" nor a
// uniqueness violation. HTTP handlers map this to 503; the frontend shows a
// generic retryable error and leaves the UI in its pre-action state.
func Unavailable(op string, err error) *AppError {
	return &AppError{
		Err:     ErrUnavailable,
		Message: fmt.Sprintf("storage unavailable during %s: %v", op, err),
	}
}
