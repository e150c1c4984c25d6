package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error
type Kind string

const (
	KindBadRequest Kind = "BAD_REQUEST"
	KindConflict   Kind = "CONFLICT"
	KindNotFound   Kind = "NOT_FOUND"
	KindInternal   Kind = "INTERNAL_ERROR"
)

// AppError is an error with a kind that maps to an HTTP status
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

// Error returns the client-facing message; the cause is available through
// Unwrap
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap attaches an underlying cause
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// HTTPStatus returns the status code for the error kind.
// Conflicts are reported as 400, which is what the front-end expects.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindBadRequest, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// BadRequest creates a validation error
func BadRequest(format string, args ...any) *AppError {
	return &AppError{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a uniqueness violation error
func Conflict(format string, args ...any) *AppError {
	return &AppError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not found error
func NotFound(format string, args ...any) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected storage or I/O failure. The message is the raw
// error text.
func Internal(err error) *AppError {
	msg := "an internal error occurred"
	if err != nil {
		msg = err.Error()
	}
	return &AppError{Kind: KindInternal, Message: msg, Err: err}
}

// As extracts an AppError from err, classifying anything else as internal
func As(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// StatusOf returns the HTTP status for any error
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return As(err).HTTPStatus()
}
