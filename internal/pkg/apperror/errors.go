// Package apperror defines the error kinds surfaced to API callers.
package apperror

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindBadRequest      Kind = "BAD_REQUEST"
	KindValidation      Kind = "VALIDATION_ERROR"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindRateLimited     Kind = "RATE_LIMITED"
	KindTimeout         Kind = "TIMEOUT"
	KindInternal        Kind = "INTERNAL_ERROR"
)

var statusByKind = map[Kind]int{
	KindBadRequest:      http.StatusBadRequest,
	KindValidation:      http.StatusUnprocessableEntity,
	KindUnauthenticated: http.StatusUnauthorized,
	KindForbidden:       http.StatusForbidden,
	KindNotFound:        http.StatusNotFound,
	KindConflict:        http.StatusConflict,
	KindRateLimited:     http.StatusTooManyRequests,
	KindTimeout:         http.StatusGatewayTimeout,
	KindInternal:        http.StatusInternalServerError,
}

// Error is an error with a caller-facing kind and message. Err carries the
// underlying cause and is never rendered to callers.
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Status() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func New(kind Kind, message string, details ...string) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

func Validation(message string, details ...string) *Error {
	return New(KindValidation, message, details...)
}

func Unauthenticated(message string) *Error {
	return New(KindUnauthenticated, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Conflict(message string, details ...string) *Error {
	return New(KindConflict, message, details...)
}

func RateLimited(message string) *Error {
	return New(KindRateLimited, message)
}

func Timeout(message string, err error) *Error {
	return &Error{Kind: KindTimeout, Message: message, Err: err}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
