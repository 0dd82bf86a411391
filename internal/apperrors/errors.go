// internal/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind tags an application error with its failure class. Handlers map
// kinds to HTTP statuses; services never touch HTTP.
type Kind string

const (
	KindNotFound         Kind = "NOT_FOUND"
	KindInvalidState     Kind = "INVALID_STATE"
	KindMissingParty     Kind = "MISSING_PARTY"
	KindInvalidMargin    Kind = "INVALID_MARGIN"
	KindTerminalState    Kind = "TERMINAL_STATE"
	KindGenerationFailed Kind = "GENERATION_FAILED"
	KindValidation       Kind = "VALIDATION_ERROR"
	KindUnauthorized     Kind = "UNAUTHORIZED"
	KindForbidden        Kind = "FORBIDDEN"
	KindConflict         Kind = "CONFLICT"
	KindInternal         Kind = "INTERNAL_ERROR"
)

var statusByKind = map[Kind]int{
	KindNotFound:         http.StatusNotFound,
	KindInvalidState:     http.StatusUnprocessableEntity,
	KindMissingParty:     http.StatusUnprocessableEntity,
	KindInvalidMargin:    http.StatusUnprocessableEntity,
	KindTerminalState:    http.StatusConflict,
	KindGenerationFailed: http.StatusBadGateway,
	KindValidation:       http.StatusBadRequest,
	KindUnauthorized:     http.StatusUnauthorized,
	KindForbidden:        http.StatusForbidden,
	KindConflict:         http.StatusConflict,
	KindInternal:         http.StatusInternalServerError,
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the response status for the error's kind.
func (e *Error) HTTPStatus() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NotFound builds the canonical unknown-id error.
func NotFound(resource string) *Error {
	return Newf(KindNotFound, "%s not found", resource)
}

// IsKind reports whether err is an application error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// From extracts the application error from err, or wraps err as internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(KindInternal, err, "internal error")
}
