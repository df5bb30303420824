// Package apierror defines the operational errors surfaced to API clients.
package apierror

import (
	"fmt"
	"net/http"
)

// Error is an anticipated failure whose message is safe to show to clients.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status is "fail" for client errors and "error" otherwise.
func (e *Error) Status() string { return StatusFor(e.Code) }

func StatusFor(code int) string {
	if code >= 400 && code < 500 {
		return "fail"
	}
	return "error"
}

func New(code int, msg string) *Error { return &Error{Code: code, Message: msg} }

func Wrap(code int, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

func BadRequest(msg string) *Error   { return New(http.StatusBadRequest, msg) }
func Unauthorized(msg string) *Error { return New(http.StatusUnauthorized, msg) }
func Forbidden(msg string) *Error    { return New(http.StatusForbidden, msg) }
func NotFound(msg string) *Error     { return New(http.StatusNotFound, msg) }
func Conflict(msg string) *Error     { return New(http.StatusConflict, msg) }
func Internal(msg string, err error) *Error {
	return Wrap(http.StatusInternalServerError, msg, err)
}
