// Package apperror carries a failure as an HTTP status plus message. Services
// return these and the handler layer maps them verbatim onto the response
// envelope; anything else surfaces as a 500.
package apperror

import (
	"errors"
	"net/http"
)

// Error is a service-level failure with the status the HTTP boundary should
// respond with.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New creates an Error with an explicit status.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

// From returns err as an *Error, wrapping unexpected errors as a 500 so
// storage failures never leak driver details to clients.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return New(http.StatusInternalServerError, "internal server error")
}
