package store

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a persistence failure tagged with the HTTP status it surfaces as.
// Implementations translate driver errors into one of the sentinels below.
type Error struct {
	Code    int
	Message string
	Err     error
}

var (
	ErrNotFound      = &Error{Code: http.StatusNotFound, Message: "resource not found"}
	ErrAlreadyExists = &Error{Code: http.StatusConflict, Message: "resource already exists"}
	// ErrInvalidInput covers rows the database rejects: a failed CHECK, a
	// dangling reference or a malformed value.
	ErrInvalidInput = &Error{Code: http.StatusBadRequest, Message: "invalid input"}
)

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is compares status codes, so derived copies still match their sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	return errors.As(target, &t) && t.Code == e.Code
}

// HTTPCode returns the status the error maps to.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage derives an error with a more specific message.
func (e *Error) WithMessage(msg string) *Error {
	c := *e
	c.Message = msg
	return &c
}

// WithCause derives an error that wraps the driver error err.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.Err = err
	return &c
}
