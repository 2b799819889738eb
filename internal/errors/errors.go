// Package errors defines the coded errors services return and the HTTP
// status each code maps to.
//
//	if name == "" {
//		return errors.Validation("list name cannot be empty")
//	}
//
// Compare with errors.Is against the sentinels; only the code matters.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable part of an error, echoed to clients.
type Code string

const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeValidation         Code = "VALIDATION"
	CodeConflict           Code = "CONFLICT"
	CodeInternal           Code = "INTERNAL"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeRateLimited        Code = "RATE_LIMITED"
)

var statusByCode = map[Code]int{
	CodeNotFound:           http.StatusNotFound,
	CodeAlreadyExists:      http.StatusConflict,
	CodeConflict:           http.StatusConflict,
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeInvalidCredentials: http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeValidation:         http.StatusBadRequest,
	CodeRateLimited:        http.StatusTooManyRequests,
}

// HTTPStatus maps the code to a response status. Unknown codes are 500.
func (c Code) HTTPStatus() int {
	if status, ok := statusByCode[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is a coded failure. Details, when set, is rendered to clients
// next to the message.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	return errors.As(target, &t) && t.Code == e.Code
}

// HTTPStatus returns the status for the error's code.
func (e *Error) HTTPStatus() int { return e.Code.HTTPStatus() }

// WithCause returns a copy of e that wraps err.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.cause = err
	return &c
}

var (
	ErrNotFound           = New(CodeNotFound, "not found")
	ErrAlreadyExists      = New(CodeAlreadyExists, "already exists")
	ErrUnauthorized       = New(CodeUnauthorized, "unauthorized")
	ErrForbidden          = New(CodeForbidden, "forbidden")
	ErrValidation         = New(CodeValidation, "validation error")
	ErrInternal           = New(CodeInternal, "internal error")
	ErrInvalidCredentials = New(CodeInvalidCredentials, "invalid credentials")
)

// New returns an error with the given code.
func New(code Code, msg string) *Error { return &Error{Code: code, Message: msg} }

func NotFound(msg string) *Error { return New(CodeNotFound, msg) }
func AlreadyExists(msg string) *Error { return New(CodeAlreadyExists, msg) }
func Unauthorized(msg string) *Error { return New(CodeUnauthorized, msg) }
func Forbidden(msg string) *Error { return New(CodeForbidden, msg) }
func Validation(msg string) *Error { return New(CodeValidation, msg) }
func Conflict(msg string) *Error { return New(CodeConflict, msg) }
func Internal(msg string) *Error { return New(CodeInternal, msg) }
func InvalidCredentials(msg string) *Error { return New(CodeInvalidCredentials, msg) }

// Validationf formats a validation message.
func Validationf(format string, args ...any) *Error {
	return New(CodeValidation, fmt.Sprintf(format, args...))
}

// ValidationWithDetails attaches per-field detail to a validation error.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Wrap gives err a code and a client-safe message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// IsValidation reports whether err carries the validation code.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
