package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for API operations, matched by HTTP status.
var (
	ErrBadRequest   = errors.New("templatedir: bad request")
	ErrUnauthorized = errors.New("templatedir: unauthorized")
	ErrForbidden    = errors.New("templatedir: forbidden")
	ErrNotFound     = errors.New("templatedir: not found")
	ErrConflict     = errors.New("templatedir: conflict")
	ErrRateLimited  = errors.New("templatedir: rate limited by server")
	ErrServer       = errors.New("templatedir: server error")
)

// Error is a failed API call. It unwraps to one of the sentinel errors.
type Error struct {
	Op      string // Operation: "feed", "save", "submit", ...
	Status  int
	Code    string // Server error code, e.g. VALIDATION; may be empty
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("templatedir %s: %d %s: %s", e.Op, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("templatedir %s: %d: %s", e.Op, e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return sentinelFor(e.Status)
}

func sentinelFor(status int) error {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return ErrBadRequest
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrServer
	}
}
