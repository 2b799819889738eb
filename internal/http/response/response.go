// Package response writes plain JSON responses for the chi handlers that sit
// outside the huma API: the legacy form endpoints and router middleware.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/templatedir/templatedir-server/internal/errors"
	"github.com/templatedir/templatedir-server/internal/store"
)

// ErrorBody is the error shape of the legacy endpoints.
type ErrorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes v as the response body with the given status code.
func JSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		if logger != nil {
			logger.Error("Failed to encode JSON response", "error", err)
		}
	}
}

// Text writes a plain-text body.
func Text(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// Created writes a created response (201 Created).
func Created(w http.ResponseWriter, v any, logger *slog.Logger) {
	JSON(w, http.StatusCreated, v, logger)
}

// Error writes {"error": message} with the given status code.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	JSON(w, status, ErrorBody{Error: message}, logger)
}

// BadRequest writes a 400 Bad Request response carrying details and the
// rejected payload.
func BadRequest(w http.ResponseWriter, message string, details, data any, logger *slog.Logger) {
	JSON(w, http.StatusBadRequest, ErrorBody{Error: message, Details: details, Data: data}, logger)
}

// TooManyRequests writes a 429 Too Many Requests response.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	w.Header().Set("Retry-After", "60")
	Error(w, http.StatusTooManyRequests, message, logger)
}

// InternalError writes a 500 Internal Server Error response.
func InternalError(w http.ResponseWriter, details string, logger *slog.Logger) {
	JSON(w, http.StatusInternalServerError, ErrorBody{Error: "Internal server error", Details: details}, logger)
}

// StatusOf returns the HTTP status an error maps to. Domain and store errors
// carry their own status; anything else is a 500.
func StatusOf(err error) int {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return domainErr.HTTPStatus()
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		return storeErr.HTTPCode()
	}

	return http.StatusInternalServerError
}

// HandleError writes an appropriate HTTP response based on the error type.
// Client errors keep their message; unknown errors become a generic 500.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.Error("Unhandled error", "error", err)
		}
		InternalError(w, err.Error(), logger)
		return
	}

	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		JSON(w, status, ErrorBody{Error: domainErr.Message, Details: domainErr.Details}, logger)
		return
	}
	Error(w, status, err.Error(), logger)
}
