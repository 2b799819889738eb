package store_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/templatedir/templatedir-server/internal/store"
)

func TestError_ErrorWithCause(t *testing.T) {
	cause := errors.New("CHECK constraint failed: rating")
	err := store.ErrInvalidInput.WithCause(cause)

	assert.Contains(t, err.Error(), "invalid input")
	assert.Contains(t, err.Error(), "CHECK constraint failed")
	assert.Equal(t, cause, err.Unwrap())
}

func TestError_IsSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("get listing: %w", store.ErrNotFound.WithCause(errors.New("no rows")))

	assert.True(t, errors.Is(err, store.ErrNotFound))
	assert.False(t, errors.Is(err, store.ErrAlreadyExists))
}

func TestError_WithMessage(t *testing.T) {
	modified := store.ErrNotFound.WithMessage("listing not found")

	assert.Equal(t, http.StatusNotFound, modified.HTTPCode())
	assert.Equal(t, "listing not found", modified.Message)
	assert.True(t, errors.Is(modified, store.ErrNotFound))
	assert.Equal(t, "resource not found", store.ErrNotFound.Message, "sentinel is not mutated")
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      *store.Error
		wantCode int
	}{
		{"not found", store.ErrNotFound, http.StatusNotFound},
		{"already exists", store.ErrAlreadyExists, http.StatusConflict},
		{"invalid input", store.ErrInvalidInput, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.HTTPCode())
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}
