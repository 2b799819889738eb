package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/templatedir/templatedir-server/internal/errors"
	"github.com/templatedir/templatedir-server/internal/validation"
)

type submission struct {
	Name  string `json:"name" validate:"notblank,max=200"`
	URL   string `json:"url" validate:"required,http_url"`
	Type  string `json:"type" validate:"listing_type"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Stars int    `json:"stars" validate:"gte=1,lte=5"`
}

func valid() submission {
	return submission{
		Name:  "Starter",
		URL:   "https://github.com/example/starter",
		Type:  "GitHub",
		Stars: 4,
	}
}

func TestValidator_Success(t *testing.T) {
	assert.NoError(t, validation.New().Validate(valid()))
}

func TestValidator_FieldErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*submission)
		wantField string
		wantMsg   string
	}{
		{"blank name", func(s *submission) { s.Name = "   " }, "name", "is required"},
		{"bad url", func(s *submission) { s.URL = "not a url" }, "url", "must be a valid URL"},
		{"unknown type", func(s *submission) { s.Type = "GitLab" }, "type", "must be one of: GitHub Replit"},
		{"lowercase type", func(s *submission) { s.Type = "github" }, "type", "must be one of: GitHub Replit"},
		{"bad email", func(s *submission) { s.Email = "nope" }, "email", "must be a valid email address"},
		{"zero stars", func(s *submission) { s.Stars = 0 }, "stars", "must be greater than or equal to 1"},
		{"six stars", func(s *submission) { s.Stars = 6 }, "stars", "must be less than or equal to 5"},
	}

	v := validation.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)

			err := v.Validate(s)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}

func TestValidator_MultipleErrors(t *testing.T) {
	err := validation.New().Validate(submission{})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	details := domainErr.Details.(map[string]string)
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "url")
	assert.Contains(t, details, "type")
	assert.True(t, domainerrors.IsValidation(err))
}
