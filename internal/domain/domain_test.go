package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingType_Valid(t *testing.T) {
	assert.True(t, ListingTypeGitHub.Valid())
	assert.True(t, ListingTypeReplit.Valid())
	assert.False(t, ListingType("github").Valid())
	assert.False(t, ListingType("").Valid())
}

func TestRate_NoReviewsIsNull(t *testing.T) {
	rated := Rate(Listing{ID: "lst-1", Tags: []string{}}, nil)

	out, err := json.Marshal(rated)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Contains(t, decoded, "averageRating")
	assert.Nil(t, decoded["averageRating"])
	assert.Equal(t, "lst-1", decoded["id"])
}

func TestRate_Average(t *testing.T) {
	rated := Rate(Listing{ID: "lst-1"}, []int{3, 4, 5})
	require.True(t, rated.AverageRating.Valid)
	assert.InDelta(t, 4.0, rated.AverageRating.Value, 1e-9)
}

func TestList_IsDefault(t *testing.T) {
	assert.True(t, (&List{Name: DefaultListName}).IsDefault())
	assert.False(t, (&List{Name: "saved"}).IsDefault())
}

func TestSession_IsExpired(t *testing.T) {
	assert.True(t, (&Session{ExpiresAt: time.Now().Add(-time.Minute)}).IsExpired())
	assert.False(t, (&Session{ExpiresAt: time.Now().Add(time.Hour)}).IsExpired())
}

func TestUser_Name(t *testing.T) {
	assert.Equal(t, "ada", (&User{Username: "ada", Email: "a@x.io"}).Name())
	assert.Equal(t, "a@x.io", (&User{Email: "a@x.io"}).Name())
}

func TestUser_PasswordHashNotSerialized(t *testing.T) {
	out, err := json.Marshal(User{ID: "u", PasswordHash: "secret"})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret")
}
