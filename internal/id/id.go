// Package id generates identifiers for stored entities.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the entity kinds the server stores.
const (
	PrefixListing = "lst"
	PrefixReview  = "rev"
	PrefixList    = "list"
	PrefixSession = "sess"
	PrefixToken   = "tok"
)

// Generate creates a prefixed NanoID such as "lst-V1StGXR8_Z5jdHi6B-myT".
// Returns an error if the system has insufficient entropy.
func Generate(prefix string) (string, error) {
	n, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + n, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return v
}

// NewUserID returns a random UUID for a user account.
// User ids are UUIDs so they stay compatible with identities issued by
// hosted auth providers the listings may have been imported from.
func NewUserID() string {
	return uuid.NewString()
}

// IsUserID reports whether s parses as a user id.
func IsUserID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
