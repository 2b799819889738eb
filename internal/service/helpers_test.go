package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/templatedir/templatedir-server/internal/domain"
	"github.com/templatedir/templatedir-server/internal/sse"
	"github.com/templatedir/templatedir-server/internal/store/sqlstore"
	"github.com/templatedir/templatedir-server/internal/validation"
)

// recordingEmitter captures emitted events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) Emit(e sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingEmitter) types() []sse.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sse.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	s, err := sqlstore.Open(sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "test.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createTestUser(t *testing.T, s *sqlstore.Store, id string) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:           id,
		Email:        id + "@test.com",
		PasswordHash: "$argon2id$fake",
		Username:     id,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

// createTestListing stores a listing created at the given offset from a
// fixed base time, so ordering in tests is deterministic.
func createTestListing(t *testing.T, s *sqlstore.Store, id, name string, offset time.Duration) *domain.Listing {
	t.Helper()
	listing := &domain.Listing{
		ID:          id,
		Name:        name,
		Description: name + " description",
		URL:         "https://github.com/example/" + id,
		Type:        domain.ListingTypeGitHub,
		Owner:       "example",
		Language:    "Go",
		Icon:        domain.DefaultIcon,
		Tags:        []string{},
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(offset),
	}
	require.NoError(t, s.CreateListing(context.Background(), listing))
	return listing
}

func newTestValidator() *validation.Validator {
	return validation.New()
}

func listingNames(rated []domain.RatedListing) []string {
	names := make([]string, len(rated))
	for i, r := range rated {
		names[i] = r.Name
	}
	return names
}
