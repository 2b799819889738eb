package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/templatedir/templatedir-server/internal/errors"
	"github.com/templatedir/templatedir-server/internal/sse"
)

func TestReviewService_Create(t *testing.T) {
	s := setupTestStore(t)
	events := &recordingEmitter{}
	svc := NewReviewService(s, events, testLogger())
	ctx := context.Background()
	user := createTestUser(t, s, "user-1")
	l := createTestListing(t, s, "lst-1", "One", 0)

	review, err := svc.Create(ctx, user.ID, l.ID, 5, "  great template  ")
	require.NoError(t, err)
	assert.Equal(t, "great template", review.Content)
	assert.Equal(t, 5, review.Rating)

	// No uniqueness per user.
	_, err = svc.Create(ctx, user.ID, l.ID, 2, "changed my mind")
	require.NoError(t, err)

	assert.Equal(t, []sse.EventType{sse.EventReviewCreated, sse.EventReviewCreated}, events.types())
}

func TestReviewService_Create_Validation(t *testing.T) {
	s := setupTestStore(t)
	svc := NewReviewService(s, nil, testLogger())
	ctx := context.Background()
	user := createTestUser(t, s, "user-1")
	l := createTestListing(t, s, "lst-1", "One", 0)

	for _, stars := range []int{0, -1, 6} {
		_, err := svc.Create(ctx, user.ID, l.ID, stars, "text")
		assert.True(t, domainerrors.IsValidation(err), "rating %d", stars)
	}

	_, err := svc.Create(ctx, user.ID, l.ID, 3, "   ")
	assert.True(t, domainerrors.IsValidation(err))

	_, err = svc.Create(ctx, user.ID, "lst-missing", 3, "text")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestReviewService_ListNewestFirst(t *testing.T) {
	s := setupTestStore(t)
	svc := NewReviewService(s, nil, testLogger())
	ctx := context.Background()
	user := createTestUser(t, s, "user-1")
	l := createTestListing(t, s, "lst-1", "One", 0)

	empty, err := svc.ListForListing(ctx, l.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = svc.Create(ctx, user.ID, l.ID, 3, "first")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = svc.Create(ctx, user.ID, l.ID, 4, "second")
	require.NoError(t, err)

	reviews, err := svc.ListForListing(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "second", reviews[0].Content)

	_, err = svc.ListForListing(ctx, "lst-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
