package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedService_FetchOrdersAndCaps(t *testing.T) {
	s := setupTestStore(t)
	svc := NewFeedService(s, testLogger())
	ctx := context.Background()

	for i := range 14 {
		createTestListing(t, s, fmt.Sprintf("lst-%02d", i), fmt.Sprintf("Listing %02d", i), time.Duration(i)*time.Minute)
	}

	feed, err := svc.Fetch(ctx, "")
	require.NoError(t, err)
	require.Len(t, feed.Featured, FeedLimit)
	require.Len(t, feed.New, FeedLimit)
	assert.Equal(t, "Listing 00", feed.Featured[0].Name)
	assert.Equal(t, "Listing 11", feed.Featured[FeedLimit-1].Name)
	assert.Equal(t, "Listing 13", feed.New[0].Name)
	assert.Equal(t, "Listing 02", feed.New[FeedLimit-1].Name)
}

func TestFeedService_FetchFiltersCaseInsensitively(t *testing.T) {
	s := setupTestStore(t)
	svc := NewFeedService(s, testLogger())
	ctx := context.Background()

	createTestListing(t, s, "lst-1", "Next.js Starter", 0)
	createTestListing(t, s, "lst-2", "Flask API", time.Minute)
	createTestListing(t, s, "lst-3", "50% Done_Template", 2*time.Minute)

	feed, err := svc.Fetch(ctx, "  NEXT ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Next.js Starter"}, listingNames(feed.Featured))
	assert.Equal(t, []string{"Next.js Starter"}, listingNames(feed.New))
	assert.Equal(t, "NEXT", feed.Query)

	// LIKE wildcards in the query are literal.
	feed, err = svc.Fetch(ctx, "%")
	require.NoError(t, err)
	assert.Equal(t, []string{"50% Done_Template"}, listingNames(feed.New))

	// Folding is not limited to ASCII.
	createTestListing(t, s, "lst-4", "Émile Ünicode Bot", 3*time.Minute)
	createTestListing(t, s, "lst-5", "émile lower", 4*time.Minute)
	for _, q := range []string{"émile", "ÉMILE", "Émile"} {
		feed, err = svc.Fetch(ctx, q)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Émile Ünicode Bot", "émile lower"}, listingNames(feed.New), "query %q", q)
	}
	feed, err = svc.Fetch(ctx, "ünicode")
	require.NoError(t, err)
	assert.Equal(t, []string{"Émile Ünicode Bot"}, listingNames(feed.New))

	feed, err = svc.Fetch(ctx, "no such thing")
	require.NoError(t, err)
	assert.NotNil(t, feed.Featured)
	assert.Empty(t, feed.Featured)
	assert.Empty(t, feed.New)
}

func TestFeedService_NewSubmissionAppearsInNew(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	listings := NewListingService(s, newTestValidator(), nil, testLogger())
	feeds := NewFeedService(s, testLogger())

	for i := range 3 {
		createTestListing(t, s, fmt.Sprintf("lst-%d", i), fmt.Sprintf("Old %d", i), time.Duration(i)*time.Minute)
	}

	submitted, err := listings.Submit(ctx, "", validSubmission(`"go, rust ,  "`))
	require.NoError(t, err)

	feed, err := feeds.Fetch(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, feed.New)
	assert.Equal(t, submitted.ID, feed.New[0].ID)
	assert.Equal(t, []string{"go", "rust"}, feed.New[0].Tags)
}

func TestFeedService_FetchCanceled(t *testing.T) {
	s := setupTestStore(t)
	svc := NewFeedService(s, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Fetch(ctx, "")
	assert.Error(t, err)
}
