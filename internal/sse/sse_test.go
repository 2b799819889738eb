package sse

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templatedir/templatedir-server/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func receive(t *testing.T, c *Client) (Event, bool) {
	t.Helper()
	select {
	case e := <-c.Events:
		return e, true
	case <-time.After(200 * time.Millisecond):
		return Event{}, false
	}
}

func TestManager_UserScopedDelivery(t *testing.T) {
	m := NewManager(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	alice, err := m.Connect(Subscription{UserID: "alice"})
	require.NoError(t, err)
	bob, err := m.Connect(Subscription{UserID: "bob"})
	require.NoError(t, err)
	anon, err := m.Connect(Subscription{})
	require.NoError(t, err)

	m.Emit(NewSignedInEvent("alice", "sess-1"))

	got, ok := receive(t, alice)
	require.True(t, ok)
	assert.Equal(t, EventSignedIn, got.Type)

	_, ok = receive(t, bob)
	assert.False(t, ok, "bob must not see alice's session events")
	_, ok = receive(t, anon)
	assert.False(t, ok, "anonymous clients get broadcasts only")

	m.Emit(NewListingUpvotedEvent("lst-1", 3))
	for _, c := range []*Client{alice, bob, anon} {
		got, ok := receive(t, c)
		require.True(t, ok)
		assert.Equal(t, EventListingUpvoted, got.Type)
	}
}

func TestManager_ShutdownRightAfterStartFlushesQueue(t *testing.T) {
	for range 50 {
		m := NewManager(testLogger())
		c, err := m.Connect(Subscription{})
		require.NoError(t, err)

		m.Start(context.Background())
		m.Emit(NewListingUpvotedEvent("lst-1", 1))
		require.NoError(t, m.Shutdown(context.Background()))

		got, ok := <-c.Events
		require.True(t, ok, "queued event must be delivered before the stream closes")
		assert.Equal(t, EventListingUpvoted, got.Type)
		_, ok = <-c.Events
		assert.False(t, ok)
	}
}

func TestManager_StartAfterShutdownIsNoop(t *testing.T) {
	m := NewManager(testLogger())
	require.NoError(t, m.Shutdown(context.Background()))
	m.Start(context.Background())
	require.NoError(t, m.Shutdown(context.Background()))
}

func TestManager_DisconnectAndShutdown(t *testing.T) {
	m := NewManager(testLogger())
	c, err := m.Connect(Subscription{UserID: "u"})
	require.NoError(t, err)
	assert.Equal(t, 1, m.ClientCount())

	m.Disconnect(c.ID)
	m.Disconnect(c.ID)
	assert.Equal(t, 0, m.ClientCount())

	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))

	// Dropped silently after shutdown.
	m.Emit(NewHeartbeatEvent())
}

func TestEventConstructors_ScopeToOwner(t *testing.T) {
	list := &domain.List{ID: "list-1", OwnerID: "u-1", Name: "Go"}
	assert.Equal(t, "u-1", NewListCreatedEvent(list).UserID)
	assert.Equal(t, "u-1", NewListDeletedEvent("u-1", "list-1").UserID)
	assert.Equal(t, "u-1", NewMembershipChangedEvent("u-1", "list-1", "lst-1", true).UserID)
	assert.Empty(t, NewListingCreatedEvent(&domain.Listing{ID: "lst-1"}).UserID)
	assert.Empty(t, NewReviewCreatedEvent(&domain.Review{ID: "rev-1"}).UserID)
}

func TestEventConstructors_TagListing(t *testing.T) {
	assert.Equal(t, "lst-1", NewListingCreatedEvent(&domain.Listing{ID: "lst-1"}).ListingID)
	assert.Equal(t, "lst-1", NewListingUpvotedEvent("lst-1", 2).ListingID)
	assert.Equal(t, "lst-1", NewReviewCreatedEvent(&domain.Review{ID: "rev-1", ListingID: "lst-1"}).ListingID)
	assert.Empty(t, NewListDeletedEvent("u-1", "list-1").ListingID)
}

func TestManager_ListingScopedDelivery(t *testing.T) {
	m := NewManager(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	watcher, err := m.Connect(Subscription{ListingID: "lst-1"})
	require.NoError(t, err)
	everything, err := m.Connect(Subscription{})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Watchers("lst-1"))
	assert.Equal(t, 0, m.Watchers("lst-2"))

	m.Emit(NewListingUpvotedEvent("lst-2", 1))
	got, ok := receive(t, everything)
	require.True(t, ok)
	assert.Equal(t, "lst-2", got.ListingID)
	_, ok = receive(t, watcher)
	assert.False(t, ok, "events about other listings are skipped")

	m.Emit(NewReviewCreatedEvent(&domain.Review{ID: "rev-1", ListingID: "lst-1"}))
	got, ok = receive(t, watcher)
	require.True(t, ok)
	assert.Equal(t, EventReviewCreated, got.Type)
}

func TestSubscription_Wants(t *testing.T) {
	heartbeat := NewHeartbeatEvent()
	mine := NewMembershipChangedEvent("u-1", "list-1", "lst-1", true)

	tests := []struct {
		name  string
		sub   Subscription
		event Event
		want  bool
	}{
		{"heartbeat reaches listing watchers", Subscription{ListingID: "lst-9"}, heartbeat, true},
		{"owner sees own membership change", Subscription{UserID: "u-1"}, mine, true},
		{"owner watching that listing", Subscription{UserID: "u-1", ListingID: "lst-1"}, mine, true},
		{"owner watching another listing", Subscription{UserID: "u-1", ListingID: "lst-2"}, mine, false},
		{"other user", Subscription{UserID: "u-2"}, mine, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.wants(tt.event))
		})
	}
}

func TestHandler_StreamsEvents(t *testing.T) {
	m := NewManager(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	h := NewHandler(m, testLogger(), func(r *http.Request) string {
		return r.URL.Query().Get("user")
	})
	srv := httptest.NewServer(h)
	defer srv.Close()

	reqCtx, reqCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer reqCancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, srv.URL+"?user=alice", http.NoBody)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	// Wait for registration before emitting.
	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	m.Emit(NewSignedOutEvent("alice", "sess-9"))

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: auth.signed_out") {
			break
		}
	}
	data, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, data, `"session_id":"sess-9"`)
}

func TestHandler_RejectsNonGet(t *testing.T) {
	h := NewHandler(NewManager(testLogger()), testLogger(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", http.NoBody))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
