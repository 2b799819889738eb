package client

import (
	"context"
	"slices"
	"sync"

	"github.com/templatedir/templatedir-server/internal/domain"
	"github.com/templatedir/templatedir-server/internal/pager"
)

// Set names one of the two listing sets of the feed.
type Set int

const (
	// Featured is the oldest-first set.
	Featured Set = iota
	// Latest is the newest-first set.
	Latest
)

// Mirror is a local copy of the last fetched feed with a page window per
// set. It is safe for concurrent use.
//
// The server stays the source of truth: Refresh replaces the copy wholesale
// and Save only holds its optimistic upvote for the duration of the call.
type Mirror struct {
	client *Client

	mu       sync.RWMutex
	query    string
	featured []domain.RatedListing
	latest   []domain.RatedListing
	windows  [2]pager.Window
	// known is the last upvote count the server reported per listing.
	known map[string]int
}

// NewMirror creates an empty mirror that pages size listings at a time.
func NewMirror(c *Client, size int) *Mirror {
	w := pager.New(size)
	return &Mirror{
		client:  c,
		windows: [2]pager.Window{w, w},
		known:   make(map[string]int),
	}
}

// Refresh re-fetches the feed for query and resets both windows to the
// first page.
func (m *Mirror) Refresh(ctx context.Context, query string) error {
	feed, err := m.client.Feed(ctx, query)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.query = query
	m.featured = feed.Featured
	m.latest = feed.New
	m.known = make(map[string]int, len(feed.Featured)+len(feed.New))
	for _, set := range [][]domain.RatedListing{m.featured, m.latest} {
		for _, l := range set {
			m.known[l.ID] = l.Upvotes
		}
	}
	for i := range m.windows {
		m.windows[i].Reset()
	}
	return nil
}

// Query returns the search term of the last refresh.
func (m *Mirror) Query() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.query
}

func (m *Mirror) set(s Set) []domain.RatedListing {
	if s == Latest {
		return m.latest
	}
	return m.featured
}

// All returns a copy of the whole set.
func (m *Mirror) All(s Set) []domain.RatedListing {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.set(s))
}

// Page returns a copy of the visible part of the set.
func (m *Mirror) Page(s Set) []domain.RatedListing {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(pager.Slice(m.windows[s], m.set(s)))
}

// Next advances the set's window by one page.
func (m *Mirror) Next(s Set) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windows[s].Next(len(m.set(s)))
}

// Prev moves the set's window back one page.
func (m *Mirror) Prev(s Set) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windows[s].Prev()
}

// HasNext reports whether the set has a further page.
func (m *Mirror) HasNext(s Set) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.windows[s].HasNext(len(m.set(s)))
}

// HasPrev reports whether the set has an earlier page.
func (m *Mirror) HasPrev(s Set) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.windows[s].HasPrev()
}

// Upvotes returns the cached upvote count of a listing.
func (m *Mirror) Upvotes(listingID string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, set := range [][]domain.RatedListing{m.featured, m.latest} {
		if i := indexOf(set, listingID); i >= 0 {
			return set[i].Upvotes, true
		}
	}
	return 0, false
}

// Save upvotes a listing. Every cached copy shows the incremented count
// while the request is in flight. On success the copies take the count the
// server returned; on failure they fall back to the last count the server
// reported.
func (m *Mirror) Save(ctx context.Context, listingID string) (*SaveResult, error) {
	m.mu.Lock()
	m.adjust(listingID, func(n int) int { return n + 1 })
	m.mu.Unlock()

	result, err := m.client.Save(ctx, listingID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		if known, ok := m.known[listingID]; ok {
			m.adjust(listingID, func(int) int { return known })
		}
		return nil, err
	}

	m.known[listingID] = result.Upvotes
	m.adjust(listingID, func(int) int { return result.Upvotes })
	return result, nil
}

// adjust rewrites the upvote count of every cached copy of a listing.
// The caller holds m.mu.
func (m *Mirror) adjust(listingID string, f func(int) int) {
	for _, set := range [][]domain.RatedListing{m.featured, m.latest} {
		if i := indexOf(set, listingID); i >= 0 {
			set[i].Upvotes = f(set[i].Upvotes)
		}
	}
}

func indexOf(set []domain.RatedListing, id string) int {
	return slices.IndexFunc(set, func(l domain.RatedListing) bool { return l.ID == id })
}
