package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedJSON renders a feed envelope with n featured listings f0..f(n-1)
// and one new listing that is also featured f0.
func feedJSON(n, upvotes int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"id":"f%d","name":"F%d","upvotes":%d,"averageRating":null}`, i, i, upvotes)
	}
	newSet := fmt.Sprintf(`{"id":"f0","name":"F0","upvotes":%d,"averageRating":null}`, upvotes)
	return fmt.Sprintf(`{"v":1,"success":true,"data":{"featured":[%s],"new":[%s]}}`, strings.Join(items, ","), newSet)
}

func TestMirror_RefreshAndPaging(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, feedJSON(14, 0))
	})
	m := NewMirror(c, 6)

	require.NoError(t, m.Refresh(context.Background(), "q"))
	assert.Equal(t, "q", m.Query())
	assert.Len(t, m.All(Featured), 14)

	page := m.Page(Featured)
	require.Len(t, page, 6)
	assert.Equal(t, "f0", page[0].ID)
	assert.False(t, m.HasPrev(Featured))
	assert.True(t, m.HasNext(Featured))

	m.Next(Featured)
	assert.Equal(t, "f6", m.Page(Featured)[0].ID)

	// The last page is clamped to a full window.
	m.Next(Featured)
	page = m.Page(Featured)
	require.Len(t, page, 6)
	assert.Equal(t, "f8", page[0].ID)
	assert.False(t, m.HasNext(Featured))

	m.Next(Featured)
	assert.Equal(t, "f8", m.Page(Featured)[0].ID)

	m.Prev(Featured)
	assert.Equal(t, "f2", m.Page(Featured)[0].ID)

	// Sets page independently.
	assert.Len(t, m.Page(Latest), 1)

	require.NoError(t, m.Refresh(context.Background(), "q"))
	assert.Equal(t, "f0", m.Page(Featured)[0].ID)
}

func TestMirror_SaveConfirmsServerCount(t *testing.T) {
	var m *Mirror
	var inFlight atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/save") {
			n, _ := m.Upvotes("f0")
			inFlight.Store(int64(n))
			io.WriteString(w, `{"v":1,"success":true,"data":{"repo_id":"f0","list_id":"s","upvotes":7,"added":true}}`)
			return
		}
		io.WriteString(w, feedJSON(2, 4))
	})
	m = NewMirror(c, 6)
	require.NoError(t, m.Refresh(context.Background(), ""))

	res, err := m.Save(context.Background(), "f0")
	require.NoError(t, err)
	assert.Equal(t, 7, res.Upvotes)

	assert.EqualValues(t, 5, inFlight.Load(), "optimistic count while in flight")

	n, ok := m.Upvotes("f0")
	require.True(t, ok)
	assert.Equal(t, 7, n)
	// Every cached copy carries the confirmed count.
	assert.Equal(t, 7, m.All(Latest)[0].Upvotes)
	assert.Equal(t, 4, m.All(Featured)[1].Upvotes)
}

func TestMirror_SaveRollsBackOnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/save") {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"v":1,"success":false,"error":"Authentication required","code":"UNAUTHORIZED"}`)
			return
		}
		io.WriteString(w, feedJSON(1, 2))
	})
	m := NewMirror(c, 6)
	require.NoError(t, m.Refresh(context.Background(), ""))

	_, err := m.Save(context.Background(), "f0")
	require.ErrorIs(t, err, ErrUnauthorized)

	n, _ := m.Upvotes("f0")
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, m.All(Latest)[0].Upvotes)
}

func TestMirror_SaveUnknownListing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/save") {
			io.WriteString(w, `{"v":1,"success":true,"data":{"repo_id":"zz","list_id":"s","upvotes":1,"added":true}}`)
			return
		}
		io.WriteString(w, feedJSON(1, 0))
	})
	m := NewMirror(c, 6)
	require.NoError(t, m.Refresh(context.Background(), ""))

	_, err := m.Save(context.Background(), "zz")
	require.NoError(t, err)

	_, ok := m.Upvotes("zz")
	assert.False(t, ok)
	n, _ := m.Upvotes("f0")
	assert.Equal(t, 0, n)
}
