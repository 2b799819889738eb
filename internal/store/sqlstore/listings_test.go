package sqlstore

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/templatedir/templatedir-server/internal/domain"
	"github.com/templatedir/templatedir-server/internal/store"
)

func TestCreateAndGetListing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := makeTestUser(t, s, "user-1")
	l := &domain.Listing{
		ID:          "lst-1",
		Name:        "Next.js Starter",
		Description: "Opinionated starter",
		URL:         "https://github.com/example/next",
		Type:        domain.ListingTypeGitHub,
		Owner:       "example",
		Language:    "TypeScript",
		Icon:        domain.DefaultIcon,
		Tags:        []string{"react", " spaced "},
		SubmitterID: &user.ID,
		CreatedAt:   time.Now(),
	}
	if err := s.CreateListing(ctx, l); err != nil {
		t.Fatalf("CreateListing: %v", err)
	}

	got, err := s.GetListing(ctx, "lst-1")
	if err != nil {
		t.Fatalf("GetListing: %v", err)
	}
	if got.Name != l.Name || got.Type != l.Type || got.Language != l.Language {
		t.Errorf("got %+v, want %+v", got, l)
	}
	if !slices.Equal(got.Tags, l.Tags) {
		t.Errorf("Tags: got %q, want %q", got.Tags, l.Tags)
	}
	if got.SubmitterID == nil || *got.SubmitterID != user.ID {
		t.Errorf("SubmitterID: got %v, want %s", got.SubmitterID, user.ID)
	}
	if got.Upvotes != 0 {
		t.Errorf("Upvotes: got %d, want 0", got.Upvotes)
	}
	if !got.CreatedAt.Equal(l.CreatedAt) {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, l.CreatedAt)
	}
}

func TestCreateListing_Anonymous(t *testing.T) {
	s := newTestStore(t)
	makeTestListing(t, s, "lst-anon", time.Now())

	got, err := s.GetListing(context.Background(), "lst-anon")
	if err != nil {
		t.Fatalf("GetListing: %v", err)
	}
	if got.SubmitterID != nil {
		t.Errorf("expected nil submitter, got %v", *got.SubmitterID)
	}
}

func TestCreateListing_Rejections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	makeTestListing(t, s, "lst-1", time.Now())

	dup := &domain.Listing{ID: "lst-1", Name: "x", Type: domain.ListingTypeGitHub, CreatedAt: time.Now()}
	if err := s.CreateListing(ctx, dup); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("duplicate id: expected ErrAlreadyExists, got %v", err)
	}

	badType := &domain.Listing{ID: "lst-2", Name: "x", Type: "GitLab", CreatedAt: time.Now()}
	if err := s.CreateListing(ctx, badType); !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("bad type: expected ErrInvalidInput, got %v", err)
	}

	ghost := "no-such-user"
	orphan := &domain.Listing{ID: "lst-3", Name: "x", Type: domain.ListingTypeReplit, SubmitterID: &ghost, CreatedAt: time.Now()}
	if err := s.CreateListing(ctx, orphan); !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("unknown submitter: expected ErrInvalidInput, got %v", err)
	}
}

func TestGetListing_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetListing(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListListings_Ordering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i, id := range []string{"lst-a", "lst-b", "lst-c"} {
		makeTestListing(t, s, id, base.Add(time.Duration(i)*time.Minute))
	}

	oldest, err := s.ListListings(ctx, store.ListingQuery{Order: store.OldestFirst, Limit: 2})
	if err != nil {
		t.Fatalf("ListListings: %v", err)
	}
	if ids := listingIDs(oldest); !slices.Equal(ids, []string{"lst-a", "lst-b"}) {
		t.Errorf("oldest first: got %v", ids)
	}

	newest, err := s.ListListings(ctx, store.ListingQuery{Order: store.NewestFirst})
	if err != nil {
		t.Fatalf("ListListings: %v", err)
	}
	if ids := listingIDs(newest); !slices.Equal(ids, []string{"lst-c", "lst-b", "lst-a"}) {
		t.Errorf("newest first: got %v", ids)
	}
}

func TestListListings_Search(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	mk := func(id, name, desc, owner string) {
		l := &domain.Listing{
			ID: id, Name: name, Description: desc, URL: "https://x/" + id,
			Type: domain.ListingTypeReplit, Owner: owner, Language: "Python",
			Icon: domain.DefaultIcon, Tags: []string{}, CreatedAt: now,
		}
		if err := s.CreateListing(ctx, l); err != nil {
			t.Fatalf("CreateListing(%s): %v", id, err)
		}
	}
	mk("lst-1", "Flask API", "REST starter", "alice")
	mk("lst-2", "Django", "Full stack FLASK alternative", "bob")
	mk("lst-3", "Express", "Node server", "flasky")
	mk("lst-4", "Rails", "100% ruby", "carol")
	mk("lst-5", "Gin", "fast_router", "dave")
	mk("lst-6", "Émile Ünicode Bot", "chat bot", "erin")
	mk("lst-7", "émile lower", "lowercase", "frank")

	tests := []struct {
		search string
		want   []string
	}{
		{"flask", []string{"lst-1", "lst-2", "lst-3"}},
		{"FLASK", []string{"lst-1", "lst-2", "lst-3"}},
		{"100%", []string{"lst-4"}},
		{"_router", []string{"lst-5"}},
		{"%", []string{"lst-4"}},
		{"nothing-matches", []string{}},
		{"émile", []string{"lst-6", "lst-7"}},
		{"ÉMILE", []string{"lst-6", "lst-7"}},
		{"Émile", []string{"lst-6", "lst-7"}},
		{"ünicode", []string{"lst-6"}},
		{"ÜNICODE", []string{"lst-6"}},
	}

	for _, tt := range tests {
		got, err := s.ListListings(ctx, store.ListingQuery{Search: tt.search})
		if err != nil {
			t.Fatalf("ListListings(%q): %v", tt.search, err)
		}
		ids := listingIDs(got)
		slices.Sort(ids)
		if !slices.Equal(ids, tt.want) {
			t.Errorf("search %q: got %v, want %v", tt.search, ids, tt.want)
		}
	}
}

func TestListListings_TypeAndSubmitter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := makeTestUser(t, s, "user-1")

	makeTestListing(t, s, "lst-gh", time.Now())
	replit := &domain.Listing{
		ID: "lst-rp", Name: "Repl", Type: domain.ListingTypeReplit, Tags: []string{},
		SubmitterID: &user.ID, CreatedAt: time.Now(),
	}
	if err := s.CreateListing(ctx, replit); err != nil {
		t.Fatalf("CreateListing: %v", err)
	}

	got, err := s.ListListings(ctx, store.ListingQuery{Type: domain.ListingTypeReplit})
	if err != nil {
		t.Fatalf("ListListings: %v", err)
	}
	if ids := listingIDs(got); !slices.Equal(ids, []string{"lst-rp"}) {
		t.Errorf("type filter: got %v", ids)
	}

	got, err = s.ListListings(ctx, store.ListingQuery{SubmitterID: user.ID})
	if err != nil {
		t.Fatalf("ListListings: %v", err)
	}
	if ids := listingIDs(got); !slices.Equal(ids, []string{"lst-rp"}) {
		t.Errorf("submitter filter: got %v", ids)
	}
}

func TestIncrementUpvotes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	makeTestListing(t, s, "lst-1", time.Now())

	for want := 1; want <= 3; want++ {
		got, err := s.IncrementUpvotes(ctx, "lst-1")
		if err != nil {
			t.Fatalf("IncrementUpvotes: %v", err)
		}
		if got != want {
			t.Errorf("upvotes: got %d, want %d", got, want)
		}
	}

	if _, err := s.IncrementUpvotes(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListingRatings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := makeTestUser(t, s, "user-1")
	makeTestListing(t, s, "lst-1", time.Now())
	makeTestListing(t, s, "lst-2", time.Now())
	makeTestListing(t, s, "lst-3", time.Now())

	for i, r := range []int{3, 4, 5} {
		review := &domain.Review{
			ID: "rev-" + string(rune('a'+i)), ListingID: "lst-1", UserID: user.ID,
			Rating: r, Content: "ok", CreatedAt: time.Now(),
		}
		if err := s.CreateReview(ctx, review); err != nil {
			t.Fatalf("CreateReview: %v", err)
		}
	}
	if err := s.CreateReview(ctx, &domain.Review{
		ID: "rev-z", ListingID: "lst-2", UserID: user.ID, Rating: 1, Content: "meh", CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("CreateReview: %v", err)
	}

	got, err := s.ListingRatings(ctx, []string{"lst-1", "lst-2", "lst-3"})
	if err != nil {
		t.Fatalf("ListingRatings: %v", err)
	}

	r1 := got["lst-1"]
	slices.Sort(r1)
	if !slices.Equal(r1, []int{3, 4, 5}) {
		t.Errorf("lst-1 ratings: got %v", r1)
	}
	if !slices.Equal(got["lst-2"], []int{1}) {
		t.Errorf("lst-2 ratings: got %v", got["lst-2"])
	}
	if _, ok := got["lst-3"]; ok {
		t.Errorf("lst-3 should have no ratings")
	}

	empty, err := s.ListingRatings(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("empty ids: got %v, %v", empty, err)
	}
}

func listingIDs(listings []*domain.Listing) []string {
	ids := make([]string, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ID)
	}
	return ids
}
