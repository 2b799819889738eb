// Package store defines the persistence surface of the TemplateDir server.
//
// Services depend on the Store interface only; internal/store/sqlstore
// implements it on SQLite and PostgreSQL.
package store

import (
	"context"

	"github.com/templatedir/templatedir-server/internal/domain"
)

// Store is the relational query surface consumed by the services.
type Store interface {
	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
	SetSearchIndexer(indexer SearchIndexer)

	// Listings
	CreateListing(ctx context.Context, listing *domain.Listing) error
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	ListListings(ctx context.Context, q ListingQuery) ([]*domain.Listing, error)
	IncrementUpvotes(ctx context.Context, id string) (int, error)
	ListingRatings(ctx context.Context, listingIDs []string) (map[string][]int, error)

	// Reviews
	CreateReview(ctx context.Context, review *domain.Review) error
	ListReviews(ctx context.Context, listingID string) ([]*domain.Review, error)

	// Lists
	CreateList(ctx context.Context, list *domain.List) error
	InsertDefaultList(ctx context.Context, list *domain.List) (bool, error)
	GetList(ctx context.Context, id string) (*domain.List, error)
	GetListByName(ctx context.Context, ownerID, name string) (*domain.List, error)
	ListLists(ctx context.Context, ownerID string) ([]*domain.List, error)
	DeleteList(ctx context.Context, id string) error

	// Memberships
	AddMembership(ctx context.Context, listID, listingID string) (bool, error)
	RemoveMembership(ctx context.Context, listID, listingID string) (bool, error)
	HasMembership(ctx context.Context, listID, listingID string) (bool, error)
	ListListingsInList(ctx context.Context, listID string) ([]*domain.Listing, error)
	OwnerMemberships(ctx context.Context, ownerID string) (map[string][]string, error)

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// Auth sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)
}

// SortOrder is the creation-time ordering of a listing query.
type SortOrder int

const (
	// OldestFirst orders by created_at ascending.
	OldestFirst SortOrder = iota
	// NewestFirst orders by created_at descending.
	NewestFirst
)

// ListingQuery filters and orders a listing scan. Zero values mean "no
// constraint": an empty Search matches everything and Limit 0 is unbounded.
type ListingQuery struct {
	Search      string             // Case-insensitive substring of name, description or owner
	Type        domain.ListingType // Restrict to one listing type
	SubmitterID string             // Restrict to one submitting user
	Order       SortOrder
	Limit       int
}

// SearchIndexer keeps a full-text index in step with listing writes.
type SearchIndexer interface {
	IndexListing(ctx context.Context, listing *domain.Listing) error
	DeleteListing(ctx context.Context, listingID string) error
}

// NoopSearchIndexer is used when search is disabled.
type NoopSearchIndexer struct{}

// IndexListing is a no-op.
func (NoopSearchIndexer) IndexListing(context.Context, *domain.Listing) error { return nil }

// DeleteListing is a no-op.
func (NoopSearchIndexer) DeleteListing(context.Context, string) error { return nil }

// NewNoopSearchIndexer returns an indexer that does nothing.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}
