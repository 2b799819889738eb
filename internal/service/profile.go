package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/templatedir/templatedir-server/internal/domain"
	domainerrors "github.com/templatedir/templatedir-server/internal/errors"
	"github.com/templatedir/templatedir-server/internal/store"
)

// Profile is the signed-in user's own page.
type Profile struct {
	User     *domain.User          `json:"user"`
	Listings []domain.RatedListing `json:"repos"`
	Lists    []*domain.List        `json:"lists"`
}

// ProfileService assembles the my-profile view.
type ProfileService struct {
	store    store.Store
	listings *ListingService
	lists    *ListService
}

// NewProfileService creates a new profile service.
func NewProfileService(store store.Store, listings *ListingService, lists *ListService) *ProfileService {
	return &ProfileService{store: store, listings: listings, lists: lists}
}

// Get returns the user with their submitted listings and lists.
func (s *ProfileService) Get(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	listings, err := s.listings.ListBySubmitter(ctx, userID)
	if err != nil {
		return nil, err
	}

	lists, err := s.lists.ListLists(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Profile{User: user, Listings: listings, Lists: lists}, nil
}
