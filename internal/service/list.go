package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/templatedir/templatedir-server/internal/domain"
	domainerrors "github.com/templatedir/templatedir-server/internal/errors"
	"github.com/templatedir/templatedir-server/internal/id"
	"github.com/templatedir/templatedir-server/internal/normalize"
	"github.com/templatedir/templatedir-server/internal/sse"
	"github.com/templatedir/templatedir-server/internal/store"
)

// ListService manages user lists and the listings they hold, including
// the implicit "Saved" list. Store failures are returned as-is; nothing
// is retried.
type ListService struct {
	store  store.Store
	events EventEmitter
	logger *slog.Logger
}

// NewListService creates a new list service.
func NewListService(store store.Store, events EventEmitter, logger *slog.Logger) *ListService {
	return &ListService{
		store:  store,
		events: emitterOrNoop(events),
		logger: discardLogger(logger),
	}
}

// SaveResult reports the outcome of SaveListing.
type SaveResult struct {
	ListingID string `json:"repo_id"`
	ListID    string `json:"list_id"`
	Upvotes   int    `json:"upvotes"` // Authoritative count after the increment
	Added     bool   `json:"added"`   // False when already saved
}

// EnsureDefaultList returns the owner's "Saved" list, creating it on first
// use. Concurrent calls for one owner converge on a single row.
func (s *ListService) EnsureDefaultList(ctx context.Context, ownerID string) (*domain.List, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	list, err := s.store.GetListByName(ctx, ownerID, domain.DefaultListName)
	if err == nil {
		return list, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get default list: %w", err)
	}

	listID, err := id.Generate(id.PrefixList)
	if err != nil {
		return nil, fmt.Errorf("generate list ID: %w", err)
	}

	candidate := &domain.List{
		ID:        listID,
		OwnerID:   ownerID,
		Name:      domain.DefaultListName,
		CreatedAt: time.Now(),
	}

	inserted, err := s.store.InsertDefaultList(ctx, candidate)
	if err != nil {
		s.logger.Error("failed to create default list", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("create default list: %w", err)
	}
	if inserted {
		s.logger.Info("default list created", "list_id", listID, "owner_id", ownerID)
		s.events.Emit(sse.NewListCreatedEvent(candidate))
		return candidate, nil
	}

	// Lost the race; read the winner.
	list, err = s.store.GetListByName(ctx, ownerID, domain.DefaultListName)
	if err != nil {
		return nil, fmt.Errorf("get default list: %w", err)
	}
	return list, nil
}

// CreateList creates a named list.
func (s *ListService) CreateList(ctx context.Context, ownerID, name string) (*domain.List, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name = normalize.Text(name)
	if name == "" {
		return nil, domainerrors.Validation("list name cannot be empty")
	}
	if name == domain.DefaultListName {
		return s.EnsureDefaultList(ctx, ownerID)
	}

	listID, err := id.Generate(id.PrefixList)
	if err != nil {
		return nil, fmt.Errorf("generate list ID: %w", err)
	}

	list := &domain.List{
		ID:        listID,
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: time.Now(),
	}

	if err := s.store.CreateList(ctx, list); err != nil {
		s.logger.Error("failed to create list", "owner_id", ownerID, "name", name, "error", err)
		return nil, fmt.Errorf("create list: %w", err)
	}

	s.logger.Info("list created", "list_id", listID, "owner_id", ownerID, "name", name)
	s.events.Emit(sse.NewListCreatedEvent(list))

	return list, nil
}

// ListLists returns the owner's lists ordered by name.
func (s *ListService) ListLists(ctx context.Context, ownerID string) ([]*domain.List, error) {
	lists, err := s.store.ListLists(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	if lists == nil {
		lists = []*domain.List{}
	}
	return lists, nil
}

// DeleteList removes a list and every membership in it.
// Requires ownership.
func (s *ListService) DeleteList(ctx context.Context, ownerID, listID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.ownedList(ctx, ownerID, listID); err != nil {
		return err
	}

	if err := s.store.DeleteList(ctx, listID); err != nil {
		s.logger.Error("failed to delete list", "list_id", listID, "error", err)
		return fmt.Errorf("delete list: %w", err)
	}

	s.logger.Info("list deleted", "list_id", listID, "owner_id", ownerID)
	s.events.Emit(sse.NewListDeletedEvent(ownerID, listID))

	return nil
}

// ToggleMembership removes the listing from the list if present and adds
// it otherwise, returning whether it is now a member. Applying it twice
// restores the original state. Requires ownership.
func (s *ListService) ToggleMembership(ctx context.Context, ownerID, listID, listingID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if _, err := s.ownedList(ctx, ownerID, listID); err != nil {
		return false, err
	}

	member, err := s.flipMembership(ctx, listID, listingID)
	if err != nil {
		return false, err
	}

	s.logger.Info("membership toggled",
		"list_id", listID,
		"listing_id", listingID,
		"member", member,
	)
	s.events.Emit(sse.NewMembershipChangedEvent(ownerID, listID, listingID, member))

	return member, nil
}

// maxToggleAttempts bounds flipMembership when concurrent toggles keep
// changing the row between its two steps.
const maxToggleAttempts = 8

// flipMembership toggles the row with single-statement store calls: a
// delete that removes a row means the listing left; otherwise an insert
// that writes a row means it joined. When neither takes effect another
// toggle changed the row in between, so try again against the new state.
func (s *ListService) flipMembership(ctx context.Context, listID, listingID string) (bool, error) {
	for range maxToggleAttempts {
		removed, err := s.store.RemoveMembership(ctx, listID, listingID)
		if err != nil {
			return false, fmt.Errorf("remove membership: %w", err)
		}
		if removed {
			return false, nil
		}

		added, err := s.addMembership(ctx, listID, listingID)
		if err != nil {
			return false, err
		}
		if added {
			return true, nil
		}
	}
	return false, domainerrors.Conflict("membership is changing too quickly; try again")
}

// AddMembership puts a listing in a list. Adding twice is a no-op.
// Requires ownership.
func (s *ListService) AddMembership(ctx context.Context, ownerID, listID, listingID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.ownedList(ctx, ownerID, listID); err != nil {
		return err
	}

	added, err := s.addMembership(ctx, listID, listingID)
	if err != nil {
		return err
	}
	if added {
		s.events.Emit(sse.NewMembershipChangedEvent(ownerID, listID, listingID, true))
	}
	return nil
}

// RemoveMembership takes a listing out of a list. Removing an absent
// membership is a no-op. Requires ownership.
func (s *ListService) RemoveMembership(ctx context.Context, ownerID, listID, listingID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.ownedList(ctx, ownerID, listID); err != nil {
		return err
	}

	removed, err := s.store.RemoveMembership(ctx, listID, listingID)
	if err != nil {
		return fmt.Errorf("remove membership: %w", err)
	}
	if removed {
		s.events.Emit(sse.NewMembershipChangedEvent(ownerID, listID, listingID, false))
	}
	return nil
}

// SaveListing bookmarks a listing: it bumps the upvote count, ensures the
// "Saved" list and adds the listing to it if absent. The steps are not
// transactional; a failure after the increment leaves it applied.
func (s *ListService) SaveListing(ctx context.Context, userID, listingID string) (*SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	upvotes, err := s.store.IncrementUpvotes(ctx, listingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("listing not found")
		}
		s.logger.Error("failed to increment upvotes", "listing_id", listingID, "error", err)
		return nil, fmt.Errorf("increment upvotes: %w", err)
	}
	s.events.Emit(sse.NewListingUpvotedEvent(listingID, upvotes))

	list, err := s.EnsureDefaultList(ctx, userID)
	if err != nil {
		return nil, err
	}

	added, err := s.addMembership(ctx, list.ID, listingID)
	if err != nil {
		return nil, err
	}
	if added {
		s.events.Emit(sse.NewMembershipChangedEvent(userID, list.ID, listingID, true))
	}

	s.logger.Info("listing saved",
		"listing_id", listingID,
		"user_id", userID,
		"upvotes", upvotes,
		"added", added,
	)

	return &SaveResult{
		ListingID: listingID,
		ListID:    list.ID,
		Upvotes:   upvotes,
		Added:     added,
	}, nil
}

// SavedListings returns the listings in the owner's "Saved" list, each
// with the ids of every list of the owner that holds it. An owner who
// never saved anything gets an empty slice.
func (s *ListService) SavedListings(ctx context.Context, ownerID string) ([]domain.SavedListing, error) {
	saved := []domain.SavedListing{}

	list, err := s.store.GetListByName(ctx, ownerID, domain.DefaultListName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return saved, nil
		}
		return nil, fmt.Errorf("get default list: %w", err)
	}

	listings, err := s.store.ListListingsInList(ctx, list.ID)
	if err != nil {
		return nil, fmt.Errorf("list saved listings: %w", err)
	}

	memberships, err := s.store.OwnerMemberships(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load memberships: %w", err)
	}

	for _, l := range listings {
		listIDs := memberships[l.ID]
		if listIDs == nil {
			listIDs = []string{}
		}
		saved = append(saved, domain.SavedListing{Listing: *l, ListIDs: listIDs})
	}
	return saved, nil
}

// ownedList loads a list and checks that ownerID owns it.
func (s *ListService) ownedList(ctx context.Context, ownerID, listID string) (*domain.List, error) {
	list, err := s.store.GetList(ctx, listID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("list not found")
		}
		return nil, fmt.Errorf("get list: %w", err)
	}
	if list.OwnerID != ownerID {
		return nil, domainerrors.Forbidden("you do not own this list")
	}
	return list, nil
}

func (s *ListService) addMembership(ctx context.Context, listID, listingID string) (bool, error) {
	added, err := s.store.AddMembership(ctx, listID, listingID)
	if err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			return false, domainerrors.NotFound("listing not found").WithCause(err)
		}
		return false, fmt.Errorf("add membership: %w", err)
	}
	return added, nil
}
