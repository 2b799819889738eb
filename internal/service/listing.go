package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/templatedir/templatedir-server/internal/domain"
	domainerrors "github.com/templatedir/templatedir-server/internal/errors"
	"github.com/templatedir/templatedir-server/internal/id"
	"github.com/templatedir/templatedir-server/internal/normalize"
	"github.com/templatedir/templatedir-server/internal/sse"
	"github.com/templatedir/templatedir-server/internal/store"
	"github.com/templatedir/templatedir-server/internal/validation"
)

// ListingService handles submission and lookup of listings.
type ListingService struct {
	store     store.Store
	validator *validation.Validator
	events    EventEmitter
	logger    *slog.Logger
}

// NewListingService creates a new listing service.
func NewListingService(store store.Store, validator *validation.Validator, events EventEmitter, logger *slog.Logger) *ListingService {
	return &ListingService{
		store:     store,
		validator: validator,
		events:    emitterOrNoop(events),
		logger:    discardLogger(logger),
	}
}

// SubmitRequest is a listing submission as posted by the web form.
// Tags may be a comma-separated string or an array of strings.
type SubmitRequest struct {
	Name        string          `json:"name" validate:"notblank,max=200"`
	Description string          `json:"description" validate:"notblank,max=2000"`
	Type        string          `json:"type" validate:"required,listing_type"`
	URL         string          `json:"url" validate:"notblank,url,max=2048"`
	Tags        json.RawMessage `json:"tags,omitempty" validate:"-"`
	Language    string          `json:"language" validate:"notblank,max=64"`
	Icon        string          `json:"icon,omitempty" validate:"max=2048"`
	Owner       string          `json:"owner" validate:"notblank,max=200"`
}

// Submit validates and stores a new listing. submitterID is empty for
// anonymous submissions. A validation failure never reaches the store.
func (s *ListingService) Submit(ctx context.Context, submitterID string, req SubmitRequest) (*domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req.Name = normalize.Text(req.Name)
	req.Description = normalize.Text(req.Description)
	req.Type = strings.TrimSpace(req.Type)
	req.URL = normalize.Text(req.URL)
	req.Language = normalize.Text(req.Language)
	req.Icon = normalize.Text(req.Icon)
	req.Owner = normalize.Text(req.Owner)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	tags, err := normalize.Tags(req.Tags)
	if err != nil {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"tags": err.Error()})
	}

	listingID, err := id.Generate(id.PrefixListing)
	if err != nil {
		return nil, fmt.Errorf("generate listing ID: %w", err)
	}

	icon := req.Icon
	if icon == "" {
		icon = domain.DefaultIcon
	}

	listing := &domain.Listing{
		ID:          listingID,
		Name:        req.Name,
		Description: req.Description,
		URL:         req.URL,
		Type:        domain.ListingType(req.Type),
		Owner:       req.Owner,
		Language:    req.Language,
		Icon:        icon,
		Tags:        tags,
		CreatedAt:   time.Now(),
	}
	if submitterID != "" {
		listing.SubmitterID = &submitterID
	}

	if err := s.store.CreateListing(ctx, listing); err != nil {
		s.logger.Error("failed to store listing",
			"name", listing.Name,
			"submitter_id", submitterID,
			"error", err,
		)
		if errors.Is(err, store.ErrInvalidInput) || errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Wrap(err, domainerrors.CodeValidation, "listing rejected")
		}
		return nil, fmt.Errorf("create listing: %w", err)
	}

	s.logger.Info("listing submitted",
		"listing_id", listing.ID,
		"type", listing.Type,
		"submitter_id", submitterID,
	)

	s.events.Emit(sse.NewListingCreatedEvent(listing))

	return listing, nil
}

// Get returns one listing with its derived rating.
func (s *ListingService) Get(ctx context.Context, listingID string) (*domain.RatedListing, error) {
	listing, err := s.store.GetListing(ctx, listingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("listing not found")
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}

	rated, err := rateListings(ctx, s.store, []*domain.Listing{listing})
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	return &rated[0], nil
}

// ListAll returns every listing, oldest first, without ratings.
func (s *ListingService) ListAll(ctx context.Context) ([]*domain.Listing, error) {
	listings, err := s.store.ListListings(ctx, store.ListingQuery{Order: store.OldestFirst})
	if err != nil {
		s.logger.Error("failed to list listings", "error", err)
		return nil, fmt.Errorf("list listings: %w", err)
	}
	if listings == nil {
		listings = []*domain.Listing{}
	}
	return listings, nil
}

// ListByType returns rated listings of one type, newest first. An empty
// type or "all" returns every listing.
func (s *ListingService) ListByType(ctx context.Context, listingType string) ([]domain.RatedListing, error) {
	q := store.ListingQuery{Order: store.NewestFirst}

	switch t := domain.ListingType(strings.TrimSpace(listingType)); {
	case t == "" || strings.EqualFold(string(t), "all"):
	case t.Valid():
		q.Type = t
	default:
		return nil, domainerrors.Validationf("type must be one of: all %s %s", domain.ListingTypeGitHub, domain.ListingTypeReplit)
	}

	return s.listRated(ctx, q)
}

// ListBySubmitter returns the rated listings a user submitted, newest first.
func (s *ListingService) ListBySubmitter(ctx context.Context, userID string) ([]domain.RatedListing, error) {
	return s.listRated(ctx, store.ListingQuery{SubmitterID: userID, Order: store.NewestFirst})
}

func (s *ListingService) listRated(ctx context.Context, q store.ListingQuery) ([]domain.RatedListing, error) {
	listings, err := s.store.ListListings(ctx, q)
	if err != nil {
		s.logger.Error("failed to list listings", "error", err)
		return nil, fmt.Errorf("list listings: %w", err)
	}

	rated, err := rateListings(ctx, s.store, listings)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	return rated, nil
}
