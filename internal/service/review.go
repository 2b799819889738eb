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
	"github.com/templatedir/templatedir-server/internal/rating"
	"github.com/templatedir/templatedir-server/internal/sse"
	"github.com/templatedir/templatedir-server/internal/store"
)

// ReviewService posts and lists listing reviews.
type ReviewService struct {
	store  store.Store
	events EventEmitter
	logger *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(store store.Store, events EventEmitter, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		store:  store,
		events: emitterOrNoop(events),
		logger: discardLogger(logger),
	}
}

// Create posts a review. A rating of 0 means none was picked and is
// rejected like any other value outside 1..5. A user may review the same
// listing more than once.
func (s *ReviewService) Create(ctx context.Context, userID, listingID string, stars int, content string) (*domain.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content = normalize.Text(content)
	if !rating.InRange(stars) {
		return nil, domainerrors.ValidationWithDetails("please select a rating",
			map[string]string{"rating": fmt.Sprintf("must be between %d and %d", rating.Min, rating.Max)})
	}
	if content == "" {
		return nil, domainerrors.ValidationWithDetails("please write a review",
			map[string]string{"content": "is required"})
	}

	if _, err := s.store.GetListing(ctx, listingID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("listing not found")
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}

	reviewID, err := id.Generate(id.PrefixReview)
	if err != nil {
		return nil, fmt.Errorf("generate review ID: %w", err)
	}

	review := &domain.Review{
		ID:        reviewID,
		ListingID: listingID,
		UserID:    userID,
		Rating:    stars,
		Content:   content,
		CreatedAt: time.Now(),
	}

	if err := s.store.CreateReview(ctx, review); err != nil {
		s.logger.Error("failed to store review",
			"listing_id", listingID,
			"user_id", userID,
			"error", err,
		)
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.logger.Info("review created",
		"review_id", reviewID,
		"listing_id", listingID,
		"user_id", userID,
		"rating", stars,
	)

	s.events.Emit(sse.NewReviewCreatedEvent(review))

	return review, nil
}

// ListForListing returns a listing's reviews, newest first.
func (s *ReviewService) ListForListing(ctx context.Context, listingID string) ([]*domain.Review, error) {
	if _, err := s.store.GetListing(ctx, listingID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("listing not found")
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}

	reviews, err := s.store.ListReviews(ctx, listingID)
	if err != nil {
		s.logger.Error("failed to list reviews", "listing_id", listingID, "error", err)
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	if reviews == nil {
		reviews = []*domain.Review{}
	}
	return reviews, nil
}
