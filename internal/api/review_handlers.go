package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/templatedir/templatedir-server/internal/domain"
)

func (s *Server) registerReviewRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings/{id}/reviews",
		Summary:     "List reviews",
		Description: "Returns a listing's reviews, newest first",
		Tags:        []string{"Reviews"},
	}, s.handleListReviews)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createReview",
		Method:        http.MethodPost,
		Path:          "/api/v1/listings/{id}/reviews",
		Summary:       "Review listing",
		Description:   "Adds a star rating and comment to a listing",
		Tags:          []string{"Reviews"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateReview)
}

// === DTOs ===

// ReviewsResponse contains a listing's reviews.
type ReviewsResponse struct {
	Reviews []*domain.Review `json:"reviews" doc:"Reviews, newest first"`
}

// ReviewsOutput wraps the reviews response for Huma.
type ReviewsOutput struct {
	Body ReviewsResponse
}

// CreateReviewRequest is the request body for a review.
type CreateReviewRequest struct {
	Rating  int    `json:"rating" doc:"Stars from 1 to 5; 0 means no rating was selected"`
	Content string `json:"content" doc:"Review text"`
}

// CreateReviewInput wraps the review request for Huma.
type CreateReviewInput struct {
	ID   string `path:"id" doc:"Listing ID"`
	Body CreateReviewRequest
}

// ReviewOutput wraps one review for Huma.
type ReviewOutput struct {
	Body *domain.Review
}

// === Handlers ===

func (s *Server) handleListReviews(ctx context.Context, input *ListingIDInput) (*ReviewsOutput, error) {
	reviews, err := s.services.Review.ListForListing(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ReviewsOutput{Body: ReviewsResponse{Reviews: reviews}}, nil
}

func (s *Server) handleCreateReview(ctx context.Context, input *CreateReviewInput) (*ReviewOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	review, err := s.services.Review.Create(ctx, userID, input.ID, input.Body.Rating, input.Body.Content)
	if err != nil {
		return nil, err
	}
	return &ReviewOutput{Body: review}, nil
}
