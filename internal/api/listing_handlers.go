package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/templatedir/templatedir-server/internal/domain"
	"github.com/templatedir/templatedir-server/internal/service"
)

func (s *Server) registerFeedRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getFeed",
		Method:      http.MethodGet,
		Path:        "/api/v1/feed",
		Summary:     "Landing feed",
		Description: "Returns the featured (oldest first) and new (newest first) listing sets, each filtered by an optional search term",
		Tags:        []string{"Listings"},
	}, s.handleGetFeed)
}

func (s *Server) registerListingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listListings",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings",
		Summary:     "List listings",
		Description: "Returns rated listings newest first, optionally restricted to one type",
		Tags:        []string{"Listings"},
	}, s.handleListListings)

	huma.Register(s.api, huma.Operation{
		OperationID:   "submitListing",
		Method:        http.MethodPost,
		Path:          "/api/v1/listings",
		Summary:       "Submit listing",
		Description:   "Submits a template. Signed-in submissions are attributed to the user.",
		Tags:          []string{"Listings"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   s.rateLimited(s.submitRateLimiter),
	}, s.handleSubmitListing)

	huma.Register(s.api, huma.Operation{
		OperationID: "getListing",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings/{id}",
		Summary:     "Get listing",
		Description: "Returns one listing with its average rating",
		Tags:        []string{"Listings"},
	}, s.handleGetListing)

	huma.Register(s.api, huma.Operation{
		OperationID: "saveListing",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings/{id}/save",
		Summary:     "Save listing",
		Description: "Upvotes the listing and adds it to the caller's Saved list",
		Tags:        []string{"Listings"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSaveListing)
}

// === DTOs ===

// FeedInput contains parameters for the landing feed.
type FeedInput struct {
	Search string `query:"search" maxLength:"200" doc:"Case-insensitive substring of name, description or owner"`
}

// FeedOutput wraps the feed for Huma.
type FeedOutput struct {
	Body *service.Feed
}

// ListListingsInput contains parameters for listing by type.
type ListListingsInput struct {
	Type string `query:"type" doc:"GitHub, Replit, or all (default)"`
}

// ListingsResponse contains a list of rated listings.
type ListingsResponse struct {
	Listings []domain.RatedListing `json:"repos" doc:"Rated listings"`
}

// ListingsOutput wraps the listings response for Huma.
type ListingsOutput struct {
	Body ListingsResponse
}

// ListingIDInput addresses one listing.
type ListingIDInput struct {
	ID string `path:"id" doc:"Listing ID"`
}

// ListingOutput wraps one rated listing for Huma.
type ListingOutput struct {
	Body *domain.RatedListing
}

// SubmitListingRequest is the request body for a versioned submission.
// Tags arrive as an array; the legacy endpoint also accepts a comma string.
type SubmitListingRequest struct {
	Name        string   `json:"name" doc:"Template name"`
	Description string   `json:"description" doc:"What the template provides"`
	Type        string   `json:"type" enum:"GitHub,Replit" doc:"Where the template lives"`
	URL         string   `json:"url" doc:"Template URL"`
	Tags        []string `json:"tags,omitempty" doc:"Free-form tags"`
	Language    string   `json:"language" doc:"Primary programming language"`
	Icon        string   `json:"icon,omitempty" doc:"Icon URL; a default is used when empty"`
	Owner       string   `json:"owner" doc:"Template author"`
}

// SubmitListingInput wraps the submission for Huma.
type SubmitListingInput struct {
	Body SubmitListingRequest
}

// SubmittedListingOutput wraps the stored listing for Huma.
type SubmittedListingOutput struct {
	Body *domain.Listing
}

// SaveOutput wraps the save result for Huma.
type SaveOutput struct {
	Body *service.SaveResult
}

// === Handlers ===

func (s *Server) handleGetFeed(ctx context.Context, input *FeedInput) (*FeedOutput, error) {
	feed, err := s.services.Feed.Fetch(ctx, input.Search)
	if err != nil {
		return nil, err
	}
	return &FeedOutput{Body: feed}, nil
}

func (s *Server) handleListListings(ctx context.Context, input *ListListingsInput) (*ListingsOutput, error) {
	listings, err := s.services.Listing.ListByType(ctx, input.Type)
	if err != nil {
		return nil, err
	}
	return &ListingsOutput{Body: ListingsResponse{Listings: listings}}, nil
}

func (s *Server) handleSubmitListing(ctx context.Context, input *SubmitListingInput) (*SubmittedListingOutput, error) {
	req := service.SubmitRequest{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		Type:        input.Body.Type,
		URL:         input.Body.URL,
		Language:    input.Body.Language,
		Icon:        input.Body.Icon,
		Owner:       input.Body.Owner,
	}
	if input.Body.Tags != nil {
		raw, err := json.Marshal(input.Body.Tags)
		if err != nil {
			return nil, fmt.Errorf("encode tags: %w", err)
		}
		req.Tags = raw
	}

	listing, err := s.services.Listing.Submit(ctx, OptionalUserID(ctx), req)
	if err != nil {
		return nil, err
	}
	return &SubmittedListingOutput{Body: listing}, nil
}

func (s *Server) handleGetListing(ctx context.Context, input *ListingIDInput) (*ListingOutput, error) {
	listing, err := s.services.Listing.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ListingOutput{Body: listing}, nil
}

func (s *Server) handleSaveListing(ctx context.Context, input *ListingIDInput) (*SaveOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.List.SaveListing(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &SaveOutput{Body: result}, nil
}
