package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/templatedir/templatedir-server/internal/service"
)

func (s *Server) registerProfileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getMyProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/me",
		Summary:     "My profile",
		Description: "Returns the current user with their submitted listings and lists",
		Tags:        []string{"Profile"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetMyProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMyListings",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/listings",
		Summary:     "My listings",
		Description: "Returns the listings the current user submitted, newest first",
		Tags:        []string{"Profile"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetMyListings)
}

// ProfileOutput wraps the profile for Huma.
type ProfileOutput struct {
	Body *service.Profile
}

func (s *Server) handleGetMyProfile(ctx context.Context, _ *struct{}) (*ProfileOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.services.Profile.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: profile}, nil
}

func (s *Server) handleGetMyListings(ctx context.Context, _ *struct{}) (*ListingsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	listings, err := s.services.Listing.ListBySubmitter(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ListingsOutput{Body: ListingsResponse{Listings: listings}}, nil
}
