package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/templatedir/templatedir-server/internal/domain"
)

func (s *Server) registerListRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listMyLists",
		Method:      http.MethodGet,
		Path:        "/api/v1/lists",
		Summary:     "List my lists",
		Description: "Returns all lists owned by the current user, ordered by name",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMyLists)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createList",
		Method:        http.MethodPost,
		Path:          "/api/v1/lists",
		Summary:       "Create list",
		Description:   "Creates a named list. Creating \"Saved\" returns the existing default list.",
		Tags:          []string{"Lists"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateList)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSavedListings",
		Method:      http.MethodGet,
		Path:        "/api/v1/lists/saved",
		Summary:     "Saved listings",
		Description: "Returns the listings in the Saved list, each with the ids of every list holding it",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetSavedListings)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteList",
		Method:        http.MethodDelete,
		Path:          "/api/v1/lists/{id}",
		Summary:       "Delete list",
		Description:   "Deletes a list and its memberships (owner only)",
		Tags:          []string{"Lists"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteList)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleMembership",
		Method:      http.MethodPost,
		Path:        "/api/v1/lists/{id}/listings/{listingID}/toggle",
		Summary:     "Toggle membership",
		Description: "Adds the listing to the list if absent and removes it otherwise (owner only)",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleToggleMembership)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addMembership",
		Method:        http.MethodPut,
		Path:          "/api/v1/lists/{id}/listings/{listingID}",
		Summary:       "Add to list",
		Description:   "Adds the listing to the list; adding twice is a no-op (owner only)",
		Tags:          []string{"Lists"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleAddMembership)

	huma.Register(s.api, huma.Operation{
		OperationID:   "removeMembership",
		Method:        http.MethodDelete,
		Path:          "/api/v1/lists/{id}/listings/{listingID}",
		Summary:       "Remove from list",
		Description:   "Removes the listing from the list; removing an absent member is a no-op (owner only)",
		Tags:          []string{"Lists"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveMembership)
}

// === DTOs ===

// ListsResponse contains the caller's lists.
type ListsResponse struct {
	Lists []*domain.List `json:"lists" doc:"Lists ordered by name"`
}

// ListsOutput wraps the lists response for Huma.
type ListsOutput struct {
	Body ListsResponse
}

// CreateListRequest is the request body for creating a list.
type CreateListRequest struct {
	Name string `json:"name" doc:"List name"`
}

// CreateListInput wraps the create list request for Huma.
type CreateListInput struct {
	Body CreateListRequest
}

// ListOutput wraps one list for Huma.
type ListOutput struct {
	Body *domain.List
}

// ListIDInput addresses one list.
type ListIDInput struct {
	ID string `path:"id" doc:"List ID"`
}

// MembershipInput addresses one listing within one list.
type MembershipInput struct {
	ID        string `path:"id" doc:"List ID"`
	ListingID string `path:"listingID" doc:"Listing ID"`
}

// ToggleResponse reports membership after a toggle.
type ToggleResponse struct {
	ListID    string `json:"list_id" doc:"List ID"`
	ListingID string `json:"repo_id" doc:"Listing ID"`
	Member    bool   `json:"member" doc:"Whether the listing is now in the list"`
}

// ToggleOutput wraps the toggle response for Huma.
type ToggleOutput struct {
	Body ToggleResponse
}

// SavedListingsResponse contains the caller's saved listings.
type SavedListingsResponse struct {
	Listings []domain.SavedListing `json:"repos" doc:"Saved listings with their list ids"`
}

// SavedListingsOutput wraps the saved listings for Huma.
type SavedListingsOutput struct {
	Body SavedListingsResponse
}

// === Handlers ===

func (s *Server) handleListMyLists(ctx context.Context, _ *struct{}) (*ListsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	lists, err := s.services.List.ListLists(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ListsOutput{Body: ListsResponse{Lists: lists}}, nil
}

func (s *Server) handleCreateList(ctx context.Context, input *CreateListInput) (*ListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.services.List.CreateList(ctx, userID, input.Body.Name)
	if err != nil {
		return nil, err
	}
	return &ListOutput{Body: list}, nil
}

func (s *Server) handleGetSavedListings(ctx context.Context, _ *struct{}) (*SavedListingsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	saved, err := s.services.List.SavedListings(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &SavedListingsOutput{Body: SavedListingsResponse{Listings: saved}}, nil
}

func (s *Server) handleDeleteList(ctx context.Context, input *ListIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.List.DeleteList(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleToggleMembership(ctx context.Context, input *MembershipInput) (*ToggleOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	member, err := s.services.List.ToggleMembership(ctx, userID, input.ID, input.ListingID)
	if err != nil {
		return nil, err
	}
	return &ToggleOutput{Body: ToggleResponse{
		ListID:    input.ID,
		ListingID: input.ListingID,
		Member:    member,
	}}, nil
}

func (s *Server) handleAddMembership(ctx context.Context, input *MembershipInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.List.AddMembership(ctx, userID, input.ID, input.ListingID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleRemoveMembership(ctx context.Context, input *MembershipInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.List.RemoveMembership(ctx, userID, input.ID, input.ListingID); err != nil {
		return nil, err
	}
	return nil, nil
}
