package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/templatedir/templatedir-server/internal/search"
	"github.com/templatedir/templatedir-server/internal/service"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchListings",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search listings",
		Description: "Full-text search over listing names, descriptions, owners and tags, with facets",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// SearchInput contains search parameters.
type SearchInput struct {
	Query    string   `query:"q" maxLength:"200" doc:"Search text"`
	Type     string   `query:"type" doc:"Restrict to GitHub or Replit"`
	Language string   `query:"language" doc:"Restrict to one language"`
	Tags     []string `query:"tags" doc:"Listing must carry every tag"`
	Sort     string   `query:"sort" enum:"relevance,newest,upvotes,name" default:"relevance" doc:"Sort order"`
	Limit    int      `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Page size"`
	Offset   int      `query:"offset" minimum:"0" default:"0" doc:"Hits to skip"`
	Facets   bool     `query:"facets" default:"true" doc:"Include facet counts"`
}

// SearchOutput wraps the search result for Huma.
type SearchOutput struct {
	Body *service.SearchResult
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if s.services.Search == nil || !s.services.Search.Enabled() {
		return nil, huma.Error503ServiceUnavailable("Search is disabled")
	}

	params := search.DefaultParams()
	params.Query = input.Query
	params.Type = input.Type
	params.Language = input.Language
	params.Tags = input.Tags
	params.SortBy = input.Sort
	params.Limit = input.Limit
	params.Offset = input.Offset
	params.IncludeFacets = input.Facets

	result, err := s.services.Search.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: result}, nil
}
