package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/templatedir/templatedir-server/internal/domain"
	domainerrors "github.com/templatedir/templatedir-server/internal/errors"
	"github.com/templatedir/templatedir-server/internal/normalize"
	"github.com/templatedir/templatedir-server/internal/search"
	"github.com/templatedir/templatedir-server/internal/store"
)

// SearchResult pairs the index hits with the rated listings they name,
// in hit order.
type SearchResult struct {
	*search.Result
	Listings []domain.RatedListing `json:"repos"`
}

// SearchService runs full-text queries against the listing index.
type SearchService struct {
	index  *search.ListingIndex
	store  store.Store
	logger *slog.Logger
}

// NewSearchService creates a new search service. A nil index disables search.
func NewSearchService(index *search.ListingIndex, store store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{index: index, store: store, logger: discardLogger(logger)}
}

// Enabled reports whether an index is configured.
func (s *SearchService) Enabled() bool {
	return s.index != nil
}

// Search queries the index and loads the matching listings. Hits whose
// listing is gone from the store are skipped.
func (s *SearchService) Search(ctx context.Context, params search.Params) (*SearchResult, error) {
	if s.index == nil {
		return nil, domainerrors.Internal("search is disabled")
	}

	params.Query = normalize.Query(params.Query)
	if params.Type != "" && !domain.ListingType(params.Type).Valid() {
		return nil, domainerrors.Validationf("type must be one of: %s %s", domain.ListingTypeGitHub, domain.ListingTypeReplit)
	}

	res, err := s.index.Search(ctx, params)
	if err != nil {
		s.logger.Error("search failed", "query", params.Query, "error", err)
		return nil, fmt.Errorf("search: %w", err)
	}

	listings := make([]*domain.Listing, 0, len(res.Hits))
	for _, hit := range res.Hits {
		l, err := s.store.GetListing(ctx, hit.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.logger.Warn("search hit missing from store", "listing_id", hit.ID)
				continue
			}
			return nil, fmt.Errorf("get listing: %w", err)
		}
		listings = append(listings, l)
	}

	rated, err := rateListings(ctx, s.store, listings)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}

	return &SearchResult{Result: res, Listings: rated}, nil
}

// Reindex rebuilds the index from every stored listing. Run at startup
// when the index was recreated or is empty.
func (s *SearchService) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}

	listings, err := s.store.ListListings(ctx, store.ListingQuery{Order: store.OldestFirst})
	if err != nil {
		return 0, fmt.Errorf("list listings: %w", err)
	}

	if err := s.index.Rebuild(); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}
	if err := s.index.IndexListings(ctx, listings); err != nil {
		return 0, fmt.Errorf("index listings: %w", err)
	}

	s.logger.Info("search index rebuilt", "listings", len(listings))
	return len(listings), nil
}

// DocumentCount returns the number of indexed listings.
func (s *SearchService) DocumentCount() (uint64, error) {
	if s.index == nil {
		return 0, nil
	}
	return s.index.DocumentCount()
}
