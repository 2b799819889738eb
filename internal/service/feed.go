package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/templatedir/templatedir-server/internal/domain"
	"github.com/templatedir/templatedir-server/internal/normalize"
	"github.com/templatedir/templatedir-server/internal/store"
)

// FeedLimit caps each feed set.
const FeedLimit = 12

// Feed is the landing page listing sets.
type Feed struct {
	Query    string                `json:"query,omitempty"`
	Featured []domain.RatedListing `json:"featured"` // Oldest first
	New      []domain.RatedListing `json:"new"`      // Newest first
}

// FeedService fetches the featured and new listing sets.
type FeedService struct {
	store  store.Store
	logger *slog.Logger
}

// NewFeedService creates a new feed service.
func NewFeedService(store store.Store, logger *slog.Logger) *FeedService {
	return &FeedService{store: store, logger: discardLogger(logger)}
}

// Fetch loads both sets concurrently, each filtered by query and rated.
// An empty query applies no filter; no matches is not an error. Either
// set failing fails the fetch.
func (s *FeedService) Fetch(ctx context.Context, query string) (*Feed, error) {
	query = normalize.Query(query)

	feed := &Feed{Query: query}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rated, err := s.fetchSet(gctx, query, store.OldestFirst)
		if err != nil {
			return fmt.Errorf("featured: %w", err)
		}
		feed.Featured = rated
		return nil
	})
	g.Go(func() error {
		rated, err := s.fetchSet(gctx, query, store.NewestFirst)
		if err != nil {
			return fmt.Errorf("new: %w", err)
		}
		feed.New = rated
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("failed to fetch feed", "query", query, "error", err)
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	return feed, nil
}

func (s *FeedService) fetchSet(ctx context.Context, query string, order store.SortOrder) ([]domain.RatedListing, error) {
	listings, err := s.store.ListListings(ctx, store.ListingQuery{
		Search: query,
		Order:  order,
		Limit:  FeedLimit,
	})
	if err != nil {
		return nil, err
	}
	return rateListings(ctx, s.store, listings)
}
