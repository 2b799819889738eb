package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/templatedir/templatedir-server/internal/domain"
)

// ListingIndex wraps a Bleve index of listings. It implements
// store.SearchIndexer so listing writes keep it current.
//
// All methods are safe for concurrent use. The mutex guards the index
// handle across Rebuild.
type ListingIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	Path   string       // Directory for index storage
	Logger *slog.Logger // Uses discard if nil
}

// mappingVersion is bumped whenever buildIndexMapping changes; a mismatch
// on startup rebuilds the index.
const mappingVersion = "1"

// NewListingIndex opens the index at opts.Path, creating it when absent.
// An index that fails to open or carries an older mapping version is
// removed and recreated empty; callers reindex from the store.
func NewListingIndex(opts Options) (*ListingIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := os.MkdirAll(opts.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create search directory: %w", err)
	}

	indexPath := filepath.Join(opts.Path, "listings.bleve")
	versionPath := filepath.Join(opts.Path, "listings.version")

	var index bleve.Index
	needsRebuild := false

	_, statErr := os.Stat(indexPath)
	indexExists := statErr == nil

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil:
			logger.Info("search index has no version file, will rebuild", "new_version", mappingVersion)
			needsRebuild = true
		case string(existingVersion) != mappingVersion:
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if indexExists && !needsRebuild {
		var err error
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate", "path", indexPath, "error", err)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
		index = nil
	}

	if index == nil {
		var err error
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &ListingIndex{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// Close closes the index and releases resources.
func (s *ListingIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexListing adds or replaces one listing.
func (s *ListingIndex) IndexListing(ctx context.Context, listing *domain.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(listing.ID, NewListingDocument(listing).ToMap())
}

// IndexListings indexes listings in batches of 500.
func (s *ListingIndex) IndexListings(ctx context.Context, listings []*domain.Listing) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(listings); i += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(i+batchSize, len(listings))

		batch := s.index.NewBatch()
		for _, l := range listings[i:end] {
			if err := batch.Index(l.ID, NewListingDocument(l).ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", l.ID, err)
			}
		}

		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DeleteListing removes a listing from the index.
func (s *ListingIndex) DeleteListing(ctx context.Context, listingID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(listingID)
}

// DocumentCount returns the number of indexed listings.
func (s *ListingIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index and recreates it empty. It blocks every other
// operation until done.
func (s *ListingIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)

	return nil
}
