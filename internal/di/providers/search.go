package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/templatedir/templatedir-server/internal/config"
	"github.com/templatedir/templatedir-server/internal/logger"
	"github.com/templatedir/templatedir-server/internal/search"
	"github.com/templatedir/templatedir-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
// ListingIndex is nil when search is disabled.
type SearchIndexHandle struct {
	*search.ListingIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.ListingIndex == nil {
		return nil
	}
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Search.Enabled {
		log.Info("Search index disabled by configuration")
		return &SearchIndexHandle{}, nil
	}

	index, err := search.NewListingIndex(search.Options{
		Path:   cfg.Search.IndexPath,
		Logger: log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "path", cfg.Search.IndexPath, "documents", docCount)

	return &SearchIndexHandle{ListingIndex: index}, nil
}

// ProvideSearchService provides the search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewSearchService(indexHandle.ListingIndex, storeHandle.Store, log.Logger)

	// Keep the index in step with listing writes.
	if indexHandle.ListingIndex != nil {
		storeHandle.SetSearchIndexer(indexHandle.ListingIndex)
	}

	return svc, nil
}

// TriggerSearchReindexIfNeeded rebuilds an empty index from the store.
// Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !searchService.Enabled() {
		return
	}
	if docCount, _ := searchService.DocumentCount(); docCount > 0 {
		return
	}

	go func() {
		n, err := searchService.Reindex(context.Background())
		if err != nil {
			log.Error("Initial search reindex failed", "error", err)
			return
		}
		if n > 0 {
			log.Info("Initial search reindex completed", "documents", n)
		}
	}()
}
