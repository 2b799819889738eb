// Package di provides dependency injection configuration for the TemplateDir server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/templatedir/templatedir-server/internal/auth"
	"github.com/templatedir/templatedir-server/internal/config"
	"github.com/templatedir/templatedir-server/internal/di/providers"
	"github.com/templatedir/templatedir-server/internal/logger"
	"github.com/templatedir/templatedir-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideListingService)
	do.Provide(injector, providers.ProvideFeedService)
	do.Provide(injector, providers.ProvideReviewService)
	do.Provide(injector, providers.ProvideListService)
	do.Provide(injector, providers.ProvideProfileService)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	if _, err := do.Invoke[providers.AuthKey](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.ListingService](injector)
	_ = do.MustInvoke[*service.FeedService](injector)
	_ = do.MustInvoke[*service.ReviewService](injector)
	_ = do.MustInvoke[*service.ListService](injector)
	_ = do.MustInvoke[*service.ProfileService](injector)

	// Workers
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
