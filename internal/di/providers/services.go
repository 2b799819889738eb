package providers

import (
	"github.com/samber/do/v2"

	"github.com/templatedir/templatedir-server/internal/auth"
	"github.com/templatedir/templatedir-server/internal/logger"
	"github.com/templatedir/templatedir-server/internal/service"
	"github.com/templatedir/templatedir-server/internal/validation"
)

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, validator, sseHandle.Manager, log.Logger), nil
}

// ProvideListingService provides the listing submission service.
func ProvideListingService(i do.Injector) (*service.ListingService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewListingService(storeHandle.Store, validator, sseHandle.Manager, log.Logger), nil
}

// ProvideFeedService provides the landing feed service.
func ProvideFeedService(i do.Injector) (*service.FeedService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewFeedService(storeHandle.Store, log.Logger), nil
}

// ProvideReviewService provides the review service.
func ProvideReviewService(i do.Injector) (*service.ReviewService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewReviewService(storeHandle.Store, sseHandle.Manager, log.Logger), nil
}

// ProvideListService provides the list membership service.
func ProvideListService(i do.Injector) (*service.ListService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewListService(storeHandle.Store, sseHandle.Manager, log.Logger), nil
}

// ProvideProfileService provides the profile service.
func ProvideProfileService(i do.Injector) (*service.ProfileService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	listingService := do.MustInvoke[*service.ListingService](i)
	listService := do.MustInvoke[*service.ListService](i)

	return service.NewProfileService(storeHandle.Store, listingService, listService), nil
}
