package api

import "github.com/templatedir/templatedir-server/internal/service"

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth    *service.AuthService
	Listing *service.ListingService
	Feed    *service.FeedService
	Review  *service.ReviewService
	List    *service.ListService
	Profile *service.ProfileService
	Search  *service.SearchService // Search may be disabled; check Enabled
}
