package domain

import (
	"time"

	"github.com/templatedir/templatedir-server/internal/rating"
)

// ListingType identifies where a template lives.
type ListingType string

const (
	// ListingTypeGitHub is a GitHub repository.
	ListingTypeGitHub ListingType = "GitHub"
	// ListingTypeReplit is a Replit template.
	ListingTypeReplit ListingType = "Replit"
)

// Valid reports whether t is a known listing type.
func (t ListingType) Valid() bool {
	return t == ListingTypeGitHub || t == ListingTypeReplit
}

// DefaultIcon is used when a submission does not name an icon.
const DefaultIcon = "/icons/default.png"

// Listing is a submitted software template.
// Upvotes only ever grow; the save action is the only thing that bumps it.
type Listing struct {
	CreatedAt   time.Time   `json:"created_at"`
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	URL         string      `json:"url"`
	Type        ListingType `json:"type"`
	Owner       string      `json:"owner"`    // Free-text author, not a user reference
	Language    string      `json:"language"` // Primary programming language
	Icon        string      `json:"icon"`
	Tags        []string    `json:"tags"`
	Upvotes     int         `json:"upvotes"`
	SubmitterID *string     `json:"user_id"` // Nil for anonymous submissions
}

// RatedListing is a listing annotated with the mean of its review ratings.
type RatedListing struct {
	Listing
	AverageRating rating.Average `json:"averageRating"`
}

// Rate annotates l with the aggregate of ratings.
func Rate(l Listing, ratings []int) RatedListing {
	return RatedListing{Listing: l, AverageRating: rating.Aggregate(ratings)}
}

// SavedListing is a listing from the owner's default list together with the
// ids of every list of that owner that holds it.
type SavedListing struct {
	Listing
	ListIDs []string `json:"list_ids"`
}
