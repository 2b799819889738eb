package domain

import "time"

// Review is a user's rating and comment on a listing.
// A user may review the same listing more than once.
type Review struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	ListingID string    `json:"repo_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content"`
}
