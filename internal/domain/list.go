package domain

import "time"

// DefaultListName is the name of the list a save action adds listings to.
const DefaultListName = "Saved"

// List is a user-owned named list of listings. Lists double as personal tags:
// a listing can belong to any number of its owner's lists.
type List struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	OwnerID   string    `json:"user_id"`
	Name      string    `json:"name"`
}

// IsDefault reports whether l is the owner's "Saved" list.
func (l *List) IsDefault() bool {
	return l.Name == DefaultListName
}

// Membership links a listing to a list. At most one exists per pair.
type Membership struct {
	CreatedAt time.Time `json:"created_at"`
	ListID    string    `json:"list_id"`
	ListingID string    `json:"repo_id"`
}
