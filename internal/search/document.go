// Package search provides full-text search over listings using Bleve.
// It complements the substring filter of the feed with stemming, fuzzy
// matching and facet counts by type, language and tag.
package search

import (
	"github.com/templatedir/templatedir-server/internal/domain"
	"github.com/templatedir/templatedir-server/internal/normalize"
)

// ListingDocument is the indexed projection of a listing.
type ListingDocument struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Owner       string   `json:"owner,omitempty"`
	Type        string   `json:"type"`
	Language    string   `json:"language,omitempty"`
	Tags        []string `json:"tags,omitempty"` // Tag slugs
	Upvotes     int      `json:"upvotes"`
	CreatedAt   int64    `json:"created_at"` // Unix milliseconds
}

// NewListingDocument projects a listing into its search document.
func NewListingDocument(l *domain.Listing) *ListingDocument {
	return &ListingDocument{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		Owner:       l.Owner,
		Type:        string(l.Type),
		Language:    l.Language,
		Tags:        normalize.TagSlugs(l.Tags),
		Upvotes:     l.Upvotes,
		CreatedAt:   l.CreatedAt.UnixMilli(),
	}
}

// ToMap converts the document to the field map Bleve indexes, so field
// names always match the mapping.
func (d *ListingDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"name":       d.Name,
		"type":       d.Type,
		"upvotes":    float64(d.Upvotes),
		"created_at": float64(d.CreatedAt),
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Owner != "" {
		m["owner"] = d.Owner
	}
	if d.Language != "" {
		m["language"] = d.Language
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	return m
}
