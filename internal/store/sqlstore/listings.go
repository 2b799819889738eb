package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/templatedir/templatedir-server/internal/domain"
	"github.com/templatedir/templatedir-server/internal/store"
)

// listingColumns is the ordered list of columns selected in listing queries.
// Must match the scan order in scanListing.
const listingColumns = `r.id, r.name, r.description, r.url, r.type, r.owner, r.language,
	r.icon, r.tags, r.upvotes, r.user_id, r.created_at`

// scanListing scans a sql.Row (or sql.Rows via its Scan method) into a domain.Listing.
func scanListing(scanner interface{ Scan(dest ...any) error }) (*domain.Listing, error) {
	var l domain.Listing

	var (
		listingType string
		tags        string
		userID      sql.NullString
		createdAt   string
	)

	err := scanner.Scan(
		&l.ID,
		&l.Name,
		&l.Description,
		&l.URL,
		&listingType,
		&l.Owner,
		&l.Language,
		&l.Icon,
		&tags,
		&l.Upvotes,
		&userID,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	l.Type = domain.ListingType(listingType)
	if userID.Valid {
		l.SubmitterID = &userID.String
	}

	l.Tags, err = decodeTags(tags)
	if err != nil {
		return nil, fmt.Errorf("decode tags of %s: %w", l.ID, err)
	}

	l.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &l, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeTags(raw string) ([]string, error) {
	tags := []string{}
	if raw == "" || raw == "null" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

// escapeLike escapes LIKE metacharacters so the search text matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// CreateListing inserts a listing.
// Returns store.ErrAlreadyExists on duplicate ID and store.ErrInvalidInput
// when the row violates a column constraint.
func (s *Store) CreateListing(ctx context.Context, listing *domain.Listing) error {
	tags, err := encodeTags(listing.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	_, err = s.exec(ctx, `
		INSERT INTO repos (
			id, name, description, url, type, owner, language, icon, tags, upvotes, user_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		listing.ID,
		listing.Name,
		listing.Description,
		listing.URL,
		string(listing.Type),
		listing.Owner,
		listing.Language,
		listing.Icon,
		tags,
		listing.Upvotes,
		nullableString(listing.SubmitterID),
		formatTime(listing.CreatedAt),
	)
	if err != nil {
		return translate(err)
	}

	if err := s.searchIndexer.IndexListing(ctx, listing); err != nil {
		s.logger.Warn("failed to index listing", "listing_id", listing.ID, "error", err)
	}
	return nil
}

// GetListing retrieves a listing by ID.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	row := s.queryRow(ctx, `SELECT `+listingColumns+` FROM repos r WHERE r.id = ?`, id)

	l, err := scanListing(row)
	if err != nil {
		return nil, translate(err)
	}
	return l, nil
}

// ListListings returns the listings matching q.
// Ties on created_at are broken by id so the order is total.
func (s *Store) ListListings(ctx context.Context, q store.ListingQuery) ([]*domain.Listing, error) {
	var (
		where []string
		args  []any
	)

	if q.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(q.Search)) + "%"
		where = append(where, `(`+s.dialect.containsFold("r.name")+
			` OR `+s.dialect.containsFold("r.description")+
			` OR `+s.dialect.containsFold("r.owner")+`)`)
		args = append(args, pattern, pattern, pattern)
	}
	if q.Type != "" {
		where = append(where, `r.type = ?`)
		args = append(args, string(q.Type))
	}
	if q.SubmitterID != "" {
		where = append(where, `r.user_id = ?`)
		args = append(args, q.SubmitterID)
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + listingColumns + ` FROM repos r`)
	if len(where) > 0 {
		b.WriteString(` WHERE `)
		b.WriteString(strings.Join(where, ` AND `))
	}
	if q.Order == store.NewestFirst {
		b.WriteString(` ORDER BY r.created_at DESC, r.id DESC`)
	} else {
		b.WriteString(` ORDER BY r.created_at ASC, r.id ASC`)
	}
	if q.Limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, q.Limit)
	}

	rows, err := s.query(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectListings(rows)
}

func collectListings(rows *sql.Rows) ([]*domain.Listing, error) {
	listings := []*domain.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listings, nil
}

// IncrementUpvotes adds one to a listing's upvote count in a single statement
// and returns the new count.
// Returns store.ErrNotFound if the listing does not exist.
func (s *Store) IncrementUpvotes(ctx context.Context, id string) (int, error) {
	var upvotes int
	err := s.queryRow(ctx,
		`UPDATE repos SET upvotes = upvotes + 1 WHERE id = ? RETURNING upvotes`, id,
	).Scan(&upvotes)
	if err != nil {
		return 0, translate(err)
	}
	return upvotes, nil
}

// ListingRatings loads the review ratings of each listing in one query.
// Listings without reviews are absent from the map.
func (s *Store) ListingRatings(ctx context.Context, listingIDs []string) (map[string][]int, error) {
	result := make(map[string][]int, len(listingIDs))
	if len(listingIDs) == 0 {
		return result, nil
	}

	args := make([]any, len(listingIDs))
	for i, id := range listingIDs {
		args[i] = id
	}

	rows, err := s.query(ctx,
		`SELECT repo_id, rating FROM reviews WHERE repo_id IN (`+placeholders(len(args))+`)`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			listingID string
			rating    int
		)
		if err := rows.Scan(&listingID, &rating); err != nil {
			return nil, err
		}
		result[listingID] = append(result[listingID], rating)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
