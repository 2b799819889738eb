package sqlstore

import (
	"context"
	"time"

	"github.com/templatedir/templatedir-server/internal/domain"
)

// AddMembership puts a listing in a list and reports whether it was absent.
// Adding an existing membership is a no-op.
func (s *Store) AddMembership(ctx context.Context, listID, listingID string) (bool, error) {
	result, err := s.exec(ctx, `
		INSERT INTO list_repos (list_id, repo_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`,
		listID, listingID, formatTime(time.Now()),
	)
	if err != nil {
		return false, translate(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RemoveMembership takes a listing out of a list and reports whether it was
// present. Removing an absent membership is a no-op.
func (s *Store) RemoveMembership(ctx context.Context, listID, listingID string) (bool, error) {
	result, err := s.exec(ctx,
		`DELETE FROM list_repos WHERE list_id = ? AND repo_id = ?`, listID, listingID)
	if err != nil {
		return false, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// HasMembership reports whether a listing is in a list.
func (s *Store) HasMembership(ctx context.Context, listID, listingID string) (bool, error) {
	var n int
	err := s.queryRow(ctx,
		`SELECT COUNT(*) FROM list_repos WHERE list_id = ? AND repo_id = ?`, listID, listingID,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListListingsInList returns the listings in a list, most recently added first.
func (s *Store) ListListingsInList(ctx context.Context, listID string) ([]*domain.Listing, error) {
	rows, err := s.query(ctx, `
		SELECT `+listingColumns+` FROM repos r
		JOIN list_repos m ON m.repo_id = r.id
		WHERE m.list_id = ?
		ORDER BY m.created_at DESC, r.id ASC`, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectListings(rows)
}

// OwnerMemberships maps each listing held by any of an owner's lists to the
// ids of those lists, ordered by list name.
func (s *Store) OwnerMemberships(ctx context.Context, ownerID string) (map[string][]string, error) {
	rows, err := s.query(ctx, `
		SELECT m.repo_id, m.list_id FROM list_repos m
		JOIN lists l ON l.id = m.list_id
		WHERE l.user_id = ?
		ORDER BY l.name ASC, l.id ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var listingID, listID string
		if err := rows.Scan(&listingID, &listID); err != nil {
			return nil, err
		}
		result[listingID] = append(result[listingID], listID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
