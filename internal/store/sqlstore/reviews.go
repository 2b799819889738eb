package sqlstore

import (
	"context"

	"github.com/templatedir/templatedir-server/internal/domain"
)

const reviewColumns = `id, repo_id, user_id, rating, content, created_at`

func scanReview(scanner interface{ Scan(dest ...any) error }) (*domain.Review, error) {
	var (
		r         domain.Review
		createdAt string
	)

	if err := scanner.Scan(&r.ID, &r.ListingID, &r.UserID, &r.Rating, &r.Content, &createdAt); err != nil {
		return nil, err
	}

	var err error
	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReview inserts a review.
// A rating outside 1..5 or an unknown listing or user is rejected with
// store.ErrInvalidInput.
func (s *Store) CreateReview(ctx context.Context, review *domain.Review) error {
	_, err := s.exec(ctx, `
		INSERT INTO reviews (`+reviewColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		review.ID,
		review.ListingID,
		review.UserID,
		review.Rating,
		review.Content,
		formatTime(review.CreatedAt),
	)
	return translate(err)
}

// ListReviews returns a listing's reviews, newest first.
func (s *Store) ListReviews(ctx context.Context, listingID string) ([]*domain.Review, error) {
	rows, err := s.query(ctx, `
		SELECT `+reviewColumns+` FROM reviews
		WHERE repo_id = ?
		ORDER BY created_at DESC, id DESC`, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []*domain.Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}
