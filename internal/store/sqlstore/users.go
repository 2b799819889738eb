package sqlstore

import (
	"context"

	"github.com/templatedir/templatedir-server/internal/domain"
)

const userColumns = `id, email, password_hash, username, created_at`

func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u         domain.User
		createdAt string
	)

	if err := scanner.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Username, &createdAt); err != nil {
		return nil, err
	}

	var err error
	u.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user.
// Returns store.ErrAlreadyExists on a duplicate ID or email.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.exec(ctx, `
		INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, user.Username, formatTime(user.CreatedAt),
	)
	return translate(err)
}

// GetUser retrieves a user by ID.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email address. Callers pass the
// normalized (lowercased) form that was stored.
// Returns store.ErrNotFound if no user has that email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}
