package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/templatedir/templatedir-server/internal/domain"
	"github.com/templatedir/templatedir-server/internal/store"
)

// sessionColumns is the ordered list of columns selected in session queries.
// Must match the scan order in scanSession.
const sessionColumns = `id, user_id, refresh_token_hash, expires_at, created_at, ip_address, user_agent`

func scanSession(scanner interface{ Scan(dest ...any) error }) (*domain.Session, error) {
	var (
		s         domain.Session
		expiresAt string
		createdAt string
		ipAddress sql.NullString
		userAgent sql.NullString
	)

	err := scanner.Scan(&s.ID, &s.UserID, &s.RefreshTokenHash, &expiresAt, &createdAt, &ipAddress, &userAgent)
	if err != nil {
		return nil, err
	}

	s.ExpiresAt, err = parseTime(expiresAt)
	if err != nil {
		return nil, err
	}
	s.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	s.IPAddress = ipAddress.String
	s.UserAgent = userAgent.String

	return &s, nil
}

// CreateSession inserts a session.
// Returns store.ErrAlreadyExists on duplicate ID or refresh token hash.
func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.exec(ctx, `
		INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.RefreshTokenHash,
		formatTime(session.ExpiresAt),
		formatTime(session.CreatedAt),
		nullString(session.IPAddress),
		nullString(session.UserAgent),
	)
	return translate(err)
}

// GetSession retrieves a session by ID.
// Returns store.ErrNotFound if the session does not exist.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := scanSession(s.queryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if err != nil {
		return nil, translate(err)
	}
	return sess, nil
}

// GetSessionByRefreshToken retrieves a session by the hash of its refresh token.
// Returns store.ErrNotFound if no session matches.
func (s *Store) GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error) {
	sess, err := scanSession(s.queryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE refresh_token_hash = ?`, tokenHash))
	if err != nil {
		return nil, translate(err)
	}
	return sess, nil
}

// UpdateSession stores a rotated refresh token and expiry.
// Returns store.ErrNotFound if the session does not exist.
func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	result, err := s.exec(ctx, `
		UPDATE sessions SET refresh_token_hash = ?, expires_at = ?, ip_address = ?, user_agent = ?
		WHERE id = ?`,
		session.RefreshTokenHash,
		formatTime(session.ExpiresAt),
		nullString(session.IPAddress),
		nullString(session.UserAgent),
		session.ID,
	)
	if err != nil {
		return translate(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteSession removes a session.
// Returns store.ErrNotFound if the session does not exist.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	result, err := s.exec(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteExpiredSessions removes every session past its expiry and returns
// how many were removed.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int, error) {
	result, err := s.exec(ctx, `DELETE FROM sessions WHERE expires_at < ?`, formatTime(time.Now()))
	if err != nil {
		return 0, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
