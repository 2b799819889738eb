package sqlstore

import (
	"context"
	"fmt"

	"github.com/templatedir/templatedir-server/internal/domain"
	"github.com/templatedir/templatedir-server/internal/store"
)

const listColumns = `id, user_id, name, created_at`

func scanList(scanner interface{ Scan(dest ...any) error }) (*domain.List, error) {
	var (
		l         domain.List
		createdAt string
	)

	if err := scanner.Scan(&l.ID, &l.OwnerID, &l.Name, &createdAt); err != nil {
		return nil, err
	}

	var err error
	l.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateList inserts a list.
// Returns store.ErrAlreadyExists when a second default list is created for
// the same owner.
func (s *Store) CreateList(ctx context.Context, list *domain.List) error {
	_, err := s.exec(ctx, `
		INSERT INTO lists (`+listColumns+`) VALUES (?, ?, ?, ?)`,
		list.ID, list.OwnerID, list.Name, formatTime(list.CreatedAt),
	)
	return translate(err)
}

// InsertDefaultList inserts list unless the owner already has a default
// list, and reports whether a row was written. Concurrent callers converge on
// a single row through the partial unique index on lists.
func (s *Store) InsertDefaultList(ctx context.Context, list *domain.List) (bool, error) {
	if list.Name != domain.DefaultListName {
		return false, store.ErrInvalidInput.WithMessage("not the default list name")
	}

	result, err := s.exec(ctx, `
		INSERT INTO lists (`+listColumns+`) VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		list.ID, list.OwnerID, list.Name, formatTime(list.CreatedAt),
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

// GetList retrieves a list by ID.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) GetList(ctx context.Context, id string) (*domain.List, error) {
	l, err := scanList(s.queryRow(ctx, `SELECT `+listColumns+` FROM lists WHERE id = ?`, id))
	if err != nil {
		return nil, translate(err)
	}
	return l, nil
}

// GetListByName retrieves an owner's list by name. When several lists share
// the name the oldest is returned.
// Returns store.ErrNotFound if there is none.
func (s *Store) GetListByName(ctx context.Context, ownerID, name string) (*domain.List, error) {
	row := s.queryRow(ctx, `
		SELECT `+listColumns+` FROM lists
		WHERE user_id = ? AND name = ?
		ORDER BY created_at ASC, id ASC
		LIMIT 1`, ownerID, name)

	l, err := scanList(row)
	if err != nil {
		return nil, translate(err)
	}
	return l, nil
}

// ListLists returns an owner's lists ordered by name.
func (s *Store) ListLists(ctx context.Context, ownerID string) ([]*domain.List, error) {
	rows, err := s.query(ctx, `
		SELECT `+listColumns+` FROM lists
		WHERE user_id = ?
		ORDER BY name ASC, id ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lists := []*domain.List{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lists, nil
}

// DeleteList removes a list together with its memberships.
// Returns store.ErrNotFound if the list does not exist.
func (s *Store) DeleteList(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM list_repos WHERE list_id = ?`), id); err != nil {
		return fmt.Errorf("delete memberships: %w", err)
	}

	result, err := tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM lists WHERE id = ?`), id)
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

	return tx.Commit()
}
