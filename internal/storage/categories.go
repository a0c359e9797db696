package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

// ListCategories returns the owner's user-defined categories followed by the
// shared system categories.
func (r *SQLiteRepository) ListCategories(ctx context.Context, ownerID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, name, type, user_defined
		FROM categories
		WHERE owner_id = ? OR owner_id = ''
		ORDER BY user_defined DESC, name ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var results []core.Category
	for rows.Next() {
		var (
			c       core.Category
			catType string
		)
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &catType, &c.UserDefined); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.CategoryType(catType)
		results = append(results, c)
	}
	return results, rows.Err()
}

// FindSystemCategoryByType returns the first shared category of the given
// type. Used to classify auto-generated saving transactions.
func (r *SQLiteRepository) FindSystemCategoryByType(ctx context.Context, t core.CategoryType) (*core.Category, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, type, user_defined
		FROM categories
		WHERE owner_id = '' AND type = ?
		ORDER BY id ASC LIMIT 1`, string(t))

	var (
		c       core.Category
		catType string
	)
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &catType, &c.UserDefined)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find system category: %w", err)
	}
	c.Type = core.CategoryType(catType)
	return &c, nil
}
