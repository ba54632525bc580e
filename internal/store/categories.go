// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"

	"github.com/keepreverse/newsline-go/internal/model"
)

// CreateCategoryParams holds the fields for CreateCategory.
type CreateCategoryParams struct {
	Name        string
	NameNorm    string
	Description string
}

// CreateCategory inserts a category row and returns it with the assigned id.
func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (model.Category, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO categories (name, name_norm, description) VALUES (?, ?, ?)`,
		arg.Name, arg.NameNorm, arg.Description)
	if err != nil {
		return model.Category{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Category{}, err
	}

	return model.Category{ID: id, Name: arg.Name, Description: arg.Description}, nil
}

// GetCategoryByID fetches a category by primary key.
func (q *Queries) GetCategoryByID(ctx context.Context, id int64) (model.Category, error) {
	var c model.Category
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Description)
	return c, err
}

// ListCategories returns all categories ordered by name.
func (q *Queries) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, description FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CountCategoryNormConflicts returns the number of categories colliding on
// the normalized name, excluding excludeID (0 to exclude nobody).
func (q *Queries) CountCategoryNormConflicts(ctx context.Context, nameNorm string, excludeID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE name_norm = ? AND id != ?`,
		nameNorm, excludeID).Scan(&n)
	return n, err
}

// UpdateCategoryParams holds the fields for UpdateCategory.
type UpdateCategoryParams struct {
	ID          int64
	Name        string
	NameNorm    string
	Description string
}

// UpdateCategory rewrites a category.
func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, name_norm = ?, description = ? WHERE id = ?`,
		arg.Name, arg.NameNorm, arg.Description, arg.ID)
	return err
}

// DeleteCategory removes a category row.
func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}

// ClearNewsCategory nulls category_id on every news item referencing the
// category. Runs before DeleteCategory in the same transaction.
func (q *Queries) ClearNewsCategory(ctx context.Context, categoryID int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE news SET category_id = NULL WHERE category_id = ?`, categoryID)
	return err
}
