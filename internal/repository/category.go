package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/moneymanager/moneymanager/internal/model"
)

// CategoryOrderColumns whitelists the sortable category fields.
var CategoryOrderColumns = map[string]string{
	"name":      "name",
	"createdAt": "created_at",
}

const (
	categoryColumns      = `id, owner_subject, name, type, color, icon, sub_categories, created_at, updated_at`
	categoryDefaultOrder = "created_at ASC, id ASC"
)

// CategoryRepository stores categories and their subcategory lists.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// FindMany returns every category matching filter.
func (r *CategoryRepository) FindMany(ctx context.Context, filter Filter, order Order) ([]*model.Category, error) {
	orderBy, err := orderClause(order, CategoryOrderColumns, categoryDefaultOrder)
	if err != nil {
		return nil, err
	}
	where, args := whereClause(filter)
	query := `SELECT ` + categoryColumns + ` FROM categories` + where + orderBy

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// FindFirst returns the first category matching filter, or ErrNotFound.
func (r *CategoryRepository) FindFirst(ctx context.Context, filter Filter) (*model.Category, error) {
	where, args := whereClause(filter)
	query := `SELECT ` + categoryColumns + ` FROM categories` + where + ` LIMIT 1`

	c, err := scanCategory(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

// Create inserts c.
func (r *CategoryRepository) Create(ctx context.Context, c *model.Category) error {
	query := `
		INSERT INTO categories (id, owner_subject, name, type, color, icon, sub_categories, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.OwnerSubject,
		c.Name,
		string(c.Type),
		c.Color,
		c.Icon,
		pq.Array(nonNil(c.SubCategories)),
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of the category with id, including
// the whole subcategory list.
func (r *CategoryRepository) Update(ctx context.Context, id string, c *model.Category) error {
	query := `
		UPDATE categories
		SET name = $3, type = $4, color = $5, icon = $6, sub_categories = $7, updated_at = $8
		WHERE id = $1 AND owner_subject = $2
	`

	result, err := r.pool.Exec(ctx, query,
		id,
		c.OwnerSubject,
		c.Name,
		string(c.Type),
		c.Color,
		c.Icon,
		pq.Array(nonNil(c.SubCategories)),
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the category with id.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (*model.Category, error) {
	var (
		c    model.Category
		typ  string
		subs []string
	)
	err := row.Scan(
		&c.ID,
		&c.OwnerSubject,
		&c.Name,
		&typ,
		&c.Color,
		&c.Icon,
		pq.Array(&subs),
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Type = model.EntryType(typ)
	c.SubCategories = nonNil(subs)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

// nonNil keeps empty lists serializing as [] rather than NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
