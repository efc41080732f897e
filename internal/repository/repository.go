// Package repository provides the Postgres record store.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Common errors for record store operations.
var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidOrder = errors.New("invalid order field")
)

// Filter narrows a lookup. Empty fields are not applied.
type Filter struct {
	ID           string
	OwnerSubject string
}

// Order sorts a listing by a whitelisted field.
type Order struct {
	Field string
	Desc  bool
}

// Repository owns the connection pool and hands out per-record stores.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new Repository with a connection pool.
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying connection pool.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// Transactions returns the transaction store.
func (r *Repository) Transactions() *TransactionRepository {
	return &TransactionRepository{pool: r.pool}
}

// Categories returns the category store.
func (r *Repository) Categories() *CategoryRepository {
	return &CategoryRepository{pool: r.pool}
}

// whereClause renders filter as a WHERE clause starting at placeholder $1.
func whereClause(filter Filter) (string, []any) {
	var (
		clause string
		args   []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		if clause == "" {
			clause = " WHERE "
		} else {
			clause += " AND "
		}
		clause += fmt.Sprintf(cond, len(args))
	}

	if filter.ID != "" {
		add("id = $%d", filter.ID)
	}
	if filter.OwnerSubject != "" {
		add("owner_subject = $%d", filter.OwnerSubject)
	}
	return clause, args
}

// orderClause maps order onto columns, falling back to defaultOrder when no
// field is given. The id column breaks ties so listings are stable.
func orderClause(order Order, columns map[string]string, defaultOrder string) (string, error) {
	if order.Field == "" {
		return " ORDER BY " + defaultOrder, nil
	}
	col, ok := columns[order.Field]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrder, order.Field)
	}
	dir := "ASC"
	if order.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir), nil
}
