package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/moneymanager/moneymanager/internal/model"
)

// TransactionOrderColumns whitelists the sortable transaction fields.
var TransactionOrderColumns = map[string]string{
	"date":      "date",
	"amount":    "amount",
	"createdAt": "created_at",
}

const (
	transactionColumns = `id, owner_subject, amount::text, type, category, sub_category, date, description, created_at, updated_at`
	// Newest first; same-day entries by insertion.
	transactionDefaultOrder = "date DESC, created_at DESC, id DESC"
)

// TransactionRepository stores transactions.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// FindMany returns every transaction matching filter.
func (r *TransactionRepository) FindMany(ctx context.Context, filter Filter, order Order) ([]*model.Transaction, error) {
	orderBy, err := orderClause(order, TransactionOrderColumns, transactionDefaultOrder)
	if err != nil {
		return nil, err
	}
	where, args := whereClause(filter)
	query := `SELECT ` + transactionColumns + ` FROM transactions` + where + orderBy

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txs := []*model.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txs, nil
}

// FindFirst returns the first transaction matching filter, or ErrNotFound.
func (r *TransactionRepository) FindFirst(ctx context.Context, filter Filter) (*model.Transaction, error) {
	where, args := whereClause(filter)
	query := `SELECT ` + transactionColumns + ` FROM transactions` + where + ` LIMIT 1`

	tx, err := scanTransaction(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// Create inserts tx.
func (r *TransactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	query := `
		INSERT INTO transactions (id, owner_subject, amount, type, category, sub_category, date, description, created_at, updated_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		tx.ID,
		tx.OwnerSubject,
		tx.Amount.String(),
		string(tx.Type),
		tx.Category,
		tx.SubCategory,
		tx.Date,
		tx.Description,
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of the transaction with id.
// The owner never changes.
func (r *TransactionRepository) Update(ctx context.Context, id string, tx *model.Transaction) error {
	query := `
		UPDATE transactions
		SET amount = $3::numeric, type = $4, category = $5, sub_category = $6,
		    date = $7, description = $8, updated_at = $9
		WHERE id = $1 AND owner_subject = $2
	`

	result, err := r.pool.Exec(ctx, query,
		id,
		tx.OwnerSubject,
		tx.Amount.String(),
		string(tx.Type),
		tx.Category,
		tx.SubCategory,
		tx.Date,
		tx.Description,
		tx.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the transaction with id.
func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	var (
		tx     model.Transaction
		amount string
		typ    string
	)
	err := row.Scan(
		&tx.ID,
		&tx.OwnerSubject,
		&amount,
		&typ,
		&tx.Category,
		&tx.SubCategory,
		&tx.Date,
		&tx.Description,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	tx.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	tx.Type = model.EntryType(typ)
	// pgx returns TIMESTAMPTZ in the local zone.
	tx.Date = tx.Date.UTC()
	tx.CreatedAt = tx.CreatedAt.UTC()
	tx.UpdatedAt = tx.UpdatedAt.UTC()
	return &tx, nil
}
