package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/moneymanager/moneymanager/internal/auth"
	"github.com/moneymanager/moneymanager/internal/metrics"
	"github.com/moneymanager/moneymanager/internal/model"
	"github.com/moneymanager/moneymanager/internal/repository"
)

const dateLayout = "2006-01-02"

// maxAmount is the largest value NUMERIC(14,2) holds.
var maxAmount = decimal.RequireFromString("999999999999.99")

// TransactionStore persists transactions.
type TransactionStore interface {
	FindMany(ctx context.Context, filter repository.Filter, order repository.Order) ([]*model.Transaction, error)
	FindFirst(ctx context.Context, filter repository.Filter) (*model.Transaction, error)
	Create(ctx context.Context, tx *model.Transaction) error
	Update(ctx context.Context, id string, tx *model.Transaction) error
	Delete(ctx context.Context, id string) error
}

// TransactionInput holds caller-supplied fields. Nil fields are left
// untouched on update and rejected on create where required.
type TransactionInput struct {
	Amount      *string
	Type        *string
	Category    *string
	SubCategory *string
	Date        *string
	Description *string
}

// TransactionService handles transaction business logic.
type TransactionService struct {
	store   TransactionStore
	metrics metrics.Recorder
	now     func() time.Time
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(store TransactionStore, recorder metrics.Recorder) *TransactionService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &TransactionService{
		store:   store,
		metrics: recorder,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// List returns the caller's transactions, newest first unless opts says otherwise.
func (s *TransactionService) List(ctx context.Context, owner auth.Identity, opts ListOptions) ([]*model.Transaction, error) {
	if owner.IsZero() {
		return nil, ErrNoOwner
	}
	order, err := opts.order(repository.TransactionOrderColumns, true)
	if err != nil {
		return nil, err
	}

	txs, err := s.store.FindMany(ctx, repository.Filter{OwnerSubject: owner.Subject}, order)
	if err != nil {
		return nil, persistenceError("list transactions", err)
	}
	return txs, nil
}

// Get returns the caller's transaction with id.
func (s *TransactionService) Get(ctx context.Context, owner auth.Identity, id string) (*model.Transaction, error) {
	return s.find(ctx, owner, id)
}

// Create validates input and stores a new transaction owned by owner.
func (s *TransactionService) Create(ctx context.Context, owner auth.Identity, input TransactionInput) (*model.Transaction, error) {
	if owner.IsZero() {
		return nil, ErrNoOwner
	}
	if err := requireFields(
		requiredField{"amount", input.Amount},
		requiredField{"type", input.Type},
		requiredField{"category", input.Category},
		requiredField{"date", input.Date},
	); err != nil {
		return nil, err
	}

	now := s.now()
	tx := &model.Transaction{
		ID:           ulid.Make().String(),
		OwnerSubject: owner.Subject,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := applyTransactionInput(tx, input); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, tx); err != nil {
		return nil, persistenceError("create transaction", err)
	}

	s.metrics.IncRecordCreated(metrics.KindTransaction)
	return tx, nil
}

// Update applies input to the caller's transaction with id.
func (s *TransactionService) Update(ctx context.Context, owner auth.Identity, id string, input TransactionInput) (*model.Transaction, error) {
	existing, err := s.find(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	tx := *existing
	if err := applyTransactionInput(&tx, input); err != nil {
		return nil, err
	}
	tx.UpdatedAt = s.now()

	// A concurrent delete between lookup and write surfaces here as a
	// store failure, not as NotFound.
	if err := s.store.Update(ctx, id, &tx); err != nil {
		return nil, persistenceError("update transaction", err)
	}

	s.metrics.IncRecordUpdated(metrics.KindTransaction)
	return &tx, nil
}

// Delete removes the caller's transaction with id.
func (s *TransactionService) Delete(ctx context.Context, owner auth.Identity, id string) error {
	if _, err := s.find(ctx, owner, id); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return persistenceError("delete transaction", err)
	}

	s.metrics.IncRecordDeleted(metrics.KindTransaction)
	return nil
}

// find looks a transaction up by id and owner together, so a foreign record
// is indistinguishable from a missing one.
func (s *TransactionService) find(ctx context.Context, owner auth.Identity, id string) (*model.Transaction, error) {
	if owner.IsZero() {
		return nil, ErrNoOwner
	}
	if id == "" {
		return nil, ErrNotFound
	}

	tx, err := s.store.FindFirst(ctx, repository.Filter{ID: id, OwnerSubject: owner.Subject})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, persistenceError("get transaction", err)
	}
	if !tx.OwnedBy(owner.Subject) {
		return nil, ErrNotFound
	}
	return tx, nil
}

// applyTransactionInput copies the non-nil fields of input onto tx,
// validating each one.
func applyTransactionInput(tx *model.Transaction, input TransactionInput) error {
	if input.Amount != nil {
		amount, err := parseAmount(*input.Amount)
		if err != nil {
			return err
		}
		tx.Amount = amount
	}

	if input.Type != nil {
		t := model.EntryType(strings.TrimSpace(*input.Type))
		if !t.IsValid() {
			return invalid("type", "must be income or expense")
		}
		tx.Type = t
	}

	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			return invalid("category", "is required")
		}
		tx.Category = category
	}

	if input.SubCategory != nil {
		tx.SubCategory = strings.TrimSpace(*input.SubCategory)
	}

	if input.Date != nil {
		date, err := parseDate(*input.Date)
		if err != nil {
			return err
		}
		tx.Date = date
	}

	if input.Description != nil {
		tx.Description = *input.Description
	}

	return nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Decimal{}, invalid("amount", "is required")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, invalid("amount", "must be a number")
	}
	if amount.IsNegative() {
		return decimal.Decimal{}, invalid("amount", "must not be negative")
	}
	amount = amount.Round(2)
	if amount.GreaterThan(maxAmount) {
		return decimal.Decimal{}, invalid("amount", "is too large")
	}
	return amount, nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, invalid("date", "is required")
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, invalid("date", "must be YYYY-MM-DD or RFC 3339")
}
