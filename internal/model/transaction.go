// Package model defines domain entities for the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType says which way money moves.
type EntryType string

const (
	TypeIncome  EntryType = "income"
	TypeExpense EntryType = "expense"
)

// IsValid checks if the entry type is known.
func (t EntryType) IsValid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction is a single income or expense entry.
// OwnerSubject is set at creation from the verified identity and never changes.
type Transaction struct {
	ID           string
	OwnerSubject string
	Amount       decimal.Decimal
	Type         EntryType
	Category     string
	SubCategory  string
	Date         time.Time
	Description  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OwnedBy reports whether subject owns the transaction.
func (t *Transaction) OwnedBy(subject string) bool {
	return subject != "" && t.OwnerSubject == subject
}
