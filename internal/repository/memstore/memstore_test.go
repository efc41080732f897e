package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moneymanager/moneymanager/internal/model"
	"github.com/moneymanager/moneymanager/internal/repository"
)

func tx(id, owner string, day int, amount int64) *model.Transaction {
	return &model.Transaction{
		ID:           id,
		OwnerSubject: owner,
		Amount:       decimal.NewFromInt(amount),
		Date:         time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, day, 0, time.UTC),
	}
}

func ids(txs []*model.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.ID)
	}
	return out
}

func TestStore_FindManyOrder(t *testing.T) {
	ctx := context.Background()
	s := NewTransactions()
	for _, r := range []*model.Transaction{tx("a", "u1", 1, 30), tx("b", "u1", 3, 10), tx("c", "u1", 2, 20), tx("d", "u2", 9, 1)} {
		if err := s.Create(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name  string
		order repository.Order
		want  string
	}{
		{"default date desc", repository.Order{}, "b,c,a"},
		{"amount asc", repository.Order{Field: "amount"}, "b,c,a"},
		{"amount desc", repository.Order{Field: "amount", Desc: true}, "a,c,b"},
		{"date asc", repository.Order{Field: "date"}, "a,c,b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FindMany(ctx, repository.Filter{OwnerSubject: "u1"}, tt.order)
			if err != nil {
				t.Fatal(err)
			}
			joined := ""
			for i, id := range ids(got) {
				if i > 0 {
					joined += ","
				}
				joined += id
			}
			if joined != tt.want {
				t.Errorf("order = %s, want %s", joined, tt.want)
			}
		})
	}

	if _, err := s.FindMany(ctx, repository.Filter{}, repository.Order{Field: "owner"}); !errors.Is(err, repository.ErrInvalidOrder) {
		t.Errorf("expected ErrInvalidOrder, got %v", err)
	}
}

func TestStore_CopiesRecords(t *testing.T) {
	ctx := context.Background()
	s := NewCategories()

	c := &model.Category{ID: "c1", OwnerSubject: "u1", SubCategories: []string{"a"}}
	if err := s.Create(ctx, c); err != nil {
		t.Fatal(err)
	}
	c.SubCategories[0] = "mutated"

	got, err := s.FindFirst(ctx, repository.Filter{ID: "c1"})
	if err != nil {
		t.Fatal(err)
	}
	if got.SubCategories[0] != "a" {
		t.Errorf("stored record aliased caller slice: %v", got.SubCategories)
	}
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewTransactions()

	if _, err := s.FindFirst(ctx, repository.Filter{ID: "x"}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("find: %v", err)
	}
	if err := s.Delete(ctx, "x"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("delete: %v", err)
	}
	if err := s.Update(ctx, "x", tx("x", "u1", 1, 1)); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("update: %v", err)
	}
}
