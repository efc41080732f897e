// Package memstore is an in-memory record store with the same semantics as
// the Postgres repository. Tests use it in place of a database.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/moneymanager/moneymanager/internal/model"
	"github.com/moneymanager/moneymanager/internal/repository"
)

// Store holds records of one kind. Records go in and out as copies.
type Store[T any] struct {
	mu      sync.Mutex
	records []T

	id      func(T) string
	owner   func(T) string
	clone   func(T) T
	compare map[string]func(a, b T) int
	deflt   func(a, b T) int

	// FindErr and WriteErr, when set, are returned by reads and writes.
	FindErr  error
	WriteErr error
	// BeforeUpdate runs before Update takes the lock.
	BeforeUpdate func()
}

// NewTransactions returns an empty transaction store.
func NewTransactions() *Store[*model.Transaction] {
	byDate := func(a, b *model.Transaction) int { return a.Date.Compare(b.Date) }
	byCreated := func(a, b *model.Transaction) int { return a.CreatedAt.Compare(b.CreatedAt) }
	return &Store[*model.Transaction]{
		id:    func(t *model.Transaction) string { return t.ID },
		owner: func(t *model.Transaction) string { return t.OwnerSubject },
		clone: func(t *model.Transaction) *model.Transaction { c := *t; return &c },
		compare: map[string]func(a, b *model.Transaction) int{
			"date":      byDate,
			"amount":    func(a, b *model.Transaction) int { return a.Amount.Cmp(b.Amount) },
			"createdAt": byCreated,
		},
		deflt: func(a, b *model.Transaction) int {
			return cmp.Or(-byDate(a, b), -byCreated(a, b))
		},
	}
}

// NewCategories returns an empty category store.
func NewCategories() *Store[*model.Category] {
	byCreated := func(a, b *model.Category) int { return a.CreatedAt.Compare(b.CreatedAt) }
	return &Store[*model.Category]{
		id:    func(c *model.Category) string { return c.ID },
		owner: func(c *model.Category) string { return c.OwnerSubject },
		clone: func(c *model.Category) *model.Category {
			out := *c
			out.SubCategories = slices.Clone(c.SubCategories)
			return &out
		},
		compare: map[string]func(a, b *model.Category) int{
			"name":      func(a, b *model.Category) int { return cmp.Compare(a.Name, b.Name) },
			"createdAt": byCreated,
		},
		deflt: byCreated,
	}
}

func (s *Store[T]) matches(rec T, f repository.Filter) bool {
	if f.ID != "" && s.id(rec) != f.ID {
		return false
	}
	if f.OwnerSubject != "" && s.owner(rec) != f.OwnerSubject {
		return false
	}
	return true
}

// FindMany returns matching records sorted by order.
func (s *Store[T]) FindMany(_ context.Context, f repository.Filter, order repository.Order) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return nil, s.FindErr
	}

	less := s.deflt
	if order.Field != "" {
		c, ok := s.compare[order.Field]
		if !ok {
			return nil, repository.ErrInvalidOrder
		}
		less = c
		if order.Desc {
			less = func(a, b T) int { return -c(a, b) }
		}
	}

	out := []T{}
	for _, r := range s.records {
		if s.matches(r, f) {
			out = append(out, s.clone(r))
		}
	}
	slices.SortStableFunc(out, less)
	return out, nil
}

// FindFirst returns the first matching record or repository.ErrNotFound.
func (s *Store[T]) FindFirst(_ context.Context, f repository.Filter) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if s.FindErr != nil {
		return zero, s.FindErr
	}
	for _, r := range s.records {
		if s.matches(r, f) {
			return s.clone(r), nil
		}
	}
	return zero, repository.ErrNotFound
}

// Create appends rec.
func (s *Store[T]) Create(_ context.Context, rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.records = append(s.records, s.clone(rec))
	return nil
}

// Update replaces the record with id when the owner matches.
func (s *Store[T]) Update(_ context.Context, id string, rec T) error {
	if s.BeforeUpdate != nil {
		s.BeforeUpdate()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	for i, r := range s.records {
		if s.id(r) == id && s.owner(r) == s.owner(rec) {
			s.records[i] = s.clone(rec)
			return nil
		}
	}
	return repository.ErrNotFound
}

// Delete removes the record with id.
func (s *Store[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	for i, r := range s.records {
		if s.id(r) == id {
			s.records = slices.Delete(s.records, i, i+1)
			return nil
		}
	}
	return repository.ErrNotFound
}

// Remove drops the record with id without going through the error hooks.
func (s *Store[T]) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = slices.DeleteFunc(s.records, func(r T) bool { return s.id(r) == id })
}

// Len returns the number of stored records.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
