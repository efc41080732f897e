package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/moneymanager/moneymanager/internal/auth"
	"github.com/moneymanager/moneymanager/internal/metrics"
	"github.com/moneymanager/moneymanager/internal/model"
	"github.com/moneymanager/moneymanager/internal/repository"
)

// CategoryStore persists categories.
type CategoryStore interface {
	FindMany(ctx context.Context, filter repository.Filter, order repository.Order) ([]*model.Category, error)
	FindFirst(ctx context.Context, filter repository.Filter) (*model.Category, error)
	Create(ctx context.Context, c *model.Category) error
	Update(ctx context.Context, id string, c *model.Category) error
	Delete(ctx context.Context, id string) error
}

// CategoryInput holds caller-supplied fields. SubCategories, when set,
// replaces the whole list.
type CategoryInput struct {
	Name          *string
	Type          *string
	Color         *string
	Icon          *string
	SubCategories *[]string
}

// CategoryService handles category and subcategory business logic.
type CategoryService struct {
	store   CategoryStore
	metrics metrics.Recorder
	now     func() time.Time
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(store CategoryStore, recorder metrics.Recorder) *CategoryService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CategoryService{
		store:   store,
		metrics: recorder,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// List returns the caller's categories, oldest first unless opts says otherwise.
func (s *CategoryService) List(ctx context.Context, owner auth.Identity, opts ListOptions) ([]*model.Category, error) {
	if owner.IsZero() {
		return nil, ErrNoOwner
	}
	order, err := opts.order(repository.CategoryOrderColumns, false)
	if err != nil {
		return nil, err
	}

	categories, err := s.store.FindMany(ctx, repository.Filter{OwnerSubject: owner.Subject}, order)
	if err != nil {
		return nil, persistenceError("list categories", err)
	}
	return categories, nil
}

// Get returns the caller's category with id.
func (s *CategoryService) Get(ctx context.Context, owner auth.Identity, id string) (*model.Category, error) {
	return s.find(ctx, owner, id)
}

// Create validates input and stores a new category owned by owner.
// Type defaults to expense.
func (s *CategoryService) Create(ctx context.Context, owner auth.Identity, input CategoryInput) (*model.Category, error) {
	if owner.IsZero() {
		return nil, ErrNoOwner
	}
	if err := requireFields(requiredField{"name", input.Name}); err != nil {
		return nil, err
	}

	now := s.now()
	c := &model.Category{
		ID:            ulid.Make().String(),
		OwnerSubject:  owner.Subject,
		Type:          model.TypeExpense,
		SubCategories: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := applyCategoryInput(c, input); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, c); err != nil {
		return nil, persistenceError("create category", err)
	}

	s.metrics.IncRecordCreated(metrics.KindCategory)
	return c, nil
}

// Update applies input to the caller's category with id.
func (s *CategoryService) Update(ctx context.Context, owner auth.Identity, id string, input CategoryInput) (*model.Category, error) {
	existing, err := s.find(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	c := cloneCategory(existing)
	if err := applyCategoryInput(c, input); err != nil {
		return nil, err
	}

	return s.save(ctx, id, c, "update category")
}

// Delete removes the caller's category with id. Transactions naming the
// category keep their text value.
func (s *CategoryService) Delete(ctx context.Context, owner auth.Identity, id string) error {
	if _, err := s.find(ctx, owner, id); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return persistenceError("delete category", err)
	}

	s.metrics.IncRecordDeleted(metrics.KindCategory)
	return nil
}

// AddSubCategory appends name to the caller's category. Adding a name that
// is already listed changes nothing.
func (s *CategoryService) AddSubCategory(ctx context.Context, owner auth.Identity, id, name string) (*model.Category, error) {
	name, err := subCategoryName(name)
	if err != nil {
		return nil, err
	}

	existing, err := s.find(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	c := cloneCategory(existing)
	if !c.AddSubCategory(name) {
		return existing, nil
	}

	return s.save(ctx, id, c, "add subcategory")
}

// RemoveSubCategory drops name from the caller's category. An absent name
// changes nothing.
func (s *CategoryService) RemoveSubCategory(ctx context.Context, owner auth.Identity, id, name string) (*model.Category, error) {
	existing, err := s.find(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	c := cloneCategory(existing)
	if !c.RemoveSubCategory(name) {
		return existing, nil
	}

	return s.save(ctx, id, c, "remove subcategory")
}

func (s *CategoryService) save(ctx context.Context, id string, c *model.Category, op string) (*model.Category, error) {
	c.UpdatedAt = s.now()
	if err := s.store.Update(ctx, id, c); err != nil {
		return nil, persistenceError(op, err)
	}

	s.metrics.IncRecordUpdated(metrics.KindCategory)
	return c, nil
}

func (s *CategoryService) find(ctx context.Context, owner auth.Identity, id string) (*model.Category, error) {
	if owner.IsZero() {
		return nil, ErrNoOwner
	}
	if id == "" {
		return nil, ErrNotFound
	}

	c, err := s.store.FindFirst(ctx, repository.Filter{ID: id, OwnerSubject: owner.Subject})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, persistenceError("get category", err)
	}
	if !c.OwnedBy(owner.Subject) {
		return nil, ErrNotFound
	}
	return c, nil
}

func applyCategoryInput(c *model.Category, input CategoryInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return invalid("name", "is required")
		}
		c.Name = name
	}

	if input.Type != nil {
		t := model.EntryType(strings.TrimSpace(*input.Type))
		if t == "" {
			t = model.TypeExpense
		}
		if !t.IsValid() {
			return invalid("type", "must be income or expense")
		}
		c.Type = t
	}

	if input.Color != nil {
		c.Color = strings.TrimSpace(*input.Color)
	}

	if input.Icon != nil {
		c.Icon = strings.TrimSpace(*input.Icon)
	}

	if input.SubCategories != nil {
		names := make([]string, 0, len(*input.SubCategories))
		for _, raw := range *input.SubCategories {
			name, err := subCategoryName(raw)
			if err != nil {
				return err
			}
			names = append(names, name)
		}
		c.SubCategories = model.UniqueSubCategories(names)
	}

	return nil
}

func subCategoryName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", invalid("subCategories", "names must not be empty")
	}
	return name, nil
}

func cloneCategory(c *model.Category) *model.Category {
	out := *c
	out.SubCategories = slices.Clone(c.SubCategories)
	if out.SubCategories == nil {
		out.SubCategories = []string{}
	}
	return &out
}
