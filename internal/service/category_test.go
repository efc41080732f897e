package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/moneymanager/moneymanager/internal/model"
	"github.com/moneymanager/moneymanager/internal/repository/memstore"
)

func newCategoryService() (*CategoryService, *memstore.Store[*model.Category]) {
	store := memstore.NewCategories()
	return NewCategoryService(store, nil), store
}

func TestCategoryService_CreateDefaults(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCategoryService()

	c, err := svc.Create(ctx, u1, CategoryInput{Name: ptr(" Food ")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Name != "Food" {
		t.Errorf("name = %q, want trimmed", c.Name)
	}
	if c.Type != model.TypeExpense {
		t.Errorf("type = %q, want expense", c.Type)
	}
	if c.SubCategories == nil || len(c.SubCategories) != 0 {
		t.Errorf("subcategories = %#v, want empty list", c.SubCategories)
	}
	if c.OwnerSubject != "u1" {
		t.Errorf("owner = %q", c.OwnerSubject)
	}
}

func TestCategoryService_CreateDeduplicatesSubCategories(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCategoryService()

	c, err := svc.Create(ctx, u1, CategoryInput{
		Name:          ptr("Food"),
		Type:          ptr("expense"),
		SubCategories: &[]string{"Groceries", "Dining", "Groceries"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !reflect.DeepEqual(c.SubCategories, []string{"Groceries", "Dining"}) {
		t.Errorf("subcategories = %v", c.SubCategories)
	}
}

func TestCategoryService_Validation(t *testing.T) {
	ctx := context.Background()
	svc, store := newCategoryService()

	tests := []struct {
		name      string
		input     CategoryInput
		wantField string
	}{
		{"missing name", CategoryInput{}, "name"},
		{"blank name", CategoryInput{Name: ptr(" ")}, "name"},
		{"bad type", CategoryInput{Name: ptr("Salary"), Type: ptr("bonus")}, "type"},
		{"empty subcategory", CategoryInput{Name: ptr("Food"), SubCategories: &[]string{"ok", ""}}, "subCategories"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, u1, tt.input)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}

	if store.Len() != 0 {
		t.Error("invalid input was persisted")
	}
}

func TestCategoryService_SubCategoryLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCategoryService()

	c, err := svc.Create(ctx, u1, CategoryInput{Name: ptr("Food"), SubCategories: &[]string{"Groceries"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	steps := []struct {
		name string
		run  func() (*model.Category, error)
		want []string
	}{
		{"add dining", func() (*model.Category, error) { return svc.AddSubCategory(ctx, u1, c.ID, "Dining") }, []string{"Groceries", "Dining"}},
		{"add duplicate", func() (*model.Category, error) { return svc.AddSubCategory(ctx, u1, c.ID, "Dining") }, []string{"Groceries", "Dining"}},
		{"remove groceries", func() (*model.Category, error) { return svc.RemoveSubCategory(ctx, u1, c.ID, "Groceries") }, []string{"Dining"}},
		{"remove absent", func() (*model.Category, error) { return svc.RemoveSubCategory(ctx, u1, c.ID, "Travel") }, []string{"Dining"}},
		{"remove is exact", func() (*model.Category, error) { return svc.RemoveSubCategory(ctx, u1, c.ID, "dining") }, []string{"Dining"}},
	}

	for _, step := range steps {
		got, err := step.run()
		if err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		if !reflect.DeepEqual(got.SubCategories, step.want) {
			t.Fatalf("%s: subcategories = %v, want %v", step.name, got.SubCategories, step.want)
		}

		stored, err := svc.Get(ctx, u1, c.ID)
		if err != nil {
			t.Fatalf("%s: get: %v", step.name, err)
		}
		if !reflect.DeepEqual(stored.SubCategories, step.want) {
			t.Fatalf("%s: stored subcategories = %v, want %v", step.name, stored.SubCategories, step.want)
		}
	}
}

func TestCategoryService_AddSubCategoryRejectsEmptyName(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCategoryService()

	c, err := svc.Create(ctx, u1, CategoryInput{Name: ptr("Food")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.AddSubCategory(ctx, u1, c.ID, "   ")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCategoryService_CrossTenant(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCategoryService()

	c, err := svc.Create(ctx, u1, CategoryInput{Name: ptr("Food"), SubCategories: &[]string{"Groceries"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.AddSubCategory(ctx, u2, c.ID, "Stolen"); !errors.Is(err, ErrNotFound) {
		t.Errorf("add: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.RemoveSubCategory(ctx, u2, c.ID, "Groceries"); !errors.Is(err, ErrNotFound) {
		t.Errorf("remove: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Update(ctx, u2, c.ID, CategoryInput{Name: ptr("Mine")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update: expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, u2, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete: expected ErrNotFound, got %v", err)
	}

	list, err := svc.List(ctx, u2, ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("u2 sees %d categories", len(list))
	}

	got, err := svc.Get(ctx, u1, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Food" || !reflect.DeepEqual(got.SubCategories, []string{"Groceries"}) {
		t.Errorf("category changed by another owner: %+v", got)
	}
}

func TestCategoryService_UpdateReplacesSubCategories(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCategoryService()

	c, err := svc.Create(ctx, u1, CategoryInput{Name: ptr("Food"), Type: ptr("expense"), SubCategories: &[]string{"Groceries"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, u1, c.ID, CategoryInput{
		Color:         ptr("#ff0000"),
		SubCategories: &[]string{"A", "B", "A"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Food" || updated.Color != "#ff0000" {
		t.Errorf("unexpected fields %+v", updated)
	}
	if !reflect.DeepEqual(updated.SubCategories, []string{"A", "B"}) {
		t.Errorf("subcategories = %v", updated.SubCategories)
	}
	if updated.OwnerSubject != "u1" {
		t.Errorf("owner changed to %q", updated.OwnerSubject)
	}
}

func TestCategoryService_DeleteTwice(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCategoryService()

	c, err := svc.Create(ctx, u1, CategoryInput{Name: ptr("Food")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, u1, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, u1, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.AddSubCategory(ctx, u1, c.ID, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("add after delete: expected ErrNotFound, got %v", err)
	}
}

func TestCategoryService_ConcurrentDeleteDuringAdd(t *testing.T) {
	ctx := context.Background()
	svc, store := newCategoryService()

	c, err := svc.Create(ctx, u1, CategoryInput{Name: ptr("Food")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	store.BeforeUpdate = func() { store.Remove(c.ID) }

	if _, err := svc.AddSubCategory(ctx, u1, c.ID, "Dining"); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}
