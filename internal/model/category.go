package model

import (
	"slices"
	"time"
)

// Category groups transactions and owns an ordered list of unique
// sub-category names.
type Category struct {
	ID            string
	OwnerSubject  string
	Name          string
	Type          EntryType
	Color         string
	Icon          string
	SubCategories []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OwnedBy reports whether subject owns the category.
func (c *Category) OwnedBy(subject string) bool {
	return subject != "" && c.OwnerSubject == subject
}

// HasSubCategory reports whether name is already listed.
func (c *Category) HasSubCategory(name string) bool {
	return slices.Contains(c.SubCategories, name)
}

// AddSubCategory appends name unless it is already present.
// It reports whether the list changed.
func (c *Category) AddSubCategory(name string) bool {
	if c.HasSubCategory(name) {
		return false
	}
	c.SubCategories = append(c.SubCategories, name)
	return true
}

// RemoveSubCategory drops every entry equal to name.
// It reports whether the list changed.
func (c *Category) RemoveSubCategory(name string) bool {
	before := len(c.SubCategories)
	c.SubCategories = slices.DeleteFunc(slices.Clone(c.SubCategories), func(s string) bool {
		return s == name
	})
	return len(c.SubCategories) != before
}

// UniqueSubCategories returns names with duplicates removed, keeping the
// first occurrence of each.
func UniqueSubCategories(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
