package repository

import (
	"database/sql"
	"fmt"
	"reflect"
	"slices"
	"testing"
	"time"
)

// valuesRow is a pgx.Row that hands out fixed column values.
type valuesRow []any

func (r valuesRow) Scan(dest ...any) error {
	if len(dest) != len(r) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(r))
	}
	for i, d := range dest {
		if s, ok := d.(sql.Scanner); ok {
			if err := s.Scan(r[i]); err != nil {
				return fmt.Errorf("scan column %d: %w", i, err)
			}
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r[i]))
	}
	return nil
}

func TestScan_NormalizesTimesToUTC(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	date := time.Date(2024, 3, 2, 8, 0, 0, 0, tokyo)
	stamp := time.Date(2024, 3, 2, 9, 30, 0, 0, tokyo)

	tx, err := scanTransaction(valuesRow{
		"01HTX", "user-1", "12.50", "expense", "Food", "", date, "", stamp, stamp,
	})
	if err != nil {
		t.Fatalf("scan transaction: %v", err)
	}
	c, err := scanCategory(valuesRow{
		"01HCAT", "user-1", "Food", "expense", "#fff", "utensils", []byte("{Groceries}"), stamp, stamp,
	})
	if err != nil {
		t.Fatalf("scan category: %v", err)
	}

	times := map[string]time.Time{
		"transaction date":       tx.Date,
		"transaction created_at": tx.CreatedAt,
		"transaction updated_at": tx.UpdatedAt,
		"category created_at":    c.CreatedAt,
		"category updated_at":    c.UpdatedAt,
	}
	for name, got := range times {
		if got.Location() != time.UTC {
			t.Errorf("%s in %s, want UTC", name, got.Location())
		}
	}
	if !tx.Date.Equal(date) {
		t.Errorf("date = %s, want instant %s", tx.Date, date)
	}
	if got := tx.Date.Format("2006-01-02"); got != "2024-03-01" {
		t.Errorf("date renders as %s, want 2024-03-01", got)
	}
	if !slices.Equal(c.SubCategories, []string{"Groceries"}) {
		t.Errorf("subCategories = %v", c.SubCategories)
	}
}
