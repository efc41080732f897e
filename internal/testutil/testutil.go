// Package testutil holds helpers shared by package tests: environment gating
// for integration tests, schema setup, fixtures and signing keys.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/moneymanager/moneymanager/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// ledgerLockID keys the advisory lock that serializes database tests across
// packages, which go test runs in parallel.
const ledgerLockID int64 = 0x6c6564676572

// AcquireDBLock holds a session advisory lock on a dedicated connection until
// the returned release func runs.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (release func() error, err error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", ledgerLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("lock: %w", err)
	}

	return func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", ledgerLockID); err != nil {
			return fmt.Errorf("unlock: %w", err)
		}
		return nil
	}, nil
}

// ResetSchema runs every down migration newest first, then every up
// migration oldest first.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	dir := filepath.Join(projectRoot(), "migrations")

	downs, err := filepath.Glob(filepath.Join(dir, "*.down.sql"))
	if err != nil {
		return err
	}
	ups, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return err
	}
	if len(ups) == 0 {
		return fmt.Errorf("no migrations in %s", dir)
	}
	slices.Sort(ups)
	slices.Sort(downs)
	slices.Reverse(downs)

	for _, path := range append(downs, ups...) {
		sql, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

func projectRoot() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

// NewTestTransaction creates an expense owned by owner.
func NewTestTransaction(t testing.TB, owner string) *model.Transaction {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Transaction{
		ID:           ulid.Make().String(),
		OwnerSubject: owner,
		Amount:       decimal.NewFromInt(50),
		Type:         model.TypeExpense,
		Category:     "Food",
		SubCategory:  "Groceries",
		Date:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Description:  "weekly shop",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestCategory creates a category owned by owner.
func NewTestCategory(t testing.TB, owner, name string, subCategories ...string) *model.Category {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	if subCategories == nil {
		subCategories = []string{}
	}
	return &model.Category{
		ID:            ulid.Make().String(),
		OwnerSubject:  owner,
		Name:          name,
		Type:          model.TypeExpense,
		SubCategories: subCategories,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
