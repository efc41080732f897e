//go:build integration

package cache

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/moneymanager/moneymanager/internal/auth"
	"github.com/moneymanager/moneymanager/internal/testutil"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	ctx := context.Background()

	c, err := New(ctx, testutil.RequireEnv(t, "REDIS_URL"))
	if err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return c
}

func TestKeySetCache_GetSet(t *testing.T) {
	ctx := context.Background()
	ks := NewKeySetCache(newTestCache(t), time.Minute)

	got, err := ks.Get(ctx, "missing")
	if err != nil || got != nil {
		t.Fatalf("miss = %v, %v; want nil, nil", got, err)
	}

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	key := &auth.SigningKey{KeyID: "ec-1", Algorithm: "ES256", Key: &priv.PublicKey}
	if err := ks.Set(ctx, key); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err = ks.Get(ctx, "ec-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || !priv.PublicKey.Equal(got.Key) {
		t.Fatalf("unexpected key %+v", got)
	}
}

func TestKeySetCache_SharedAcrossResolvers(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	key := testutil.NewRSAKey(t, "rsa-1")
	srv := testutil.NewKeySetServer(t, key)

	newResolver := func() *auth.Resolver {
		r, err := auth.NewResolver(auth.ResolverConfig{
			URL:   srv.URL,
			Cache: auth.NewChainKeyCache(auth.NewMemoryKeyCache(), NewKeySetCache(c, time.Minute)),
		})
		if err != nil {
			t.Fatalf("new resolver: %v", err)
		}
		return r
	}

	// Two processes with their own memory layer, one shared Redis layer.
	for _, r := range []*auth.Resolver{newResolver(), newResolver()} {
		if _, err := r.ResolveKey(ctx, "rsa-1"); err != nil {
			t.Fatalf("resolve: %v", err)
		}
	}

	if srv.Hits() != 1 {
		t.Errorf("key set fetched %d times, want 1", srv.Hits())
	}
}

func TestSubjectRateLimitConcurrency(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	rpm := 10
	burst := 5
	var allowed, rejected int64

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 3; j++ {
				result, err := c.CheckSubjectRateLimit(ctx, "user-concurrent", rpm, burst)
				if err != nil {
					t.Errorf("CheckSubjectRateLimit error: %v", err)
					return
				}
				if result.Allowed {
					atomic.AddInt64(&allowed, 1)
				} else {
					atomic.AddInt64(&rejected, 1)
				}
			}
		}()
	}
	wg.Wait()

	if allowed > int64(burst+rpm) {
		t.Errorf("too many requests allowed: %d (expected <= %d)", allowed, burst+rpm)
	}
	if rejected == 0 {
		t.Error("expected some requests to be rejected")
	}

	// Another subject has its own bucket.
	result, err := c.CheckSubjectRateLimit(ctx, "user-other", rpm, burst)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Allowed {
		t.Error("other subject should not be limited")
	}
}

func TestSubjectRateLimit_Exhausted(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := c.CheckSubjectRateLimit(ctx, "user-burst", 1, 3)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Allowed {
			t.Fatalf("request %d denied inside burst", i)
		}
		if res.Remaining != int64(2-i) {
			t.Errorf("request %d remaining = %d, want %d", i, res.Remaining, 2-i)
		}
	}

	res, err := c.CheckSubjectRateLimit(ctx, "user-burst", 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed {
		t.Fatal("request past burst allowed")
	}
	if res.RetryAfter < time.Second || res.RetryAfter > time.Minute {
		t.Errorf("retry after = %s, want within a minute", res.RetryAfter)
	}
	if !res.ResetAt.After(time.Now()) {
		t.Errorf("reset at %s is not in the future", res.ResetAt)
	}
}

func TestPing_ReloadsFlushedScript(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	if err := c.Client().ScriptFlush(ctx).Err(); err != nil {
		t.Fatalf("script flush: %v", err)
	}
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	loaded, err := subjectBucketScript.Exists(ctx, c.Client()).Result()
	if err != nil {
		t.Fatalf("script exists: %v", err)
	}
	if len(loaded) != 1 || !loaded[0] {
		t.Errorf("rate limit script not loaded after ping: %v", loaded)
	}
}
