package membership

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingProvider struct {
	calls  int
	status Status
	err    error
}

func (p *countingProvider) CurrentStatus(context.Context, uint) (Status, error) {
	p.calls++
	return p.status, p.err
}

func TestCachedValidatorDisabledPassesThrough(t *testing.T) {
	next := &countingProvider{status: Status{SubjectID: 42, IsActive: true}}
	c := NewCachedValidator(next, CacheOptions{})

	for i := 0; i < 2; i++ {
		status, err := c.CurrentStatus(context.Background(), 42)
		if err != nil {
			t.Fatalf("current status: %v", err)
		}
		if !status.IsActive {
			t.Fatalf("expected active status, got %+v", status)
		}
	}
	if next.calls != 2 {
		t.Fatalf("expected 2 provider calls, got %d", next.calls)
	}
	if err := c.Invalidate(context.Background(), 42); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
}

func TestCachedValidatorFallsThroughWhenRedisDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	next := &countingProvider{status: Status{SubjectID: 42, IsActive: true, PlanName: "Monthly"}}
	c := NewCachedValidator(next, CacheOptions{Redis: rdb, TTL: time.Minute})

	status, err := c.CurrentStatus(context.Background(), 42)
	if err != nil {
		t.Fatalf("expected redis failure to be tolerated, got %v", err)
	}
	if status.PlanName != "Monthly" || next.calls != 1 {
		t.Fatalf("expected provider result, got %+v after %d calls", status, next.calls)
	}
}

func TestCachedValidatorPropagatesNotFound(t *testing.T) {
	next := &countingProvider{err: ErrNotFound}
	c := NewCachedValidator(next, CacheOptions{})
	if _, err := c.CurrentStatus(context.Background(), 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCacheKey(t *testing.T) {
	if got := cacheKey(42); got != "membership_status:42" {
		t.Fatalf("unexpected cache key %q", got)
	}
}

func TestCachedValidatorServesRepeatLookupsFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	expires := time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)
	next := &countingProvider{status: Status{
		SubjectID:   42,
		SubjectName: "Ana",
		IsActive:    true,
		PlanName:    "Monthly",
		ExpiresOn:   &expires,
		PaymentID:   9,
	}}
	c := NewCachedValidator(next, CacheOptions{Redis: rdb, TTL: time.Minute})
	ctx := context.Background()

	if _, err := c.CurrentStatus(ctx, 42); err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("expected a miss to reach the provider, got %d calls", next.calls)
	}
	if !mr.Exists("membership_status:42") {
		t.Fatal("expected the status to be cached after a miss")
	}
	if ttl := mr.TTL("membership_status:42"); ttl != time.Minute {
		t.Fatalf("expected a one minute ttl, got %s", ttl)
	}

	cached, err := c.CurrentStatus(ctx, 42)
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("expected a hit to skip the provider, got %d calls", next.calls)
	}
	if !cached.IsActive || cached.PlanName != "Monthly" || cached.SubjectName != "Ana" || cached.PaymentID != 9 {
		t.Fatalf("cached status lost fields: %+v", cached)
	}
	if cached.ExpiresOn == nil || !cached.ExpiresOn.Equal(expires) {
		t.Fatalf("expected expiry %s, got %v", expires, cached.ExpiresOn)
	}
	if got := cached.ExpiresOnString(); got != "2026-11-30" {
		t.Fatalf("expected expiry string 2026-11-30, got %q", got)
	}

	if err := c.Invalidate(ctx, 42); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("membership_status:42") {
		t.Fatal("expected invalidate to drop the cached status")
	}
	if _, err := c.CurrentStatus(ctx, 42); err != nil {
		t.Fatalf("lookup after invalidate: %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("expected invalidate to force a provider call, got %d calls", next.calls)
	}

	mr.FastForward(2 * time.Minute)
	if mr.Exists("membership_status:42") {
		t.Fatal("expected the cached status to expire")
	}
}

func TestCachedValidatorDoesNotCacheNotFound(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	next := &countingProvider{err: ErrNotFound}
	c := NewCachedValidator(next, CacheOptions{Redis: rdb, TTL: time.Minute})

	for i := 0; i < 2; i++ {
		if _, err := c.CurrentStatus(context.Background(), 7); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if next.calls != 2 || mr.Exists("membership_status:7") {
		t.Fatalf("expected not-found to stay uncached, got %d calls", next.calls)
	}
}
