package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryRateLimiterRejectsOverLimitAndResets(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	limiter := newMemoryRateLimiter(60, time.Minute, clock.Now)
	ctx := context.Background()

	for i := 1; i <= 60; i++ {
		d, err := limiter.Allow(ctx, "ip:1.2.3.4")
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if !d.Allowed {
			t.Fatalf("call %d should be allowed", i)
		}
		if d.Remaining != 60-i {
			t.Fatalf("call %d: expected remaining %d, got %d", i, 60-i, d.Remaining)
		}
	}

	clock.Advance(10 * time.Second)
	d, _ := limiter.Allow(ctx, "ip:1.2.3.4")
	if d.Allowed {
		t.Fatalf("61st call must be rejected")
	}
	if d.RetryAfter != 50*time.Second {
		t.Fatalf("expected retry after 50s, got %s", d.RetryAfter)
	}
	if !d.ResetAt.Equal(time.Date(2024, 1, 1, 12, 1, 0, 0, time.UTC)) {
		t.Fatalf("unexpected reset at %s", d.ResetAt)
	}

	clock.Advance(50 * time.Second)
	d, _ = limiter.Allow(ctx, "ip:1.2.3.4")
	if !d.Allowed {
		t.Fatalf("call after window should be allowed")
	}
	if d.Remaining != 59 {
		t.Fatalf("expected remaining reset to 59, got %d", d.Remaining)
	}
}

func TestMemoryRateLimiterKeysAreIndependent(t *testing.T) {
	limiter := newMemoryRateLimiter(1, time.Minute, time.Now)
	ctx := context.Background()

	if d, _ := limiter.Allow(ctx, "user:a"); !d.Allowed {
		t.Fatalf("first call for user:a should pass")
	}
	if d, _ := limiter.Allow(ctx, "user:b"); !d.Allowed {
		t.Fatalf("first call for user:b should pass")
	}
	if d, _ := limiter.Allow(ctx, "user:a"); d.Allowed {
		t.Fatalf("second call for user:a should be rejected")
	}
}

func TestMemoryRateLimiterIsAtomicUnderConcurrency(t *testing.T) {
	limiter := NewMemoryRateLimiter(60, time.Minute)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		allowed atomic.Int64
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d, _ := limiter.Allow(ctx, "session:hot"); d.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := allowed.Load(); got != 60 {
		t.Fatalf("expected exactly 60 allowed, got %d", got)
	}
}
