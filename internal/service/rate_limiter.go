package service

import (
	"context"
	"sync"
	"time"

	"persona-profiler/internal/domain"
)

// RateLimiter hace check-and-increment atómico por clave. Límite y ventana se fijan
// al construir.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (domain.RateLimitDecision, error)
}

const (
	DefaultRateLimit       = 60
	DefaultRateLimitWindow = time.Minute

	// a partir de este tamaño se purgan ventanas vencidas
	sweepThreshold = 4096
)

type rateWindow struct {
	count   int
	resetAt time.Time
}

type memoryRateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	windows map[string]*rateWindow
}

// NewMemoryRateLimiter guarda ventanas fijas por clave en memoria del proceso.
func NewMemoryRateLimiter(limit int, window time.Duration) RateLimiter {
	return newMemoryRateLimiter(limit, window, time.Now)
}

func newMemoryRateLimiter(limit int, window time.Duration, now func() time.Time) *memoryRateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	return &memoryRateLimiter{
		limit:   limit,
		window:  window,
		now:     now,
		windows: make(map[string]*rateWindow),
	}
}

func (l *memoryRateLimiter) Allow(_ context.Context, key string) (domain.RateLimitDecision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.windows) >= sweepThreshold {
		for k, w := range l.windows {
			if !now.Before(w.resetAt) {
				delete(l.windows, k)
			}
		}
	}

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(l.window)}
		l.windows[key] = w
	}

	if w.count >= l.limit {
		return domain.RateLimitDecision{
			Allowed:    false,
			Limit:      l.limit,
			Remaining:  0,
			ResetAt:    w.resetAt,
			RetryAfter: w.resetAt.Sub(now),
		}, nil
	}

	w.count++
	return domain.RateLimitDecision{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - w.count,
		ResetAt:   w.resetAt,
	}, nil
}
