package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"persona-profiler/internal/domain"
)

// Check-and-increment atómico: una petición rechazada no suma al contador, igual
// que el limitador en memoria. PEXPIRE en el primer hit; si la clave quedó sin
// TTL se le vuelve a poner. Devuelve {permitido, contador, ttl_ms}.
const redisRateLimitScript = `
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local allowed = 0
if current < tonumber(ARGV[2]) then
  current = redis.call("INCR", KEYS[1])
  allowed = 1
  if current == 1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
  end
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {allowed, current, ttl}
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisRateLimiter struct {
	client  redisEvaler
	limit   int
	window  time.Duration
	prefix  string
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewRedisRateLimiter comparte los contadores entre réplicas. Si redis falla la
// petición pasa (fail-open) y se loguea.
func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) RateLimiter {
	if client == nil {
		return nil
	}
	return newRedisRateLimiter(client, limit, window, logger)
}

func newRedisRateLimiter(client redisEvaler, limit int, window time.Duration, logger *zap.Logger) *redisRateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisRateLimiter{
		client:  client,
		limit:   limit,
		window:  window,
		prefix:  "rl:",
		timeout: 500 * time.Millisecond,
		now:     time.Now,
		logger:  logger,
	}
}

func (l *redisRateLimiter) Allow(ctx context.Context, key string) (domain.RateLimitDecision, error) {
	now := l.now()
	open := domain.RateLimitDecision{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit,
		ResetAt:   now.Add(l.window),
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	vals, err := l.client.Eval(ctx, redisRateLimitScript, []string{l.prefix + key}, l.window.Milliseconds(), l.limit).Int64Slice()
	if err == nil && len(vals) != 3 {
		err = fmt.Errorf("unexpected script result: %v", vals)
	}
	if err != nil {
		l.logger.Warn("rate limiter unavailable, allowing request", zap.String("key", key), zap.Error(err))
		return open, nil
	}

	allowed, count, ttl := vals[0] == 1, int(vals[1]), time.Duration(vals[2])*time.Millisecond
	resetAt := now.Add(ttl)
	if !allowed {
		return domain.RateLimitDecision{
			Allowed:    false,
			Limit:      l.limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: ttl,
		}, nil
	}
	return domain.RateLimitDecision{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - count,
		ResetAt:   resetAt,
	}, nil
}
