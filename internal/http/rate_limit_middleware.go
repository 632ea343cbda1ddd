package http

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"persona-profiler/internal/service"
)

const sessionHeader = "X-Session-Id"

// RateLimitMiddleware aplica el limitador por clave: usuario autenticado, luego
// X-Session-Id y por último la IP del cliente.
func RateLimitMiddleware(limiter service.RateLimiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		key := rateLimitKey(c)
		decision, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("rate limiter error, allowing request", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			retryAfter := int64(math.Ceil(decision.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			h.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			logger.Info("rate limited", zap.String("key", key), zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       service.ErrRateLimited.Error(),
				"code":        http.StatusTooManyRequests,
				"retry_after": retryAfter,
				"reset_at":    decision.ResetAt.Unix(),
			})
			return
		}
		c.Next()
	}
}

func rateLimitKey(c *gin.Context) string {
	if id := callerID(c); id != "" {
		return "user:" + id
	}
	if session := strings.TrimSpace(c.GetHeader(sessionHeader)); session != "" {
		return "session:" + session
	}
	return "ip:" + c.ClientIP()
}
