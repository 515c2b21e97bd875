package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/behaviorsense/encoderd/pkg/ratelimiter"
)

// RateLimitConfig configures the rate limit middleware.
type RateLimitConfig struct {
	// KeyFunc derives the bucket key from the request. Defaults to the
	// client IP.
	KeyFunc func(c *gin.Context) string

	// SkipPaths are request paths exempt from rate limiting.
	SkipPaths []string
}

// RateLimit enforces a token bucket per client IP. Rejected requests get
// 429 with Retry-After and X-RateLimit headers; limiter storage failures
// let the request through rather than blocking traffic.
func RateLimit(limiter *ratelimiter.Bucket) gin.HandlerFunc {
	return RateLimitWithConfig(limiter, RateLimitConfig{SkipPaths: []string{"/health"}})
}

// RateLimitWithConfig creates a rate limit middleware with custom
// configuration.
func RateLimitWithConfig(limiter *ratelimiter.Bucket, cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string {
			return c.ClientIP()
		}
	}

	return func(c *gin.Context) {
		for _, path := range cfg.SkipPaths {
			if c.Request.URL.Path == path {
				c.Next()
				return
			}
		}

		result, err := limiter.Allow(c.Request.Context(), cfg.KeyFunc(c))
		if err != nil {
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(result.Remaining, 0)))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed() {
			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter().Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":  "too many requests",
				"status": "rate_limit_exceeded",
			})
			return
		}
		c.Next()
	}
}
