package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Fixed-window counter: first hit in a window sets the expiry, every hit
// increments, remaining window comes back as PTTL.
var rateLimitScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return { current, ttl }
`)

// RateLimit returns middleware limiting each client IP to limit requests
// per window on the wrapped routes. Redis being unreachable fails open; the
// limiter is an abuse deterrent, not an availability dependency.
func RateLimit(rdb *redis.Client, prefix string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ratelimit:" + prefix + ":" + c.ClientIP()

		vals, err := rateLimitScript.Run(
			c.Request.Context(), rdb,
			[]string{key},
			window.Milliseconds(),
		).Int64Slice()
		if err != nil || len(vals) != 2 {
			c.Next()
			return
		}

		current, ttlMs := vals[0], vals[1]
		remaining := int64(limit) - current
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if current > int64(limit) {
			retryAfter := int(math.Ceil(float64(ttlMs) / 1000.0))
			if retryAfter < 0 {
				retryAfter = 0
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many authentication attempts, please try again later.",
			})
			return
		}

		c.Next()
	}
}
