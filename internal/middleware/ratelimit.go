package middleware

import (
	"log/slog"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	apierrors "github.com/yukikurage/timecard-api/internal/errors"
	"github.com/yukikurage/timecard-api/internal/ratelimit"
)

// RateLimit limits requests per client IP within scope. Limiter failures let
// the request through.
func RateLimit(limiter ratelimit.Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if err != nil {
			slog.Warn("rate limiter unavailable", "scope", scope, "error", err)
			c.Next()
			return
		}
		if !allowed {
			seconds := math.Ceil(retryAfter.Seconds())
			c.Header("Retry-After", strconv.Itoa(int(seconds)))
			apierrors.TooManyRequests(c, seconds)
			c.Abort()
			return
		}
		c.Next()
	}
}
