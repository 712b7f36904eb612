package ratelimit

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/requestdesk/intake-backend/internal/api/http/respond"
	"github.com/requestdesk/intake-backend/internal/logging"
	"github.com/requestdesk/intake-backend/internal/metrics"
)

// Middleware enforces the tier budget per client IP. Redis failures let
// the request through.
func (l *Limiter) Middleware(tier Tier) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := l.Allow(c.Request.Context(), tier, c.ClientIP())
		if err != nil {
			logging.FromContext(c.Request.Context()).Warn("rate limiter unavailable",
				slog.String("tier", string(tier)),
				slog.Any("error", err),
			)
			c.Next()
			return
		}
		if res.Limit == 0 {
			c.Next()
			return
		}

		resetSec := int(math.Ceil(res.ResetIn.Seconds()))
		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))

		if !res.Allowed {
			metrics.RecordRateLimited(string(tier))
			c.Header("Retry-After", strconv.Itoa(max(resetSec, 1)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": respond.MsgRateLimited})
			return
		}
		c.Next()
	}
}
