package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	obsmetrics "github.com/keiridesk/keiridesk/internal/observability/metrics"
)

// GinMiddleware limits mutation requests per client IP. With no redis client
// configured the middleware is a no-op.
func GinMiddleware(bucket *TokenBucket, metrics *obsmetrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if bucket == nil {
			c.Next()
			return
		}

		if !bucket.Allow(c.Request.Context(), c.ClientIP()) {
			metrics.RecordRateLimitDenied(c.Request.Context(), c.FullPath())
			c.Header("Retry-After", strconv.Itoa(int(bucket.WaitTime().Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"type":    "rate_limited",
					"message": "too many requests",
				},
			})
			return
		}
		c.Next()
	}
}
