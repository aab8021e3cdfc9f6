package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware applies a process-wide token bucket to the mutating
// API. The engine serializes per market anyway; this just keeps a noisy
// client from monopolizing the sequencer.
func RateLimitMiddleware(qps float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(qps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": "1s",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
