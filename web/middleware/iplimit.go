package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

var (
	buckets   = make(map[string]*rate.Limiter)
	bucketsMu sync.Mutex
)

func bucketFor(key string, limit rate.Limit, burst int) *rate.Limiter {
	bucketsMu.Lock()
	defer bucketsMu.Unlock()

	limiter, ok := buckets[key]
	if !ok {
		limiter = rate.NewLimiter(limit, burst)
		buckets[key] = limiter
	}
	return limiter
}

// IPThrottle is a coarse per-IP token bucket for credential endpoints
// (login, user creation). Distinct from the UTR sliding window, which
// tracks a rolling count per caller+order.
func IPThrottle(perMinute float64, burst int) gin.HandlerFunc {
	limit := rate.Limit(perMinute / 60)
	return func(c *gin.Context) {
		if !bucketFor(c.ClientIP(), limit, burst).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please try later."})
			c.Abort()
			return
		}
		c.Next()
	}
}
