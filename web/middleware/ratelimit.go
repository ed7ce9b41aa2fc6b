package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// KeyFunc derives the throttle key for a request. ByClientIP is the
// default; routes that need a narrower scope (e.g. per order) compose
// their own.
type KeyFunc func(c *gin.Context) string

func ByClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// ByClientIPAndParam scopes the window to ip|param so one order cannot
// burn another order's budget from behind the same NAT.
func ByClientIPAndParam(param string) KeyFunc {
	return func(c *gin.Context) string {
		return c.ClientIP() + "|" + c.Param(param)
	}
}

// RateLimiter is a sliding-window counter keyed by caller. State lives
// in-process; the cleanup loop keeps idle keys from accumulating.
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	limit    int
	window   time.Duration

	now func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow records an attempt under key and reports whether it fits in the
// window. Denied attempts are not recorded, so a throttled caller does
// not push its own window forward.
func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	times := rl.requests[key]

	var fresh []time.Time
	for _, t := range times {
		if now.Sub(t) < rl.window {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.requests[key] = fresh
		return false
	}

	rl.requests[key] = append(fresh, now)
	return true
}

func (rl *RateLimiter) Middleware(key KeyFunc) gin.HandlerFunc {
	if key == nil {
		key = ByClientIP
	}
	return func(c *gin.Context) {
		if !rl.Allow(key(c)) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please try later."})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) StartCleanup(interval time.Duration) {
	go func() {
		for {
			time.Sleep(interval)
			rl.mu.Lock()
			now := rl.now()
			for key, times := range rl.requests {
				var fresh []time.Time
				for _, t := range times {
					if now.Sub(t) < rl.window {
						fresh = append(fresh, t)
					}
				}
				if len(fresh) == 0 {
					delete(rl.requests, key)
				} else {
					rl.requests[key] = fresh
				}
			}
			rl.mu.Unlock()
		}
	}()
}
