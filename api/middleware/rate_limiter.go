// api/middleware/rate_limiter.go
package middleware

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

var ErrRateLimited = errors.New("too many requests, please wait")

// RateLimiter is a per-IP sliding window limiter. It is opt-in and only
// guards the query endpoint.
type RateLimiter struct {
	requests  map[string][]time.Time
	mutex     sync.Mutex
	limit     int
	window    time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.window)
	if now.Sub(rl.lastSweep) >= rl.window {
		rl.sweep(windowStart)
		rl.lastSweep = now
	}

	// Remove old timestamps outside the window
	filtered := rl.requests[ip][:0]
	for _, t := range rl.requests[ip] {
		if t.After(windowStart) {
			filtered = append(filtered, t)
		}
	}

	if len(filtered) >= rl.limit {
		rl.requests[ip] = filtered
		return false
	}

	rl.requests[ip] = append(filtered, now)
	return true
}

// sweep drops IPs whose newest request is outside the window.
func (rl *RateLimiter) sweep(windowStart time.Time) {
	for ip, times := range rl.requests {
		if len(times) == 0 || !times[len(times)-1].After(windowStart) {
			delete(rl.requests, ip)
		}
	}
}

func getIP(c *gin.Context) string {
	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.ClientIP()
	}
	return ip
}

func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(getIP(c)) {
			_ = c.Error(ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}
