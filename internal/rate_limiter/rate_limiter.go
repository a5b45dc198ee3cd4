package rate_limiter

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"evinventory/pkg/security"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a sliding-window counter per key.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// StartCleanup drops idle keys every interval until done is closed.
func (rl *RateLimiter) StartCleanup(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				rl.cleanup()
			}
		}
	}()
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	windowStart := rl.now().Add(-rl.window)
	for key, times := range rl.requests {
		valid := recent(times, windowStart)
		if len(valid) == 0 {
			delete(rl.requests, key)
		} else {
			rl.requests[key] = valid
		}
	}
}

func recent(times []time.Time, windowStart time.Time) []time.Time {
	var valid []time.Time
	for _, t := range times {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}
	return valid
}

func (rl *RateLimiter) IsAllowed(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	valid := recent(rl.requests[key], now.Add(-rl.window))
	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}

	rl.requests[key] = append(valid, now)
	return true
}

func (rl *RateLimiter) GetRemainingRequests(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return rl.limit - len(recent(rl.requests[key], rl.now().Add(-rl.window)))
}

// WriteLimit throttles state-changing requests per authenticated user so a
// runaway client cannot pile up row locks on the same stock rows.
func (rl *RateLimiter) WriteLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		key := c.ClientIP()
		if identity, ok := security.IdentityFromContext(c); ok {
			key = identity.UserID.String()
		}

		if !rl.IsAllowed(key) {
			c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", rl.now().Add(rl.window).Format(time.RFC3339))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many write requests, try again later"})
			return
		}
		c.Next()
	}
}
