package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type rateCounter struct {
	count     int
	windowEnd time.Time
}

// RateLimiter is a fixed-window per-client request counter. Clients are
// keyed by API key when present, falling back to the remote IP.
type RateLimiter struct {
	mu        sync.Mutex
	counters  map[string]*rateCounter
	limit     int
	window    time.Duration
	now       func() time.Time
	lastPurge time.Time
}

// NewRateLimiter creates a rate limiter allowing limit requests per minute
func NewRateLimiter(limitPerMinute int) *RateLimiter {
	return &RateLimiter{
		counters: make(map[string]*rateCounter),
		limit:    limitPerMinute,
		window:   time.Minute,
		now:      time.Now,
	}
}

// Allow records one request for key and reports whether it is within the
// window limit, plus how many requests remain
func (rl *RateLimiter) Allow(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	// Counters for clients that stopped sending are dropped at most once
	// per window so the map stays bounded by the set of active clients.
	if now.Sub(rl.lastPurge) >= rl.window {
		for k, c := range rl.counters {
			if now.After(c.windowEnd) {
				delete(rl.counters, k)
			}
		}
		rl.lastPurge = now
	}

	counter, ok := rl.counters[key]
	if !ok || now.After(counter.windowEnd) {
		counter = &rateCounter{windowEnd: now.Add(rl.window)}
		rl.counters[key] = counter
	}

	counter.count++
	if counter.count > rl.limit {
		return false, 0
	}
	return true, rl.limit - counter.count
}

// Middleware enforces the limit, answering 429 with Retry-After when a
// client exceeds it
func (rl *RateLimiter) Middleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(APIKeyHeader)
		if key == "" {
			key = c.Query("key")
		}
		if key == "" {
			key = c.ClientIP()
		}

		allowed, remaining := rl.Allow(key)
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			logger.Warn("Rate limit exceeded", zap.String("path", c.Request.URL.Path))
			c.Header("Retry-After", "60")
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}
