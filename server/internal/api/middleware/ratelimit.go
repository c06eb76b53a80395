package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"converge.io/converge/server/internal/metrics"
)

// RateLimiter implements token bucket rate limiting.
//
// This struct manages rate limiters for different identifiers (client IPs,
// module IDs) with periodic cleanup of idle limiters.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	cleanup  time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a new rate limiter.
//
// Parameters:
//   - rps: Requests per second allowed
//   - burst: Burst size (number of requests that can be made in quick succession)
//   - cleanup: How often to clean up idle limiters (e.g., 1 minute)
//
// Returns:
//   - Configured RateLimiter; call Stop to end its cleanup goroutine
func NewRateLimiter(rps float64, burst int, cleanup time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
		cleanup:  cleanup,
		done:     make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// getLimiter gets or creates a rate limiter for the given identifier.
func (rl *RateLimiter) getLimiter(identifier string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[identifier]
	if !exists {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[identifier] = limiter
	}

	return limiter
}

// cleanupLoop periodically removes limiters whose bucket has refilled.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for identifier, limiter := range rl.limiters {
				if limiter.Tokens() >= float64(rl.burst) {
					delete(rl.limiters, identifier)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Allow reports whether a request from the given identifier may proceed.
func (rl *RateLimiter) Allow(identifier string) bool {
	return rl.getLimiter(identifier).Allow()
}

// Exhausted reports whether the identifier has no tokens left, without
// consuming one.
func (rl *RateLimiter) Exhausted(identifier string) bool {
	return rl.getLimiter(identifier).Tokens() < 1
}

// Len returns the number of tracked identifiers.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// abortRateLimited sends the rate limit error response.
func abortRateLimited(c *gin.Context, limitType string) {
	metrics.RateLimitBlocks.WithLabelValues(limitType).Inc()
	c.Header("Retry-After", "1")
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":      "rate_limit_exceeded",
		"message":    "Rate limit exceeded",
		"request_id": GetRequestID(c),
	})
}

// RateLimitByIP creates middleware that rate limits requests by client IP address.
//
// This provides basic protection against abuse by limiting how many requests
// a single IP can make per second. Use this for public endpoints.
//
// Parameters:
//   - limiter: Shared limiter keyed by client IP
//
// Returns:
//   - Gin middleware handler function
//
// Example:
//
//	limiter := NewRateLimiter(10.0, 20, time.Minute) // 10 req/s, burst of 20
//	defer limiter.Stop()
//	router.Use(RateLimitByIP(limiter))
func RateLimitByIP(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			abortRateLimited(c, "ip")
			return
		}

		c.Next()
	}
}
