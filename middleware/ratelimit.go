package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter bounds requests per client IP over a sliding window. The
// automation endpoints sit in front of a real browser, so abusive
// clients are cut off before they can monopolize the run slot.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string][]time.Time
	limit   int
	window  time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
	}
	go rl.prune()
	return rl
}

// Limit returns the middleware. A rejected request carries a
// Retry-After header with the seconds until the oldest request ages out
// of the window.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		rl.mu.Lock()
		recent := trimWindow(rl.clients[ip], now.Add(-rl.window))
		if len(recent) >= rl.limit {
			retryAfter := rl.window - now.Sub(recent[0])
			rl.clients[ip] = recent
			rl.mu.Unlock()

			c.Header("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		rl.clients[ip] = append(recent, now)
		rl.mu.Unlock()

		c.Next()
	}
}

// trimWindow drops timestamps older than the cutoff. The slice is
// append-ordered, so the first kept index bounds the rest.
func trimWindow(stamps []time.Time, cutoff time.Time) []time.Time {
	for i, ts := range stamps {
		if ts.After(cutoff) {
			return stamps[i:]
		}
	}
	return nil
}

// prune drops clients that have gone quiet so the map cannot grow
// without bound.
func (rl *RateLimiter) prune() {
	ticker := time.NewTicker(time.Minute)
	for range ticker.C {
		cutoff := time.Now().Add(-2 * rl.window)
		rl.mu.Lock()
		for ip, stamps := range rl.clients {
			if recent := trimWindow(stamps, cutoff); len(recent) == 0 {
				delete(rl.clients, ip)
			} else {
				rl.clients[ip] = recent
			}
		}
		rl.mu.Unlock()
	}
}
