package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter implements a token-bucket limiter keyed per client. Telegram
// delivers webhooks from a small set of addresses, so the per-key map stays
// tiny in practice, but the limiter still protects against arbitrary POST
// floods from elsewhere.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	ttl      time.Duration
	lookups  int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter constructs a limiter allowing rps requests per second with
// the given burst per key. rps <= 0 disables limiting entirely.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		ttl:      10 * time.Minute,
	}
}

// KeyByIP keys the bucket on the client IP as Gin resolves it.
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// Handler returns the Gin middleware. Over-limit requests get a JSON 429
// with a Retry-After hint.
func (rl *RateLimiter) Handler(keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rps <= 0 {
			c.Next()
			return
		}
		if !rl.allow(keyFunc(c)) {
			rid, _ := c.Get(requestIDKey)
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"request_id": asString(rid),
				"code":       "rate_limited",
				"message":    "too many requests",
			})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = time.Now()

	// Amortized eviction of stale keys.
	rl.lookups++
	if rl.lookups >= 5000 {
		rl.lookups = 0
		cutoff := time.Now().Add(-rl.ttl)
		for k, vv := range rl.visitors {
			if vv.lastSeen.Before(cutoff) {
				delete(rl.visitors, k)
			}
		}
	}

	return v.limiter.Allow()
}
