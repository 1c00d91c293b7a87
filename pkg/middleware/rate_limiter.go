package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"health-concierge/backend/pkg/config"
	"health-concierge/backend/pkg/logger"
)

// client tracks the limiter and last-seen time for a single remote address
type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per remote address using a token bucket.
// Stale entries are purged in the background so the map stays bounded.
type RateLimiter struct {
	clients map[string]*client
	mu      sync.Mutex
	rate    rate.Limit
	burst   int
}

// NewRateLimiter creates a rate limiter from the security settings
func NewRateLimiter() *RateLimiter {
	cfg := config.Get()
	rl := &RateLimiter{
		clients: make(map[string]*client),
		rate:    rate.Limit(cfg.Security.RateLimit),
		burst:   cfg.Security.RateLimitBurst,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		for addr, c := range rl.clients {
			if time.Since(c.lastSeen) > 3*time.Minute {
				delete(rl.clients, addr)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimiter) limiterFor(addr string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[addr]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[addr] = c
	}
	c.lastSeen = time.Now()
	return c.limiter
}

// Middleware returns the gin handler enforcing the limit
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		addr := c.ClientIP()
		if !rl.limiterFor(addr).Allow() {
			logger.FromContext(c).Warn("rate limit exceeded", "client_ip", addr, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMITED",
					"message": "too many requests, slow down",
				},
			})
			return
		}
		c.Next()
	}
}

// BodySizeLimit rejects request bodies larger than the configured maximum
func BodySizeLimit() gin.HandlerFunc {
	maxBytes := config.Get().Security.MaxBodySize
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
