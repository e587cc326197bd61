package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/backend/internal/config"
	"github.com/taskflow/backend/pkg/response"
	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = 3 * time.Minute
	limiterIdleTTL       = 5 * time.Minute
)

// clientLimiter pairs a token bucket with the client's last request time so
// idle entries can be swept.
type clientLimiter struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a per-client-IP token bucket on the routes it guards.
// Buckets idle longer than limiterIdleTTL are dropped by a background sweep.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	rps     rate.Limit
	burst   int
}

// NewRateLimiter builds a limiter from the configured rate. Zero or negative
// settings fall back to 5 requests per second with a burst of 10.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	rl := &RateLimiter{
		clients: make(map[string]*clientLimiter),
		rps:     rate.Limit(cfg.RPS),
		burst:   cfg.Burst,
	}
	go rl.sweep()
	return rl
}

func (rl *RateLimiter) bucketFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.clients[ip]
	if !exists {
		bucket := rate.NewLimiter(rl.rps, rl.burst)
		rl.clients[ip] = &clientLimiter{bucket: bucket, lastSeen: time.Now()}
		return bucket
	}

	v.lastSeen = time.Now()
	return v.bucket
}

func (rl *RateLimiter) sweep() {
	for {
		time.Sleep(limiterSweepInterval)
		rl.mu.Lock()
		for ip, v := range rl.clients {
			if time.Since(v.lastSeen) > limiterIdleTTL {
				delete(rl.clients, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// Middleware rejects over-limit requests with 429 and the standard envelope.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.bucketFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Body{
				Success: false,
				Message: "too many requests, please try again later",
			})
			return
		}
		c.Next()
	}
}
