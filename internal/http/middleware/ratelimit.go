// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file throttles the unauthenticated read API with per-IP token
// buckets. The limiter is process-local; a single instance is plenty for
// one SQLite-backed process, and it exists to stop a single client from
// hammering the explanation endpoint, not to enforce quotas.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc derives the bucket identity for a request.
type keyFunc func(*gin.Context) string

// KeyByIP buckets requests by client IP. The prefix leaves room for other
// key namespaces, e.g. per-token buckets if the API ever grows auth.
func KeyByIP() keyFunc {
	return func(c *gin.Context) string { return "ip:" + c.ClientIP() }
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out per-key token buckets and evicts idle ones so the
// map stays bounded. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc

	mu      sync.Mutex
	buckets map[string]*bucket
	idleTTL time.Duration
	lookups int
}

// Eviction is amortized: every sweepEvery lookups, buckets idle longer
// than idleTTL are dropped.
const sweepEvery = 4096

// NewRateLimiter builds a limiter replenishing rps tokens per second with
// the given burst. A burst below 1 is raised to 1 so a fresh bucket can
// always serve one request.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		buckets: make(map[string]*bucket),
		idleTTL: 10 * time.Minute,
	}
}

func (rl *RateLimiter) bucketFor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Sweep before the touch so a stale bucket for this very key is
	// replaced rather than refreshed.
	rl.lookups++
	if rl.lookups >= sweepEvery {
		rl.lookups = 0
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.rps, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim
}

// Handler rejects over-limit requests with 429 and the API's standard
// error envelope.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.bucketFor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}
