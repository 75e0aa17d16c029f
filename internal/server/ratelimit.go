package server

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"tokenbook/internal/api"
)

const sweepEvery = time.Minute

// RateLimiter keeps one token bucket per client key. Buckets idle for longer
// than ttl are swept on a later call.
type RateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	clients   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(rps float64, burst int, ttl time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     rate.Limit(rps),
		burst:     burst,
		ttl:       ttl,
		clients:   map[string]*bucket{},
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Allow reports whether key may proceed. When it may not, wait is how long
// until a token frees up.
func (rl *RateLimiter) Allow(key string) (ok bool, wait time.Duration) {
	now := rl.now()
	lim := rl.bucketFor(key, now)

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}

func (rl *RateLimiter) bucketFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= sweepEvery {
		rl.sweep(now)
	}

	b, ok := rl.clients[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// sweep must be called with mu held.
func (rl *RateLimiter) sweep(now time.Time) {
	for key, b := range rl.clients {
		if now.Sub(b.lastSeen) > rl.ttl {
			delete(rl.clients, key)
		}
	}
	rl.lastSweep = now
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// RateLimitMiddleware limits each client IP to rps requests per second with
// the given burst.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	limiter := NewRateLimiter(rps, burst, 3*time.Minute)

	return func(c *gin.Context) {
		ok, wait := limiter.Allow(c.ClientIP())
		if ok {
			c.Next()
			return
		}

		if wait > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, api.ErrorResponse{
			Success: false,
			Code:    "RATE_LIMITED",
			Message: "Too many requests",
		})
	}
}
