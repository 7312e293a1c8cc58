package middleware

import (
	"sync"
	"time"

	"procurement-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	visitors map[string]*visitor
	mtx      sync.Mutex
	rate     rate.Limit
	burst    int
	idleTTL  time.Duration
}

func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
		idleTTL:  3 * time.Minute,
	}
}

func (rl *RateLimiter) getVisitor(ip string, now time.Time) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.evictLocked(now)
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter, now}
		return limiter
	}
	v.lastSeen = now
	return v.limiter
}

// evictLocked drops visitors idle for longer than idleTTL. Caller holds mtx.
func (rl *RateLimiter) evictLocked(now time.Time) {
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idleTTL {
			delete(rl.visitors, ip)
		}
	}
}

// Handler rejects requests over the limit with 429.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rl.getVisitor(c.IP(), time.Now()).Allow() {
			c.Set(fiber.HeaderRetryAfter, "1")
			return response.Error(c, "Rate limit exceeded. Please try again later.", fiber.StatusTooManyRequests, nil)
		}
		return c.Next()
	}
}

// RateLimit builds a per-IP limiter allowing rps requests per second with the given burst.
// rps <= 0 disables limiting.
func RateLimit(rps float64, burst int) fiber.Handler {
	if rps <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	return NewRateLimiter(rate.Limit(rps), burst).Handler()
}
