package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig tunes the per-client token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig is sized for a small clinic deployment: generous
// enough for a dashboard polling adherence charts, tight enough to blunt
// credential stuffing against /auth/login.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
	}
}

// visitorIdleTTL is how long a client may go quiet before its bucket is
// dropped. A dropped bucket refills to full burst on the next request,
// which is fine at this TTL.
const visitorIdleTTL = 10 * time.Minute

type visitor struct {
	tokens   float64
	lastSeen time.Time
}

// limiter maps client IPs to token buckets. Stale entries are swept lazily
// on access so the map stays bounded without a background goroutine.
type limiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rate      float64
	burst     float64
	nextSweep time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	return &limiter{
		visitors:  make(map[string]*visitor),
		rate:      cfg.RequestsPerSecond,
		burst:     float64(cfg.BurstSize),
		nextSweep: time.Now().Add(visitorIdleTTL),
	}
}

// take spends one token for key. When the bucket is empty it reports the
// whole seconds to wait before a token becomes available.
func (l *limiter) take(key string) (ok bool, retryAfter int) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.nextSweep) {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > visitorIdleTTL {
				delete(l.visitors, k)
			}
		}
		l.nextSweep = now.Add(visitorIdleTTL)
	}

	v, found := l.visitors[key]
	if !found {
		v = &visitor{tokens: l.burst, lastSeen: now}
		l.visitors[key] = v
	} else {
		v.tokens = math.Min(l.burst, v.tokens+now.Sub(v.lastSeen).Seconds()*l.rate)
		v.lastSeen = now
	}

	if v.tokens < 1 {
		if l.rate <= 0 {
			return false, 1
		}
		return false, int(math.Ceil((1 - v.tokens) / l.rate))
	}
	v.tokens--
	return true, 0
}

// RateLimit throttles requests per client IP using a token bucket. Rejected
// requests get a 429 with a Retry-After hint.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	lim := newLimiter(cfg)
	limitHeader := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limitHeader)

			ok, retryAfter := lim.take(c.RealIP())
			if !ok {
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
