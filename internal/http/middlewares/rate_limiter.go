package middlewares

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// LimitStore counts hits per key inside a fixed window.
type LimitStore interface {
	// Hit records one hit and returns the count so far in the current window
	// and the time until the window resets.
	Hit(ctx context.Context, key string, window time.Duration) (count int, resetIn time.Duration, err error)
}

type RateLimiter struct {
	store  LimitStore
	window time.Duration
	limit  int
	prefix string
	onDeny func()
}

func NewRateLimiter(store LimitStore, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		store:  store,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// OnDeny registers a hook run for every rejected request.
func (rl *RateLimiter) OnDeny(fn func()) *RateLimiter {
	rl.onDeny = fn
	return rl
}

// RateLimiterMiddleware enforces the limit for a derived key. Store errors
// fail open so a flaky redis never locks admins out.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		count, resetIn, err := rl.store.Hit(c.Request.Context(), rl.prefix+key, rl.window)
		if err != nil {
			slog.Default().WarnContext(c.Request.Context(), "rate limiter store error", "err", err)
			c.Next()
			return
		}

		if count > rl.limit {
			retryAfter := int(resetIn.Seconds())

			if retryAfter < 0 {
				retryAfter = 0
			}

			if rl.onDeny != nil {
				rl.onDeny()
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			abort(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.")
			return
		}

		c.Next()
	}
}

// MemoryLimitStore is the in-process store used when redis is not configured.
type MemoryLimitStore struct {
	mu        sync.Mutex
	now       func() time.Time
	clients   map[string]*clientBucket
	nextSweep time.Time
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewMemoryLimitStore() *MemoryLimitStore {
	return &MemoryLimitStore{
		now:     time.Now,
		clients: make(map[string]*clientBucket),
	}
}

func (s *MemoryLimitStore) Hit(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !now.Before(s.nextSweep) {
		s.sweep(now)
		s.nextSweep = now.Add(window)
	}

	b, ok := s.clients[key]

	if !ok || now.After(b.windowEnd) {
		b = &clientBucket{windowEnd: now.Add(window)}
		s.clients[key] = b
	}

	b.count++
	return b.count, b.windowEnd.Sub(now), nil
}

// sweep drops buckets whose window has closed. Caller holds s.mu.
func (s *MemoryLimitStore) sweep(now time.Time) {
	for key, b := range s.clients {
		if now.After(b.windowEnd) {
			delete(s.clients, key)
		}
	}
}

// helper functions

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
