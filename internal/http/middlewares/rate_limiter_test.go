package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Hit(context.Context, string, time.Duration) (int, time.Duration, error) {
	return 0, 0, errors.New("redis: connection refused")
}

func limitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", rl.RateLimiterMiddleware(KeyByIP), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func hit(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = ip + ":40000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	denied := 0
	rl := NewRateLimiter(NewMemoryLimitStore(), "ratelimit:auth:", 3, time.Minute).
		OnDeny(func() { denied++ })
	r := limitedRouter(rl)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, hit(r, "10.0.0.1").Code, "request %d", i+1)
	}

	w := hit(r, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, 1, denied)

	// other clients keep their own budget
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.2").Code)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	r := limitedRouter(NewRateLimiter(failingStore{}, "ratelimit:auth:", 1, time.Minute))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1").Code)
	}
}

func TestRateLimiter_ZeroLimitDisables(t *testing.T) {
	r := limitedRouter(NewRateLimiter(NewMemoryLimitStore(), "ratelimit:auth:", 0, time.Minute))

	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1").Code)
	}
}

func TestMemoryLimitStore_WindowResets(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryLimitStore()
	s.now = func() time.Time { return now }

	ctx := context.Background()

	count, resetIn, err := s.Hit(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, time.Minute, resetIn)

	now = now.Add(30 * time.Second)
	count, resetIn, err = s.Hit(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 30*time.Second, resetIn)

	now = now.Add(31 * time.Second)
	count, _, err = s.Hit(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "a new window starts once the old one has passed")
}

func TestMemoryLimitStore_DropsExpiredBuckets(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryLimitStore()
	s.now = func() time.Time { return now }

	ctx := context.Background()

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		_, _, err := s.Hit(ctx, ip, time.Minute)
		require.NoError(t, err)
	}
	assert.Len(t, s.clients, 3)

	now = now.Add(2 * time.Minute)
	count, _, err := s.Hit(ctx, "10.0.0.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.Len(t, s.clients, 1, "clients from closed windows are forgotten")
	assert.Contains(t, s.clients, "10.0.0.4")
}
