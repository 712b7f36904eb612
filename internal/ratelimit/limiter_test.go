package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/requestdesk/intake-backend/internal/api/http/respond"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestAllow_FixedWindow(t *testing.T) {
	client, mr := setupTestRedis(t)
	l := NewLimiter(client, time.Minute, map[Tier]int{TierAI: 2})
	ctx := context.Background()

	r1, err := l.Allow(ctx, TierAI, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, r1.Allowed)
	assert.Equal(t, 1, r1.Remaining)
	assert.Equal(t, time.Minute, r1.ResetIn)

	r2, err := l.Allow(ctx, TierAI, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, r2.Allowed)
	assert.Equal(t, 0, r2.Remaining)

	r3, err := l.Allow(ctx, TierAI, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, r3.Allowed)
	assert.Equal(t, 0, r3.Remaining)

	other, err := l.Allow(ctx, TierAI, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "budgets are per client")

	mr.FastForward(time.Minute + time.Second)
	r4, err := l.Allow(ctx, TierAI, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, r4.Allowed, "window resets after expiry")
}

func TestAllow_TiersAreIndependent(t *testing.T) {
	client, _ := setupTestRedis(t)
	l := NewLimiter(client, time.Minute, map[Tier]int{TierAI: 1, TierGeneral: 5})
	ctx := context.Background()

	_, _ = l.Allow(ctx, TierAI, "ip")
	blocked, err := l.Allow(ctx, TierAI, "ip")
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	ok, err := l.Allow(ctx, TierGeneral, "ip")
	require.NoError(t, err)
	assert.True(t, ok.Allowed)
	assert.Equal(t, 4, ok.Remaining)
}

func TestAllow_UnlimitedTier(t *testing.T) {
	client, mr := setupTestRedis(t)
	l := NewLimiter(client, time.Minute, nil)

	res, err := l.Allow(context.Background(), TierClickUp, "ip")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Empty(t, mr.Keys())
}

func newRouter(l *Limiter, tier Tier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", l.Middleware(tier), func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func hit(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	r.ServeHTTP(w, req)
	return w
}

func TestMiddleware(t *testing.T) {
	client, _ := setupTestRedis(t)
	r := newRouter(NewLimiter(client, time.Minute, map[Tier]int{TierClickUp: 1}), TierClickUp)

	w := hit(r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Reset"))

	w = hit(r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), respond.MsgRateLimited)
}

func TestMiddleware_FailsOpen(t *testing.T) {
	client, mr := setupTestRedis(t)
	r := newRouter(NewLimiter(client, time.Minute, map[Tier]int{TierAI: 1}), TierAI)
	mr.Close()

	for range 3 {
		w := hit(r)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}
