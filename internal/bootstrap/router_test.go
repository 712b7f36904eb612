package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/requestdesk/intake-backend/internal/api/http/respond"
	"github.com/requestdesk/intake-backend/internal/classifier"
	"github.com/requestdesk/intake-backend/internal/clickup"
	intakeservice "github.com/requestdesk/intake-backend/internal/intake/service"
	"github.com/requestdesk/intake-backend/internal/projects/repository"
	"github.com/requestdesk/intake-backend/internal/projects/service"
	"github.com/requestdesk/intake-backend/internal/ratelimit"
	workmapservice "github.com/requestdesk/intake-backend/internal/workmap/service"
)

func newTestApp(t *testing.T, limits map[ratelimit.Tier]int) *App {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cu := clickup.New(clickup.Config{})
	llm := classifier.New(classifier.Config{})
	repo := repository.NewProjectRepository(db)

	return &App{
		DB:         db,
		Redis:      rdb,
		ClickUp:    cu,
		Classifier: llm,
		Projects:   repo,
		Sync:       service.NewSynchronizer(cu, repo, llm, service.Options{}),
		Analyzer:   intakeservice.NewAnalyzer(llm),
		WorkMap:    workmapservice.New(cu, workmapservice.Options{}),
		Limiter:    ratelimit.NewLimiter(rdb, time.Minute, limits),
	}
}

func newTestRouter(t *testing.T, limits map[ratelimit.Tier]int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return BuildRouter(RouterDeps{
		ServiceName:    "intake-backend",
		Version:        "test",
		AllowedOrigins: []string{"http://localhost:3000"},
		App:            newTestApp(t, limits),
	})
}

func send(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	r := newTestRouter(t, nil)

	w := send(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sync":"EMPTY"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	w = send(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "intake_projects_sync_duration_seconds")
}

func TestRouter_MethodNotAllowedAndNotFound(t *testing.T) {
	r := newTestRouter(t, nil)

	w := send(r, http.MethodDelete, "/api/v1/projects", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.JSONEq(t, `{"error":"`+respond.MsgNotAllowed+`"}`, w.Body.String())

	w = send(r, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_ClickUpNotConfigured(t *testing.T) {
	r := newTestRouter(t, nil)

	for _, path := range []string{
		"/api/v1/clickup/lists",
		"/api/v1/work-map",
		"/api/v1/clickup/workspaces",
		"/api/v1/clickup/workspace-tasks",
	} {
		w := send(r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
		assert.Contains(t, w.Body.String(), "CLICKUP_API_TOKEN", path)
	}
}

func TestRouter_AITierIsRateLimited(t *testing.T) {
	r := newTestRouter(t, map[ratelimit.Tier]int{ratelimit.TierAI: 1, ratelimit.TierGeneral: 100})
	body := `{"request":{"text":"x"},"project":{"name":"Shop"}}`

	w := send(r, http.MethodPost, "/api/v1/analyze", body)
	assert.Equal(t, http.StatusInternalServerError, w.Code, "no OpenAI key configured")
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = send(r, http.MethodPost, "/api/v1/refine", `{"analysis":{"title":"t"},"feedback":"f","project":{"name":"Shop"}}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	w = send(r, http.MethodPost, "/api/v1/projects/refresh", "")
	assert.Equal(t, http.StatusOK, w.Code, "general tier has its own budget")
}

func TestRouter_CORSPreflight(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/projects", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorsConfig_Wildcard(t *testing.T) {
	cfg := corsConfig([]string{"*"})
	assert.True(t, cfg.AllowAllOrigins)
	assert.False(t, cfg.AllowCredentials)
	assert.Empty(t, cfg.AllowOrigins)
}
