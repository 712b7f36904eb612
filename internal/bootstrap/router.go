package bootstrap

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/requestdesk/intake-backend/internal/api/http"
	"github.com/requestdesk/intake-backend/internal/api/http/middleware"
	"github.com/requestdesk/intake-backend/internal/api/http/respond"
	intakehttp "github.com/requestdesk/intake-backend/internal/intake/http"
	"github.com/requestdesk/intake-backend/internal/metrics"
	projectshttp "github.com/requestdesk/intake-backend/internal/projects/http"
	"github.com/requestdesk/intake-backend/internal/ratelimit"
	workmaphttp "github.com/requestdesk/intake-backend/internal/workmap/http"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	App            *App
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(cors.New(corsConfig(dep.AllowedOrigins)))
	r.HandleMethodNotAllowed = true
	r.NoMethod(respond.MethodNotAllowed)
	r.NoRoute(respond.NotFound)

	app := dep.App
	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, app.DB, app.Redis,
		func() string { return app.Sync.State().String() })
	healthHandler.RegisterRoutes(r)
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	general := api.Group("", app.Limiter.Middleware(ratelimit.TierGeneral))
	clickupTier := api.Group("", app.Limiter.Middleware(ratelimit.TierClickUp))
	ai := api.Group("", app.Limiter.Middleware(ratelimit.TierAI))

	projects := projectshttp.New(app.Sync, app.Projects, app.ClickUp, app.Classifier)
	projects.RegisterGeneral(general)
	projects.RegisterClickUp(clickupTier)
	projects.RegisterAI(ai)

	workmaphttp.New(app.WorkMap).Register(clickupTier)
	intakehttp.New(app.Analyzer).Register(ai)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
