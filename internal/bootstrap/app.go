package bootstrap

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/requestdesk/intake-backend/config"
	"github.com/requestdesk/intake-backend/internal/classifier"
	"github.com/requestdesk/intake-backend/internal/clickup"
	intakeservice "github.com/requestdesk/intake-backend/internal/intake/service"
	"github.com/requestdesk/intake-backend/internal/projects/repository"
	"github.com/requestdesk/intake-backend/internal/projects/service"
	"github.com/requestdesk/intake-backend/internal/ratelimit"
	workmapservice "github.com/requestdesk/intake-backend/internal/workmap/service"
)

// App holds the long-lived components shared by the API and the worker.
type App struct {
	DB         *sql.DB
	Redis      *redis.Client
	ClickUp    *clickup.Client
	Classifier *classifier.Classifier
	Projects   *repository.ProjectRepository
	Sync       *service.Synchronizer
	Analyzer   *intakeservice.Analyzer
	WorkMap    *workmapservice.Service
	Limiter    *ratelimit.Limiter
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := OpenDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	rdb := OpenRedis(ctx, &cfg.Redis)

	cu := clickup.New(clickup.Config{
		BaseURL:   cfg.ClickUp.BaseURL,
		APIToken:  cfg.ClickUp.APIToken,
		TeamID:    cfg.ClickUp.TeamID,
		Timeout:   cfg.ClickUp.Timeout,
		RateLimit: cfg.ClickUp.RateLimit,
		Burst:     cfg.ClickUp.Burst,
	})
	llm := classifier.New(classifier.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.OpenAI.Timeout,
	})

	repo := repository.NewProjectRepository(db, repository.WithStaleAfter(cfg.Sync.StaleAfter))
	sync := service.NewSynchronizer(cu, repo, llm, service.Options{
		CacheTTL:      cfg.Sync.CacheTTL,
		BatchSize:     cfg.Sync.BatchSize,
		BatchCooldown: cfg.Sync.BatchCooldown,
		SampleTasks:   cfg.Sync.SampleTasks,
		PassTimeout:   cfg.Sync.PassTimeout,
	})

	limiter := ratelimit.NewLimiter(rdb, cfg.RateLimit.Window, map[ratelimit.Tier]int{
		ratelimit.TierAI:      cfg.RateLimit.AI,
		ratelimit.TierClickUp: cfg.RateLimit.ClickUp,
		ratelimit.TierGeneral: cfg.RateLimit.General,
	})

	return &App{
		DB:         db,
		Redis:      rdb,
		ClickUp:    cu,
		Classifier: llm,
		Projects:   repo,
		Sync:       sync,
		Analyzer:   intakeservice.NewAnalyzer(llm),
		WorkMap:    workmapservice.New(cu, workmapservice.Options{}),
		Limiter:    limiter,
	}, nil
}

// Close waits for background classification and releases connections.
func (a *App) Close() {
	a.Sync.Wait()
	if err := a.Redis.Close(); err != nil {
		slog.Warn("redis close failed", slog.Any("error", err))
	}
	if err := a.DB.Close(); err != nil {
		slog.Warn("database close failed", slog.Any("error", err))
	}
}
