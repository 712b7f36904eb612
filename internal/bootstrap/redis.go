package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/requestdesk/intake-backend/config"
)

// OpenRedis returns a client even when the first ping fails; the rate
// limiter lets traffic through while Redis is down.
func OpenRedis(ctx context.Context, cfg *config.RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unavailable, rate limiting disabled until it recovers",
			slog.String("addr", cfg.Addr), slog.Any("error", err))
	}
	return client
}
