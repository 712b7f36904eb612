package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "intake:ratelimit:" // intake:ratelimit:{tier}:{client}

// Tier groups endpoints that share one budget.
type Tier string

const (
	TierAI      Tier = "ai"
	TierClickUp Tier = "clickup"
	TierGeneral Tier = "general"
)

// Result describes the state of one client's window after a hit.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// Limiter is a fixed-window request counter kept in Redis so every
// instance of the API shares the same budget.
type Limiter struct {
	client *redis.Client
	window time.Duration
	limits map[Tier]int
}

func NewLimiter(client *redis.Client, window time.Duration, limits map[Tier]int) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{client: client, window: window, limits: limits}
}

// Limit returns the budget for a tier; zero means unlimited.
func (l *Limiter) Limit(tier Tier) int {
	return l.limits[tier]
}

// Allow counts one hit for client in tier.
func (l *Limiter) Allow(ctx context.Context, tier Tier, client string) (Result, error) {
	limit := l.Limit(tier)
	if limit <= 0 {
		return Result{Allowed: true}, nil
	}

	key := keyPrefix + string(tier) + ":" + client

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("failed to count request: %w", err)
	}

	resetIn := ttl.Val()
	if resetIn <= 0 {
		// First hit in the window, or a key that lost its expiry.
		if err := l.client.PExpire(ctx, key, l.window).Err(); err != nil {
			return Result{}, fmt.Errorf("failed to set window expiry: %w", err)
		}
		resetIn = l.window
	}

	count := int(incr.Val())
	return Result{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: max(limit-count, 0),
		ResetIn:   resetIn,
	}, nil
}
