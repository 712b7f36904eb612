package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	ClickUp   ClickUpConfig
	OpenAI    OpenAIConfig
	Sync      SyncConfig
	RateLimit RateLimitConfig
	Worker    WorkerConfig
	App       AppConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	ShutdownGrace  time.Duration
}

type DatabaseConfig struct {
	// DSN wins over the discrete fields when set.
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ClickUpConfig struct {
	BaseURL  string
	APIToken string
	TeamID   string
	Timeout  time.Duration
	// Requests per second allowed against the ClickUp API.
	RateLimit float64
	Burst     int
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// SyncConfig holds the project synchronizer policy knobs.
type SyncConfig struct {
	CacheTTL      time.Duration
	StaleAfter    time.Duration
	BatchSize     int
	BatchCooldown time.Duration
	SampleTasks   int
	PassTimeout   time.Duration
}

// RateLimitConfig is requests per window for each endpoint tier.
type RateLimitConfig struct {
	Window  time.Duration
	AI      int
	ClickUp int
	General int
}

type WorkerConfig struct {
	PruneSchedule string
	WarmSchedule  string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			ShutdownGrace:  getEnvAsDuration("SHUTDOWN_GRACE", 15*time.Second),
		},
		Database: DatabaseConfig{
			DSN:      getEnv("DB_DSN", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "intake"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		ClickUp: ClickUpConfig{
			BaseURL:   getEnv("CLICKUP_BASE_URL", "https://api.clickup.com/api/v2"),
			APIToken:  getEnv("CLICKUP_API_TOKEN", ""),
			TeamID:    getEnv("CLICKUP_TEAM_ID", ""),
			Timeout:   getEnvAsDuration("CLICKUP_TIMEOUT", 10*time.Second),
			RateLimit: getEnvAsFloat("CLICKUP_RATE_LIMIT", 10),
			Burst:     getEnvAsInt("CLICKUP_RATE_BURST", 5),
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			BaseURL: getEnv("OPENAI_BASE_URL", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-4"),
			Timeout: getEnvAsDuration("OPENAI_TIMEOUT", 30*time.Second),
		},
		Sync: SyncConfig{
			CacheTTL:      getEnvAsDuration("SYNC_CACHE_TTL", 5*time.Minute),
			StaleAfter:    getEnvAsDuration("SYNC_STALE_AFTER", 7*24*time.Hour),
			BatchSize:     getEnvAsInt("SYNC_BATCH_SIZE", 3),
			BatchCooldown: getEnvAsDuration("SYNC_BATCH_COOLDOWN", 2*time.Second),
			SampleTasks:   getEnvAsInt("SYNC_SAMPLE_TASKS", 10),
			PassTimeout:   getEnvAsDuration("SYNC_PASS_TIMEOUT", 10*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Window:  getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
			AI:      getEnvAsInt("RATE_LIMIT_AI", 10),
			ClickUp: getEnvAsInt("RATE_LIMIT_CLICKUP", 30),
			General: getEnvAsInt("RATE_LIMIT_GENERAL", 100),
		},
		Worker: WorkerConfig{
			PruneSchedule: getEnv("WORKER_PRUNE_SCHEDULE", "0 0 3 * * *"),
			WarmSchedule:  getEnv("WORKER_WARM_SCHEDULE", "0 */5 * * * *"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.DSN == "" && c.Database.Host == "" {
		return fmt.Errorf("DB_DSN or DB_HOST is required")
	}

	if c.Sync.BatchSize <= 0 {
		return fmt.Errorf("SYNC_BATCH_SIZE must be positive")
	}

	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}

	return nil
}

// IsDevelopment reports whether internal error details may be exposed to clients.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "default", defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		slog.Warn("invalid number in environment, using default", "key", key, "default", defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "default", defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
