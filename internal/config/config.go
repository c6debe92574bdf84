// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/match.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config struct — populated from environment variables.
type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration
	MigrateOnStart bool

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Routing (commute) API
	RoutingBaseURL   string
	RoutingAPIKey    string
	RoutingPerMinute int
	CommuteCacheTTL  time.Duration

	// Area table
	AreaTablePath string // empty = embedded default

	// Match runs
	MatchInterval time.Duration // 0 disables the periodic runner
	MatchSince    time.Duration // listing snapshot window
	MatchLimit    int           // max listings per run
	MaxPerAlert   int           // 0 = unlimited
	MatchWorkers  int

	// Dispatch
	DispatchInterval  time.Duration
	DispatchBatchSize int

	// SMTP (empty host disables the built-in dispatcher)
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// Retention
	RetentionDays int
	SweepInterval time.Duration // 0 disables the sweep ticker
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,
		MigrateOnStart: envBool("MIGRATE_ON_START", true),

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		RoutingBaseURL:   envOr("ROUTING_API_BASE_URL", "https://maps.googleapis.com"),
		RoutingAPIKey:    envOr("ROUTING_API_KEY", ""),
		RoutingPerMinute: envInt("ROUTING_REQUESTS_PER_MINUTE", 60),
		CommuteCacheTTL:  time.Duration(envInt("COMMUTE_CACHE_TTL_HOURS", 24)) * time.Hour,

		AreaTablePath: envOr("AREA_TABLE_PATH", ""),

		MatchInterval: time.Duration(envInt("MATCH_INTERVAL_MINUTES", 15)) * time.Minute,
		MatchSince:    time.Duration(envInt("MATCH_SINCE_HOURS", 24)) * time.Hour,
		MatchLimit:    envInt("MATCH_LISTING_LIMIT", 1000),
		MaxPerAlert:   envInt("MATCH_MAX_PER_ALERT", 0),
		MatchWorkers:  envInt("MATCH_WORKERS", 1),

		DispatchInterval:  time.Duration(envInt("DISPATCH_INTERVAL_SECONDS", 30)) * time.Second,
		DispatchBatchSize: envInt("DISPATCH_BATCH_SIZE", 100),

		SMTPHost:     envOr("SMTP_HOST", ""),
		SMTPPort:     envInt("SMTP_PORT", 587),
		SMTPUsername: envOr("SMTP_USERNAME", ""),
		SMTPPassword: envOr("SMTP_PASSWORD", ""),
		SMTPFrom:     envOr("SMTP_FROM", "alerts@padwatch.io"),

		RetentionDays: envInt("NOTIFICATION_RETENTION_DAYS", 90),
		SweepInterval: time.Duration(envInt("SWEEP_INTERVAL_MINUTES", 60)) * time.Minute,
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
