// Package config provides centralized configuration loaded from environment
// variables. Shared by cmd/api and cmd/expiryctl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// HTTP rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Email transport
	EmailProvider string // smtp, resend, log
	EmailFrom     string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	ResendAPIKey  string

	// Notification dispatch
	SendInterval time.Duration // minimum gap between consecutive sends
	SendTimeout  time.Duration // per-send delivery deadline
	CycleTimeout time.Duration // overall deadline for one orchestration cycle

	// Aggregate snapshot refresh
	OverviewRefreshInterval   time.Duration
	StatisticsRefreshInterval time.Duration
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

		EmailProvider: envOr("EMAIL_PROVIDER", "smtp"),
		EmailFrom:     envOr("EMAIL_FROM", "alerts@talentdesk.example"),
		SMTPHost:      envOr("SMTP_HOST", "localhost"),
		SMTPPort:      envInt("SMTP_PORT", 587),
		SMTPUsername:  envOr("SMTP_USERNAME", ""),
		SMTPPassword:  envOr("SMTP_PASSWORD", ""),
		ResendAPIKey:  envOr("RESEND_API_KEY", ""),

		// Provider caps observed at ~20 req/sec and ~500/day; one send per
		// second keeps a daily full-company cycle comfortably inside both.
		SendInterval: time.Duration(envInt("SEND_INTERVAL_MS", 1000)) * time.Millisecond,
		SendTimeout:  time.Duration(envInt("SEND_TIMEOUT_SECONDS", 10)) * time.Second,
		CycleTimeout: time.Duration(envInt("CYCLE_TIMEOUT_MINUTES", 30)) * time.Minute,

		OverviewRefreshInterval:   time.Duration(envInt("OVERVIEW_REFRESH_MINUTES", 10)) * time.Minute,
		StatisticsRefreshInterval: time.Duration(envInt("STATISTICS_REFRESH_MINUTES", 120)) * time.Minute,
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
