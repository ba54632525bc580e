// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"NEWSLINE_DB_PATH" envDefault:"./data/newsline.db"`
	UploadsDir string `env:"NEWSLINE_UPLOADS_DIR" envDefault:"./uploads"`
	ServerHost string `env:"NEWSLINE_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"NEWSLINE_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"NEWSLINE_ENV" envDefault:"development"`
	LogLevel   string `env:"NEWSLINE_LOG_LEVEL" envDefault:"info"`

	// Auth configuration
	JWTSecret   string `env:"NEWSLINE_JWT_SECRET,required"`
	JWTTTLHours int    `env:"NEWSLINE_JWT_TTL_HOURS" envDefault:"24"`

	// Trash retention in days; trashed news older than this are purged by
	// the scheduled sweep.
	TrashRetentionDays int `env:"NEWSLINE_TRASH_RETENTION_DAYS" envDefault:"30"`

	// CORS configuration
	CORSOrigins []string `env:"NEWSLINE_CORS_ORIGINS" envSeparator:","`

	// Cache configuration
	RedisURL     string `env:"NEWSLINE_REDIS_URL"` // Optional Redis URL for distributed caching
	CacheTTLSecs int    `env:"NEWSLINE_CACHE_TTL" envDefault:"300"`

	// Seeding configuration
	DoSeed bool `env:"NEWSLINE_DO_SEED" envDefault:"false"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// MinJWTSecretLength is the minimum required length for the JWT signing
// secret.
const MinJWTSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("NEWSLINE_JWT_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinJWTSecretLength, len(cfg.JWTSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.JWTSecret == weak {
			return nil, fmt.Errorf("NEWSLINE_JWT_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.JWTSecret) {
		slog.Warn("NEWSLINE_JWT_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if cfg.JWTTTLHours <= 0 {
		return nil, fmt.Errorf("NEWSLINE_JWT_TTL_HOURS must be positive, got %d", cfg.JWTTTLHours)
	}
	if cfg.TrashRetentionDays <= 0 {
		return nil, fmt.Errorf("NEWSLINE_TRASH_RETENTION_DAYS must be positive, got %d", cfg.TrashRetentionDays)
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`") {
		charTypes++
	}
	return charTypes >= 3
}
