// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// APIBaseURL is the memorial trust backend every data request goes to.
	APIBaseURL string `env:"TRUSTADMIN_API_BASE_URL,required"`

	SessionSecret string `env:"TRUSTADMIN_SESSION_SECRET,required"`
	DBPath        string `env:"TRUSTADMIN_DB_PATH" envDefault:"./data/trustadmin.db"`
	ServerHost    string `env:"TRUSTADMIN_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"TRUSTADMIN_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"TRUSTADMIN_ENV" envDefault:"development"`
	LogLevel      string `env:"TRUSTADMIN_LOG_LEVEL" envDefault:"info"`

	// Local storage configuration
	RedisURL      string `env:"TRUSTADMIN_REDIS_URL"`                               // Optional Redis URL for session storage
	StoragePrefix string `env:"TRUSTADMIN_STORAGE_PREFIX" envDefault:"trustadmin:"` // Redis key prefix

	// Session guard timings
	ExpiryCheckInterval   time.Duration `env:"TRUSTADMIN_EXPIRY_CHECK_INTERVAL" envDefault:"15s"`
	LogoutRedirectDelayMs int           `env:"TRUSTADMIN_LOGOUT_REDIRECT_DELAY_MS" envDefault:"1500"`

	// Event log rows older than this are pruned nightly; 0 keeps them.
	EventRetention time.Duration `env:"TRUSTADMIN_EVENT_RETENTION" envDefault:"720h"`

	// Backend transport
	APITimeout time.Duration `env:"TRUSTADMIN_API_TIMEOUT" envDefault:"60s"`

	// Upload preparation
	UploadMaxDimension int `env:"TRUSTADMIN_UPLOAD_MAX_DIMENSION" envDefault:"2048"` // 0 disables downscaling
	UploadMaxMB        int `env:"TRUSTADMIN_UPLOAD_MAX_MB" envDefault:"20"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisStorage returns true if Redis is configured as the local storage backend.
func (c Config) UseRedisStorage() bool {
	return c.RedisURL != ""
}

// LogoutRedirectDelay returns the delay between a forced logout and the login redirect.
func (c Config) LogoutRedirectDelay() time.Duration {
	return time.Duration(c.LogoutRedirectDelayMs) * time.Millisecond
}

// MaxUploadBytes returns the upload body limit in bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.UploadMaxMB) << 20
}

// SlogLevel maps the configured log level to a slog.Level.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("TRUSTADMIN_API_BASE_URL must be an absolute http(s) URL, got %q", cfg.APIBaseURL)
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("TRUSTADMIN_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("TRUSTADMIN_SESSION_SECRET is a known default value and must not be used")
		}
	}

	if cfg.ExpiryCheckInterval < time.Second {
		return nil, fmt.Errorf("TRUSTADMIN_EXPIRY_CHECK_INTERVAL must be at least 1s, got %s", cfg.ExpiryCheckInterval)
	}
	if cfg.LogoutRedirectDelayMs < 0 {
		return nil, fmt.Errorf("TRUSTADMIN_LOGOUT_REDIRECT_DELAY_MS must not be negative")
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("TRUSTADMIN_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
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
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
