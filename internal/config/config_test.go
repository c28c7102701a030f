// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-Secret-key-32-bytes-long!!!"

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	os.Clearenv()
	setEnv(t, "TRUSTADMIN_API_BASE_URL", "https://api.example.org/v1/")
	setEnv(t, "TRUSTADMIN_SESSION_SECRET", testSecret)
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.APIBaseURL != "https://api.example.org/v1" {
		t.Errorf("APIBaseURL = %q, want trailing slash trimmed", cfg.APIBaseURL)
	}
	if cfg.DBPath != "./data/trustadmin.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/trustadmin.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.ExpiryCheckInterval != 15*time.Second {
		t.Errorf("ExpiryCheckInterval = %s, want 15s", cfg.ExpiryCheckInterval)
	}
	if cfg.LogoutRedirectDelay() != 1500*time.Millisecond {
		t.Errorf("LogoutRedirectDelay() = %s, want 1.5s", cfg.LogoutRedirectDelay())
	}
	if cfg.APITimeout != time.Minute {
		t.Errorf("APITimeout = %s, want 1m", cfg.APITimeout)
	}
	if cfg.EventRetention != 30*24*time.Hour {
		t.Errorf("EventRetention = %s, want 720h", cfg.EventRetention)
	}
	if cfg.UseRedisStorage() {
		t.Error("UseRedisStorage() = true, want false without TRUSTADMIN_REDIS_URL")
	}
	if cfg.MaxUploadBytes() != 20<<20 {
		t.Errorf("MaxUploadBytes() = %d, want %d", cfg.MaxUploadBytes(), 20<<20)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequired(t)
	setEnv(t, "TRUSTADMIN_DB_PATH", "/custom/path.db")
	setEnv(t, "TRUSTADMIN_SERVER_HOST", "0.0.0.0")
	setEnv(t, "TRUSTADMIN_SERVER_PORT", "3000")
	setEnv(t, "TRUSTADMIN_ENV", "production")
	setEnv(t, "TRUSTADMIN_LOG_LEVEL", "debug")
	setEnv(t, "TRUSTADMIN_REDIS_URL", "redis://localhost:6379/0")
	setEnv(t, "TRUSTADMIN_EXPIRY_CHECK_INTERVAL", "30s")
	setEnv(t, "TRUSTADMIN_LOGOUT_REDIRECT_DELAY_MS", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/custom/path.db")
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "0.0.0.0:3000")
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false")
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want debug", cfg.SlogLevel())
	}
	if !cfg.UseRedisStorage() {
		t.Error("UseRedisStorage() = false, want true")
	}
	if cfg.ExpiryCheckInterval != 30*time.Second {
		t.Errorf("ExpiryCheckInterval = %s, want 30s", cfg.ExpiryCheckInterval)
	}
	if cfg.LogoutRedirectDelay() != 0 {
		t.Errorf("LogoutRedirectDelay() = %s, want 0", cfg.LogoutRedirectDelay())
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"missing api base url", "TRUSTADMIN_API_BASE_URL"},
		{"missing session secret", "TRUSTADMIN_SESSION_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			_ = os.Unsetenv(tt.unset)

			if _, err := Load(); err == nil {
				t.Fatalf("Load() expected error when %s is unset", tt.unset)
			}
		})
	}
}

func TestLoad_InvalidAPIBaseURL(t *testing.T) {
	for _, raw := range []string{"api.example.org", "ftp://api.example.org", "https://"} {
		t.Run(raw, func(t *testing.T) {
			setRequired(t)
			setEnv(t, "TRUSTADMIN_API_BASE_URL", raw)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load() expected error for %q", raw)
			}
			if !strings.Contains(err.Error(), "TRUSTADMIN_API_BASE_URL") {
				t.Errorf("error = %v, want mention of TRUSTADMIN_API_BASE_URL", err)
			}
		})
	}
}

func TestLoad_SessionSecretValidation(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{"too short", "short", true},
		{"known weak", "change-me-to-32-byte-secret-key!", true},
		{"exactly minimum", strings.Repeat("aB1", 11)[:32], false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			setEnv(t, "TRUSTADMIN_SESSION_SECRET", tt.secret)

			_, err := Load()
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ExpiryIntervalTooSmall(t *testing.T) {
	setRequired(t)
	setEnv(t, "TRUSTADMIN_EXPIRY_CHECK_INTERVAL", "100ms")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for sub-second expiry interval")
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"aaaaaaaaaaaaaaaAAAAAAAAAAAAAAAAA", false},
		{"aaaaaaaaaaAAAAAAAAAA1111111111!!", true},
		{testSecret, true},
	}

	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.in); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
