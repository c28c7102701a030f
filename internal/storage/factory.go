// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"database/sql"
	"log/slog"
)

// Config selects a backend. RedisURL wins over DB; with neither, Memory is used.
type Config struct {
	RedisURL string
	Prefix   string
	DB       *sql.DB
}

// New builds the configured Storage. A Redis connection failure falls back
// to the SQL store (or Memory) and is logged, so the dashboard still starts.
func New(cfg Config, logger *slog.Logger) Storage {
	if cfg.RedisURL != "" {
		opts := DefaultRedisOptions()
		opts.URL = cfg.RedisURL
		if cfg.Prefix != "" {
			opts.Prefix = cfg.Prefix
		}
		r, err := NewRedis(opts)
		if err == nil {
			logger.Info("local storage backend", "type", "redis")
			return r
		}
		logger.Warn("redis storage unavailable, falling back", "error", err)
	}

	if cfg.DB != nil {
		logger.Info("local storage backend", "type", "sqlite")
		return NewSQL(cfg.DB)
	}

	logger.Info("local storage backend", "type", "memory")
	return NewMemory()
}
