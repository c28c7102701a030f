// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/olegiv/trust-admin/internal/store"
)

// SQL stores keys in the local_storage table of the application database.
type SQL struct {
	queries *store.Queries
}

// NewSQL returns a SQL store over a migrated database. The caller owns db.
func NewSQL(db *sql.DB) *SQL {
	return &SQL{queries: store.New(db)}
}

func (s *SQL) Get(ctx context.Context, key string) (string, error) {
	v, err := s.queries.GetLocal(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return v, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	if err := s.queries.SetLocal(ctx, key, value); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	if err := s.queries.DeleteLocal(ctx, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Close is a no-op; the database is closed by its owner.
func (s *SQL) Close() error {
	return nil
}
