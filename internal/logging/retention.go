// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/trust-admin/internal/store"
)

// DefaultRetentionSchedule runs the prune once a night.
const DefaultRetentionSchedule = "@daily"

// Retention prunes event log rows older than maxAge on a cron schedule.
type Retention struct {
	queries  *store.Queries
	maxAge   time.Duration
	schedule string
	logger   *slog.Logger
	cron     *cron.Cron
	now      func() time.Time
}

// NewRetention creates a pruner. A non-positive maxAge keeps events forever.
func NewRetention(db *sql.DB, maxAge time.Duration, schedule string, logger *slog.Logger) *Retention {
	if schedule == "" {
		schedule = DefaultRetentionSchedule
	}
	return &Retention{
		queries:  store.New(db),
		maxAge:   maxAge,
		schedule: schedule,
		logger:   logger,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start schedules the prune job and runs one prune immediately.
func (r *Retention) Start(ctx context.Context) error {
	if r.maxAge <= 0 {
		r.logger.Info("event log retention disabled")
		return nil
	}
	if _, err := r.cron.AddFunc(r.schedule, func() {
		_, _ = r.Prune(context.Background())
	}); err != nil {
		return fmt.Errorf("scheduling event log retention: %w", err)
	}
	if _, err := r.Prune(ctx); err != nil {
		r.logger.Warn("initial event log prune failed", "category", CategorySystem, "error", err)
	}
	r.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running prune.
func (r *Retention) Stop() {
	<-r.cron.Stop().Done()
}

// Prune deletes events older than maxAge and reports how many were removed.
func (r *Retention) Prune(ctx context.Context) (int64, error) {
	if r.maxAge <= 0 {
		return 0, nil
	}
	n, err := r.queries.DeleteEventsBefore(ctx, r.now().Add(-r.maxAge))
	if err != nil {
		return 0, fmt.Errorf("pruning events: %w", err)
	}
	if n > 0 {
		r.logger.Info("event log pruned", "removed", n, "max_age", r.maxAge)
	}
	return n, nil
}
