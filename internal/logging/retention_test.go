// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"testing"
	"time"

	"github.com/olegiv/trust-admin/internal/store"
	"github.com/olegiv/trust-admin/internal/testutil"
)

func TestRetention_Prune(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	q := store.New(db)
	for _, age := range []time.Duration{time.Hour, 40 * 24 * time.Hour, 90 * 24 * time.Hour} {
		if _, err := q.CreateEvent(ctx, store.CreateEventParams{
			Level: LevelWarning, Category: CategoryAPI, Message: "m", Metadata: "{}", CreatedAt: now.Add(-age),
		}); err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
	}

	r := NewRetention(db, 30*24*time.Hour, "", testutil.TestLoggerSilent())
	r.now = func() time.Time { return now }

	n, err := r.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 2 {
		t.Errorf("Prune removed %d rows, want 2", n)
	}
	if got := listEvents(t, db); len(got) != 1 {
		t.Errorf("%d events left, want 1", len(got))
	}
}

func TestRetention_Disabled(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	r := NewRetention(db, 0, "", testutil.TestLoggerSilent())
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()

	if n, err := r.Prune(context.Background()); err != nil || n != 0 {
		t.Errorf("Prune = %d, %v; want 0, nil", n, err)
	}
}

func TestRetention_StartRejectsBadSchedule(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	r := NewRetention(db, time.Hour, "not a schedule", testutil.TestLoggerSilent())
	if err := r.Start(context.Background()); err == nil {
		t.Fatal("Start accepted an invalid schedule")
	}
}
