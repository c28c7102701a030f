// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Navigator sends open admin pages to the login view.
type Navigator interface {
	NavigateToLogin(reason string)
}

// Watcher logs the session out once it expires. A cron job polls IsExpired
// on a fixed interval, and a one-shot timer armed at expiresAt on every
// login makes the logout fire no later than expiry.
type Watcher struct {
	session  *Session
	nav      Navigator
	logger   *slog.Logger
	interval time.Duration
	cron     *cron.Cron

	mu          sync.Mutex
	timer       *time.Timer
	unsubscribe func()
}

// NewWatcher creates a watcher. nav may be nil.
func NewWatcher(session *Session, nav Navigator, logger *slog.Logger, interval time.Duration) *Watcher {
	return &Watcher{
		session:  session,
		nav:      nav,
		logger:   logger,
		interval: interval,
		cron:     cron.New(),
	}
}

// Start registers the poll job, subscribes to login events and arms the
// timer for a session restored from storage.
func (w *Watcher) Start() error {
	_, err := w.cron.AddFunc(fmt.Sprintf("@every %s", w.interval), func() {
		w.Check(context.Background())
	})
	if err != nil {
		return fmt.Errorf("scheduling expiry check: %w", err)
	}

	unsubscribe := w.session.Subscribe(func(ev Event) {
		switch ev.Kind {
		case EventLogin:
			w.arm(ev.ExpiresAt)
		case EventLogout:
			w.disarm()
		}
	})

	w.mu.Lock()
	w.unsubscribe = unsubscribe
	w.mu.Unlock()

	if w.session.Authenticated() {
		w.arm(w.session.ExpiresAt())
	}

	w.cron.Start()
	w.logger.Info("expiry watcher started", "interval", w.interval, "jobs", len(w.cron.Entries()))
	return nil
}

// Stop halts polling and the timer and waits for a running check to finish.
func (w *Watcher) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()

	w.mu.Lock()
	if w.unsubscribe != nil {
		w.unsubscribe()
		w.unsubscribe = nil
	}
	w.mu.Unlock()
	w.disarm()

	w.logger.Info("expiry watcher stopped")
}

// Check logs out an expired session and navigates to login. It reports
// whether a logout happened. An empty session is left alone.
func (w *Watcher) Check(ctx context.Context) bool {
	if !w.session.Authenticated() || !w.session.IsExpired() {
		return false
	}

	if err := w.session.Logout(ctx, ReasonExpired); err != nil {
		w.logger.Error("failed to clear expired session", "error", err)
	}
	w.logger.Warn("session token expired", "category", "session")

	if w.nav != nil {
		w.nav.NavigateToLogin(ReasonExpired)
	}
	return true
}

func (w *Watcher) arm(at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if at.IsZero() {
		return
	}

	w.timer = time.AfterFunc(time.Until(at), func() {
		w.Check(context.Background())
	})
}

func (w *Watcher) disarm() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
