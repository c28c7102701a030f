// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the browser session. It carries one-shot
// flash messages between a redirect and the page that follows it; the
// backend token never enters it.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Cookie names. The __Host- prefix requires Secure, so it is production only.
const (
	CookieNameProduction  = "__Host-trustadmin"
	CookieNameDevelopment = "trustadmin_session"
)

// Lifetime bounds a browser session.
const Lifetime = 12 * time.Hour

// New creates a session manager backed by the sessions table in db.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)

	sm.Lifetime = Lifetime
	sm.IdleTimeout = 2 * time.Hour
	sm.Cookie.Path = "/"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev
	if isDev {
		sm.Cookie.Name = CookieNameDevelopment
	} else {
		sm.Cookie.Name = CookieNameProduction
	}
	return sm
}
