// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for the admin routes: the
// session guard, CSRF protection, login throttling and security headers.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/trust-admin/internal/auth"
)

// LoginPath is where rejected requests are sent.
const LoginPath = "/login"

// RequireAdmin creates middleware that admits a request only while the
// process session holds a token with an admin role that has not expired.
// The check runs on every request. An expired session is logged out before
// the redirect.
func RequireAdmin(session *auth.Session, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if Allowed(session) {
				next.ServeHTTP(w, r)
				return
			}

			if session.Authenticated() && session.IsExpired() {
				if err := session.Logout(context.WithoutCancel(r.Context()), auth.ReasonExpired); err != nil {
					logger.Error("failed to clear expired session", "error", err)
				}
			}

			logger.Debug("admin route rejected",
				"method", r.Method,
				"path", r.URL.Path,
				"role", session.Role(),
			)
			deny(w, r)
		})
	}
}

// Allowed reports whether session currently grants admin access.
func Allowed(session *auth.Session) bool {
	return session.Token() != "" &&
		auth.IsAdminRole(session.Role()) &&
		!session.IsExpired()
}

// deny redirects browsers to login; fetch and SSE clients get a bare 401.
func deny(w http.ResponseWriter, r *http.Request) {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") || strings.Contains(accept, "text/event-stream") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized","redirect":"` + LoginPath + `"}`))
		return
	}
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

// RedirectIfAuthenticated sends an already admitted session away from the
// login page.
func RedirectIfAuthenticated(session *auth.Session, target string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet && Allowed(session) {
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
