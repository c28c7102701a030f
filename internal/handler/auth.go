// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/trust-admin/internal/apiclient"
	"github.com/olegiv/trust-admin/internal/auth"
	"github.com/olegiv/trust-admin/internal/middleware"
	"github.com/olegiv/trust-admin/internal/render"
)

// Authenticator checks credentials against the backend.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*apiclient.LoginResult, error)
}

// AuthHandler handles authentication routes.
type AuthHandler struct {
	authenticator   Authenticator
	session         *auth.Session
	renderer        *render.Renderer
	loginProtection *middleware.LoginProtection
	logger          *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. lp may be nil.
func NewAuthHandler(a Authenticator, session *auth.Session, renderer *render.Renderer, lp *middleware.LoginProtection, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authenticator:   a,
		session:         session,
		renderer:        renderer,
		loginProtection: lp,
		logger:          logger,
	}
}

// LoginData holds data for the login template.
type LoginData struct {
	Email string
}

// LoginForm renders the login page.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	renderOrError(w, r, h.renderer, h.logger, "auth/login", render.TemplateData{
		Title: "Log in",
		Data:  LoginData{Email: r.URL.Query().Get("email")},
	})
}

// Login handles the login form submission. A successful authentication
// establishes the session only for admin roles; any other role is refused
// and storage is left untouched.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, redirectLogin, msgInvalidForm)
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		flashError(w, r, h.renderer, redirectLogin, "Email and password are required")
		return
	}

	clientIP := middleware.ClientIP(r)

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
			h.logger.Warn("login attempt on locked account", "category", "auth", "email", email, "ip", clientIP)
			flashError(w, r, h.renderer, redirectLogin,
				fmt.Sprintf("Account temporarily locked. Try again in %s.", formatDuration(remaining)))
			return
		}
	}

	result, err := h.authenticator.Login(r.Context(), email, password)
	if err != nil {
		h.loginFailed(w, r, email, clientIP, err)
		return
	}

	role := auth.Role(result.Role)
	if !auth.IsAdminRole(role) {
		h.logger.Warn("login refused for non-admin role", "category", "auth", "email", email, "role", result.Role, "ip", clientIP)
		flashError(w, r, h.renderer, redirectLogin, "Access denied. Only administrators can use this dashboard.")
		return
	}

	err = h.session.Login(r.Context(), auth.Grant{
		Token:   result.Token,
		Role:    role,
		TTL:     result.TTL(),
		Profile: result.User,
	})
	if err != nil {
		h.logger.Error("failed to store session", "error", err)
		flashError(w, r, h.renderer, redirectLogin, msgGenericError)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(email)
	}
	h.logger.Info("admin logged in", "email", email, "role", result.Role, "ip", clientIP)
	flashSuccess(w, r, h.renderer, redirectAdmin, "Welcome back!")
}

func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, email, clientIP string, err error) {
	if errors.Is(err, apiclient.ErrBadLoginResponse) {
		h.logger.Error("login response rejected", "category", "auth", "email", email, "error", err)
		flashError(w, r, h.renderer, redirectLogin, "Login failed: the server did not grant a usable session.")
		return
	}

	var httpErr *apiclient.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode >= http.StatusInternalServerError {
		h.logger.Error("login request failed", "error", err)
		flashError(w, r, h.renderer, redirectLogin, "Login is unavailable right now. Please try again later.")
		return
	}

	h.logger.Warn("login failed", "category", "auth", "email", email, "ip", clientIP, "status", httpErr.StatusCode)
	if h.loginProtection != nil {
		if locked, lockDuration := h.loginProtection.RecordFailedAttempt(email); locked {
			flashError(w, r, h.renderer, redirectLogin,
				fmt.Sprintf("Too many failed attempts. Account locked for %s.", formatDuration(lockDuration)))
			return
		}
		if remaining := h.loginProtection.RemainingAttempts(email); remaining > 0 && remaining <= 3 {
			flashError(w, r, h.renderer, redirectLogin,
				fmt.Sprintf("Invalid email or password. %d attempt(s) remaining.", remaining))
			return
		}
	}
	flashError(w, r, h.renderer, redirectLogin, "Invalid email or password")
}

// Logout clears the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Logout(r.Context(), auth.ReasonUser); err != nil {
		h.logger.Error("failed to clear session", "error", err)
		flashError(w, r, h.renderer, redirectAdmin, msgGenericError)
		return
	}
	h.logger.Info("admin logged out")
	flashSuccess(w, r, h.renderer, redirectLogin, "You have been logged out")
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	minutes := int(d.Minutes())
	if minutes == 1 {
		return "1 minute"
	}
	if minutes < 60 {
		return fmt.Sprintf("%d minutes", minutes)
	}
	hours := minutes / 60
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
