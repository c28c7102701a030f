// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/trust-admin/internal/apiclient"
	"github.com/olegiv/trust-admin/internal/render"
	"github.com/olegiv/trust-admin/internal/resource"
)

// flashAndRedirect sets a flash message and redirects to the given URL.
// Uses http.StatusSeeOther (303) for POST/PUT/DELETE redirects.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message, messageType string) {
	renderer.SetFlash(r, message, messageType)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flashError sets an error flash message and redirects to the given URL.
func flashError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, render.FlashError)
}

// flashSuccess sets a success flash message and redirects to the given URL.
func flashSuccess(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, render.FlashSuccess)
}

// logAndHTTPError logs an error and writes an HTTP error response.
func logAndHTTPError(w http.ResponseWriter, logger *slog.Logger, message string, statusCode int, logMsg string, args ...any) {
	logger.Error(logMsg, args...)
	http.Error(w, message, statusCode)
}

// logAndInternalError logs an error and writes a 500 Internal Server Error response.
func logAndInternalError(w http.ResponseWriter, logger *slog.Logger, logMsg string, args ...any) {
	logAndHTTPError(w, logger, "Internal Server Error", http.StatusInternalServerError, logMsg, args...)
}

// renderOrError renders a page and turns a template failure into a 500.
func renderOrError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, logger *slog.Logger, name string, data render.TemplateData) {
	if err := renderer.Render(w, r, name, data); err != nil {
		logAndInternalError(w, logger, "failed to render page", "template", name, "error", err)
	}
}

// backendFailure reports a failed backend call. A 401 has already cleared
// the session, so the user is sent to login; backend messages are shown as
// they are; anything else is logged and shown generically.
func backendFailure(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, logger *slog.Logger, redirectURL, action string, err error) {
	var httpErr *apiclient.HTTPError
	switch {
	case apiclient.IsUnauthorized(err):
		flashError(w, r, renderer, redirectLogin, msgSessionExpired)
	case errors.Is(err, resource.ErrUnsupported):
		flashError(w, r, renderer, redirectURL, action+" is not available here")
	case errors.As(err, &httpErr):
		logger.Warn("backend rejected request", "action", action, "status", httpErr.StatusCode, "message", httpErr.Message)
		flashError(w, r, renderer, redirectURL, action+" failed: "+httpErr.Message)
	default:
		logger.Error("backend request failed", "action", action, "error", err)
		flashError(w, r, renderer, redirectURL, msgGenericError)
	}
}
