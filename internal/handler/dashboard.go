// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/trust-admin/internal/apiclient"
	"github.com/olegiv/trust-admin/internal/model"
	"github.com/olegiv/trust-admin/internal/render"
	"github.com/olegiv/trust-admin/internal/resource"
)

// DashboardHandler renders the landing page with record counts.
type DashboardHandler struct {
	registry *resource.Registry
	renderer *render.Renderer
	logger   *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(registry *resource.Registry, renderer *render.Renderer, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{registry: registry, renderer: renderer, logger: logger}
}

// DashboardTile is one count on the dashboard, linked to its domain when
// the count's name matches one.
type DashboardTile struct {
	Title string
	Value string
	URL   string
}

// DashboardData holds data for the dashboard template.
type DashboardData struct {
	Tiles  []DashboardTile
	Status resource.Status
	Error  string
}

// Dashboard handles GET /admin.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if _, err := h.registry.Dashboard.Fetch(r.Context()); err != nil {
		if apiclient.IsUnauthorized(err) {
			flashError(w, r, h.renderer, redirectLogin, msgSessionExpired)
			return
		}
		h.logger.Warn("failed to load dashboard counts", "error", err)
	}

	st := h.registry.Dashboard.Snapshot()
	data := DashboardData{Status: st.Status, Error: st.Error}
	if counts, ok := h.registry.Dashboard.Current(); ok {
		data.Tiles = h.tiles(counts)
	}

	renderOrError(w, r, h.renderer, h.logger, "admin/dashboard", render.TemplateData{
		Title:  "Dashboard",
		Active: "dashboard",
		Data:   data,
	})
}

func (h *DashboardHandler) tiles(counts model.DashboardCounts) []DashboardTile {
	sorted := counts.Sorted()
	tiles := make([]DashboardTile, 0, len(sorted))
	for _, c := range sorted {
		tile := DashboardTile{Title: c.Name, Value: c.Value}
		if d, ok := h.registry.Get(c.Name); ok {
			tile.Title = d.Definition().Title
			tile.URL = DomainURL(c.Name)
		}
		tiles = append(tiles, tile)
	}
	return tiles
}
