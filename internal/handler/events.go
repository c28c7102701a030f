// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/olegiv/trust-admin/internal/logging"
	"github.com/olegiv/trust-admin/internal/render"
	"github.com/olegiv/trust-admin/internal/store"
)

// EventsPerPage is the number of events to display per page.
const EventsPerPage = 25

// detailsLengthThreshold is the max chars before details are collapsible
const detailsLengthThreshold = 80

// eventLevels are the levels the filter offers.
var eventLevels = []string{logging.LevelInfo, logging.LevelWarning, logging.LevelError}

// EventsHandler handles the diagnostic event log.
type EventsHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	logger   *slog.Logger
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(db *sql.DB, renderer *render.Renderer, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		queries:  store.New(db),
		renderer: renderer,
		logger:   logger,
	}
}

// EventRow is an event prepared for display.
type EventRow struct {
	store.Event
	Details     string // Formatted metadata as readable text
	DetailsLong bool
}

// EventsListData holds data for the events list template.
type EventsListData struct {
	Events      []EventRow
	TotalEvents int64
	Level       string
	Levels      []string
	Pagination  Pagination
}

// List handles GET /admin/event-log - displays a paginated list of events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	level := r.URL.Query().Get("level")
	if !slices.Contains(eventLevels, level) {
		level = ""
	}

	total, err := h.queries.CountEvents(r.Context(), level)
	if err != nil {
		logAndInternalError(w, h.logger, "failed to count events", "error", err)
		return
	}

	page, _ := normalizePage(parsePageParam(r), int(total), EventsPerPage)
	events, err := h.queries.ListEvents(r.Context(), store.ListEventsParams{
		Level:  level,
		Limit:  EventsPerPage,
		Offset: int64((page - 1) * EventsPerPage),
	})
	if err != nil {
		logAndInternalError(w, h.logger, "failed to list events", "error", err)
		return
	}

	rows := make([]EventRow, 0, len(events))
	for _, e := range events {
		details := formatMetadata(e.Metadata)
		rows = append(rows, EventRow{
			Event:       e,
			Details:     details,
			DetailsLong: len(details) > detailsLengthThreshold,
		})
	}

	renderOrError(w, r, h.renderer, h.logger, "admin/events", render.TemplateData{
		Title:  "Event log",
		Active: "event-log",
		Data: EventsListData{
			Events:      rows,
			TotalEvents: total,
			Level:       level,
			Levels:      eventLevels,
			Pagination:  buildPagination(page, int(total), EventsPerPage, redirectAdminEventLog, r.URL.Query()),
		},
	})
}

// formatMetadata converts JSON metadata to readable text format.
// Example: {"path":"/books","error":"not found"} -> "error: not found, path: /books"
func formatMetadata(metadata string) string {
	if metadata == "" || metadata == "{}" {
		return ""
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(metadata), &data); err != nil {
		return metadata
	}
	if len(data) == 0 {
		return ""
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		var value string
		switch v := data[key].(type) {
		case string:
			value = v
		case float64:
			value = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			value = strconv.FormatBool(v)
		default:
			if b, err := json.Marshal(v); err == nil {
				value = string(b)
			}
		}
		parts = append(parts, key+": "+value)
	}
	return strings.Join(parts, ", ")
}
