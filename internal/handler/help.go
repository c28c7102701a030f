// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/olegiv/trust-admin/internal/render"
	"github.com/olegiv/trust-admin/internal/version"
)

// HelpHandler serves the admin help pages rendered from markdown guides.
type HelpHandler struct {
	renderer    *render.Renderer
	docs        fs.FS
	markdown    goldmark.Markdown
	versionInfo version.Info
	apiBaseURL  string
	startTime   time.Time
	logger      *slog.Logger
}

// NewHelpHandler creates a new HelpHandler. docs holds *.md guides at its root.
func NewHelpHandler(renderer *render.Renderer, docs fs.FS, versionInfo version.Info, apiBaseURL string, startTime time.Time, logger *slog.Logger) *HelpHandler {
	return &HelpHandler{
		renderer:    renderer,
		docs:        docs,
		markdown:    goldmark.New(goldmark.WithExtensions(extension.GFM)),
		versionInfo: versionInfo,
		apiBaseURL:  apiBaseURL,
		startTime:   startTime,
		logger:      logger,
	}
}

// HelpGuide is a guide available for viewing.
type HelpGuide struct {
	Slug  string
	Title string
}

// HelpSystemInfo is shown on the help overview.
type HelpSystemInfo struct {
	Version    string
	APIBaseURL string
	GoVersion  string
	Uptime     string
}

// HelpPageData holds data for the help overview.
type HelpPageData struct {
	System HelpSystemInfo
	Guides []HelpGuide
}

// HelpGuideData holds data for the guide viewer page.
type HelpGuideData struct {
	Title   string
	Content template.HTML
}

// Overview handles GET /admin/help.
func (h *HelpHandler) Overview(w http.ResponseWriter, r *http.Request) {
	renderOrError(w, r, h.renderer, h.logger, "admin/help", render.TemplateData{
		Title:  "Help",
		Active: "help",
		Data: HelpPageData{
			System: HelpSystemInfo{
				Version:    h.versionInfo.String(),
				APIBaseURL: h.apiBaseURL,
				GoVersion:  runtime.Version(),
				Uptime:     time.Since(h.startTime).Round(time.Second).String(),
			},
			Guides: h.listGuides(),
		},
	})
}

// Guide handles GET /admin/help/{slug}.
func (h *HelpHandler) Guide(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !isValidGuideSlug(slug) {
		http.NotFound(w, r)
		return
	}

	content, err := fs.ReadFile(h.docs, slug+".md")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := h.markdown.Convert(content, &buf); err != nil {
		logAndInternalError(w, h.logger, "failed to render guide", "slug", slug, "error", err)
		return
	}

	title := slugToTitle(slug)
	renderOrError(w, r, h.renderer, h.logger, "admin/guide", render.TemplateData{
		Title:  title,
		Active: "help",
		Data: HelpGuideData{
			Title:   title,
			Content: template.HTML(buf.String()), //nolint:gosec // embedded markdown shipped with the binary
		},
	})
}

// isValidGuideSlug validates that a slug contains only safe characters.
func isValidGuideSlug(slug string) bool {
	if slug == "" {
		return false
	}
	for _, c := range slug {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_') {
			return false
		}
	}
	return true
}

// slugToTitle converts a filename slug to a human-readable title.
func slugToTitle(slug string) string {
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func (h *HelpHandler) listGuides() []HelpGuide {
	entries, err := fs.ReadDir(h.docs, ".")
	if err != nil {
		return nil
	}

	var guides []HelpGuide
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		slug := strings.TrimSuffix(name, ".md")
		guides = append(guides, HelpGuide{Slug: slug, Title: slugToTitle(slug)})
	}
	sort.Slice(guides, func(i, j int) bool {
		return guides[i].Title < guides[j].Title
	})
	return guides
}
