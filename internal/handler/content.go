// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/trust-admin/internal/apiclient"
	"github.com/olegiv/trust-admin/internal/render"
	"github.com/olegiv/trust-admin/internal/resource"
	"github.com/olegiv/trust-admin/internal/upload"
)

// ContentHandler serves the list, form and delete pages of every content
// domain. The domain is taken from the {domain} route parameter.
type ContentHandler struct {
	registry       *resource.Registry
	renderer       *render.Renderer
	processor      *upload.Processor
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewContentHandler creates a new ContentHandler. maxUploadBytes caps the
// request body of a save; 0 leaves it unlimited.
func NewContentHandler(registry *resource.Registry, renderer *render.Renderer, processor *upload.Processor, maxUploadBytes int64, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{
		registry:       registry,
		renderer:       renderer,
		processor:      processor,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// ListData holds data for the list template.
type ListData struct {
	Def  resource.Definition
	View resource.View
}

// FormData holds data for the form template.
type FormData struct {
	Def      resource.Definition
	Row      resource.Row
	IsNew    bool
	ReadOnly bool
	Action   string
	Errors   FormErrors
	// View carries the load state of a singleton, shown above the form when
	// the fetch failed. List records leave it empty: a failed save is
	// reported through the flash alone.
	View resource.View
}

// Value returns the field value of the edited record.
func (d FormData) Value(name string) string {
	return d.Row.Value(name)
}

// Register mounts the domain routes on r, which is expected to be the
// /admin router. HTML forms cannot send PUT or DELETE, so both have POST
// equivalents.
func (h *ContentHandler) Register(r chi.Router) {
	r.Get(RouteParamDomain, h.List)
	r.Post(RouteParamDomain, h.Create)
	r.Get(RouteParamDomain+RouteSuffixNew, h.NewForm)
	r.Get(RouteParamDomain+RouteSuffixState, h.State)
	r.Get(RouteDomainID, h.EditForm)
	r.Put(RouteDomainID, h.Update)
	r.Post(RouteDomainID, h.Update)
	r.Delete(RouteDomainID, h.Delete)
	r.Post(RouteDomainID+RouteSuffixDelete, h.Delete)
}

// domain resolves the {domain} parameter, writing a 404 when unknown.
func (h *ContentHandler) domain(w http.ResponseWriter, r *http.Request) (resource.Domain, bool) {
	d, ok := h.registry.Get(chi.URLParam(r, "domain"))
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}
	return d, true
}

// fetch loads d, returning false when the response was already written
// because the backend rejected the session.
func (h *ContentHandler) fetch(w http.ResponseWriter, r *http.Request, d resource.Domain) bool {
	err := d.Fetch(r.Context())
	if err == nil {
		return true
	}
	if apiclient.IsUnauthorized(err) {
		flashError(w, r, h.renderer, redirectLogin, msgSessionExpired)
		return false
	}
	// Other failures are recorded on the slice and shown inline.
	h.logger.Warn("failed to load domain", "domain", d.Definition().Name, "error", err)
	return true
}

// List handles GET /admin/{domain}. Singleton domains go straight to their
// form.
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	d, ok := h.domain(w, r)
	if !ok {
		return
	}
	def := d.Definition()
	if !h.fetch(w, r, d) {
		return
	}

	if def.Kind == resource.KindSingleton {
		row, found := d.Row("")
		h.renderForm(w, r, http.StatusOK, FormData{
			Def:    def,
			Row:    row,
			IsNew:  !found,
			Action: DomainURL(def.Name),
			View:   d.View(),
		})
		return
	}

	renderOrError(w, r, h.renderer, h.logger, "admin/list", render.TemplateData{
		Title:  def.Title,
		Active: def.Name,
		Data:   ListData{Def: def, View: d.View()},
	})
}

// NewForm handles GET /admin/{domain}/new.
func (h *ContentHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	d, ok := h.domain(w, r)
	if !ok {
		return
	}
	def := d.Definition()
	if def.Kind == resource.KindSingleton {
		http.Redirect(w, r, DomainURL(def.Name), http.StatusSeeOther)
		return
	}
	if !def.Allows(resource.OpCreate) {
		flashError(w, r, h.renderer, DomainURL(def.Name), "New "+def.Title+" records cannot be created here")
		return
	}
	h.renderForm(w, r, http.StatusOK, FormData{
		Def:    def,
		IsNew:  true,
		Action: DomainURL(def.Name),
	})
}

// EditForm handles GET /admin/{domain}/{id}. Read-only domains render the
// record without inputs.
func (h *ContentHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	d, ok := h.domain(w, r)
	if !ok {
		return
	}
	def := d.Definition()
	id := chi.URLParam(r, "id")

	row, found := d.Row(id)
	if !found {
		if !h.fetch(w, r, d) {
			return
		}
		row, found = d.Row(id)
	}
	if !found {
		flashError(w, r, h.renderer, DomainURL(def.Name), def.Title+" record not found")
		return
	}

	h.renderForm(w, r, http.StatusOK, FormData{
		Def:      def,
		Row:      row,
		ReadOnly: !def.Allows(resource.OpUpdate),
		Action:   RecordURL(def.Name, id),
	})
}

// Create handles POST /admin/{domain}. For a singleton the stored record's
// id, if any, turns the save into an update.
func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	d, ok := h.domain(w, r)
	if !ok {
		return
	}
	id := ""
	if d.Definition().Kind == resource.KindSingleton {
		if row, found := d.Row(""); found {
			id = row.ID
		}
	}
	h.save(w, r, d, id)
}

// Update handles PUT and POST /admin/{domain}/{id}.
func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	d, ok := h.domain(w, r)
	if !ok {
		return
	}
	h.save(w, r, d, chi.URLParam(r, "id"))
}

func (h *ContentHandler) save(w http.ResponseWriter, r *http.Request, d resource.Domain, id string) {
	def := d.Definition()
	back := DomainURL(def.Name)
	action := back
	if id != "" && def.Kind == resource.KindList {
		back = RecordURL(def.Name, id)
		action = back
	} else if def.Kind == resource.KindList {
		back = back + RouteSuffixNew
	}

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	in, err := parseRecordForm(r, def, h.processor)
	if err != nil {
		h.logger.Warn("failed to parse record form", "domain", def.Name, "error", err)
		flashError(w, r, h.renderer, back, msgInvalidForm)
		return
	}

	if len(in.errors) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, FormData{
			Def:    def,
			Row:    resource.Row{ID: id, Values: in.values, Images: urlsOf(in.payload.Images)},
			IsNew:  id == "",
			Action: action,
			Errors: in.errors,
		})
		return
	}

	if err := d.Save(r.Context(), id, in.payload); err != nil {
		backendFailure(w, r, h.renderer, h.logger, back, "Save", err)
		return
	}

	h.logger.Info("record saved", "domain", def.Name, "id", id)
	flashSuccess(w, r, h.renderer, DomainURL(def.Name), def.Title+" saved")
}

// Delete handles DELETE /admin/{domain}/{id} and POST /admin/{domain}/{id}/delete.
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	d, ok := h.domain(w, r)
	if !ok {
		return
	}
	def := d.Definition()
	id := chi.URLParam(r, "id")

	if err := d.Remove(r.Context(), id); err != nil {
		backendFailure(w, r, h.renderer, h.logger, DomainURL(def.Name), "Delete", err)
		return
	}

	h.logger.Info("record deleted", "domain", def.Name, "id", id)
	flashSuccess(w, r, h.renderer, DomainURL(def.Name), def.Title+" record deleted")
}

// State handles GET /admin/{domain}/state, returning the slice status
// without contacting the backend.
func (h *ContentHandler) State(w http.ResponseWriter, r *http.Request) {
	d, ok := h.registry.Get(chi.URLParam(r, "domain"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, "unknown domain")
		return
	}
	writeJSON(w, http.StatusOK, d.View())
}

func (h *ContentHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, data FormData) {
	title := data.Def.Title
	switch {
	case data.ReadOnly:
	case data.IsNew:
		title = "New " + title
	default:
		title = "Edit " + title
	}
	if data.Errors == nil {
		data.Errors = FormErrors{}
	}

	err := h.renderer.RenderStatus(w, r, status, "admin/form", render.TemplateData{
		Title:  title,
		Active: data.Def.Name,
		Data:   data,
	})
	if err != nil {
		logAndInternalError(w, h.logger, "failed to render form", "domain", data.Def.Name, "error", err)
	}
}

func urlsOf(refs []upload.ImageRef) []string {
	var out []string
	for _, ref := range refs {
		if !ref.IsPending() {
			out = append(out, ref.URL)
		}
	}
	return out
}
