// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/trust-admin/internal/apiclient"
	"github.com/olegiv/trust-admin/internal/auth"
	"github.com/olegiv/trust-admin/internal/render"
	"github.com/olegiv/trust-admin/internal/resource"
	"github.com/olegiv/trust-admin/internal/storage"
	"github.com/olegiv/trust-admin/internal/testutil"
	"github.com/olegiv/trust-admin/web"
)

// testEnv wires a router, a flash session and the process session the way
// the server does, without the middleware stack.
type testEnv struct {
	store    *storage.Memory
	session  *auth.Session
	sm       *scs.SessionManager
	renderer *render.Renderer
	router   chi.Router
	handler  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := storage.NewMemory()
	session, err := auth.NewSession(context.Background(), st, testutil.TestLoggerSilent())
	require.NoError(t, err)

	sm := scs.New()
	var nav []render.NavItem
	for _, def := range []resource.Definition{resource.AboutDef, resource.BooksDef, resource.ContactDef} {
		nav = append(nav, render.NavItem{Name: def.Name, Title: def.Title, Path: DomainURL(def.Name)})
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    web.Templates(),
		SessionManager: sm,
		Session:        session,
		Nav:            nav,
		Version:        "test",
	})
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Get("/_flash", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sm.PopString(r.Context(), "flash")))
	})

	return &testEnv{
		store:    st,
		session:  session,
		sm:       sm,
		renderer: renderer,
		router:   router,
		handler:  sm.LoadAndSave(router),
	}
}

// login establishes an admin session valid for an hour.
func (e *testEnv) login(t *testing.T) {
	t.Helper()
	require.NoError(t, e.session.Login(context.Background(), auth.Grant{
		Token: "tok", Role: auth.RoleAdmin, TTL: time.Hour,
	}))
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// flash returns the flash message set by the response in rec.
func (e *testEnv) flash(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/_flash", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return e.do(req).Body.String()
}

// backend is a fake trust API. Routes are keyed by "METHOD /path".
type backend struct {
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	calls  []string
	srv    *httptest.Server
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{routes: make(map[string]http.HandlerFunc)}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.calls = append(b.calls, key)
		h, ok := b.routes[key]
		b.mu.Unlock()
		if !ok {
			http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) handle(key string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[key] = h
}

func (b *backend) json(key string, status int, body string) {
	b.handle(key, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func (b *backend) called() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

type recordingNavigator struct {
	mu      sync.Mutex
	reasons []string
}

func (n *recordingNavigator) NavigateToLogin(reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reasons = append(n.reasons, reason)
}

func (n *recordingNavigator) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reasons)
}

// asNavigator keeps a nil recorder a nil interface.
func asNavigator(n *recordingNavigator) auth.Navigator {
	if n == nil {
		return nil
	}
	return n
}

// client returns an API client for b bound to the env session.
func (e *testEnv) client(b *backend, nav auth.Navigator) *apiclient.Client {
	return apiclient.New(apiclient.Options{
		BaseURL:       b.srv.URL,
		Session:       e.session,
		Navigator:     nav,
		RedirectDelay: time.Millisecond,
		Logger:        testutil.TestLoggerSilent(),
	})
}
