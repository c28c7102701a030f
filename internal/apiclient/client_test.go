// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/trust-admin/internal/auth"
	"github.com/olegiv/trust-admin/internal/storage"
	"github.com/olegiv/trust-admin/internal/testutil"
)

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

func newSession(t *testing.T, st storage.Storage) *auth.Session {
	t.Helper()
	s, err := auth.NewSession(context.Background(), st, testutil.TestLoggerSilent())
	require.NoError(t, err)
	return s
}

func newClient(srv *httptest.Server, s *auth.Session, nav auth.Navigator, delay time.Duration) *Client {
	return New(Options{
		BaseURL:       srv.URL + "/",
		Session:       s,
		Navigator:     nav,
		RedirectDelay: delay,
		UserAgent:     "trustadmin/test",
		Logger:        testutil.TestLoggerSilent(),
	})
}

func TestSend_AttachesBearerToken(t *testing.T) {
	var gotAuth, gotUA, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		gotReqID = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	s := newSession(t, storage.NewMemory())
	require.NoError(t, s.Login(context.Background(), auth.Grant{Token: "abc123", Role: auth.RoleAdmin, TTL: time.Hour}))

	_, err := newClient(srv, s, nil, 0).Get(context.Background(), "/books")
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc123", gotAuth)
	assert.Equal(t, "trustadmin/test", gotUA)
	assert.NotEmpty(t, gotReqID)
}

func TestSend_NoTokenNoHeader(t *testing.T) {
	var hasAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	_, err := newClient(srv, newSession(t, storage.NewMemory()), nil, 0).Get(context.Background(), "/books")
	require.NoError(t, err)
	assert.False(t, hasAuth)
}

func TestSend_RequestOptions(t *testing.T) {
	var gotQuery, gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotHeader = r.Header.Get("Accept-Language")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newClient(srv, newSession(t, storage.NewMemory()), nil, 0)
	_, err := c.Get(context.Background(), "/events",
		WithQuery(url.Values{"year": {"2024"}}),
		WithHeader("Accept-Language", "en"))

	require.NoError(t, err)
	assert.Equal(t, "year=2024", gotQuery)
	assert.Equal(t, "en", gotHeader)
}

func TestSend_UnauthorizedLogsOutAndSchedulesNavigation(t *testing.T) {
	paths := []string{"/books", "/dashboard/counts", "/gallery/7"}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "jwt expired"})
			}))
			defer srv.Close()

			ctx := context.Background()
			st := storage.NewMemory()
			s := newSession(t, st)
			require.NoError(t, s.Login(ctx, auth.Grant{Token: "abc", Role: auth.RoleAdmin, TTL: time.Hour}))
			nav := &recordingNavigator{}

			_, err := newClient(srv, s, nav, 20*time.Millisecond).Get(ctx, path)

			require.Error(t, err)
			assert.True(t, IsUnauthorized(err))
			assert.Equal(t, "jwt expired", Message(err))
			assert.Equal(t, 0, st.Len(), "token, role and expiry cleared from storage")
			assert.False(t, s.Authenticated())
			assert.Equal(t, 0, nav.count(), "navigation is delayed")
			assert.Eventually(t, func() bool { return nav.count() == 1 }, time.Second, 5*time.Millisecond)
		})
	}
}

func TestSend_ErrorPassthrough(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"message field", http.StatusBadRequest, `{"message":"title is required"}`, "title is required"},
		{"error field", http.StatusNotFound, `{"error":"not found"}`, "not found"},
		{"plain text", http.StatusInternalServerError, "upstream exploded", "upstream exploded"},
		{"empty body", http.StatusBadGateway, "", "Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			ctx := context.Background()
			s := newSession(t, storage.NewMemory())
			require.NoError(t, s.Login(ctx, auth.Grant{Token: "abc", Role: auth.RoleAdmin, TTL: time.Hour}))

			_, err := newClient(srv, s, nil, 0).Get(ctx, "/books")

			var httpErr *HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.wantMsg, httpErr.Message)
			assert.Equal(t, tt.body, string(httpErr.Body))
			assert.True(t, s.Authenticated(), "only 401 clears the session")
		})
	}
}

func TestSend_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	c := newClient(srv, nil, nil, 0)
	srv.Close()

	_, err := c.Get(context.Background(), "/books")
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))
}

func TestResponseDecode(t *testing.T) {
	type book struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}

	tests := []struct {
		name string
		body string
		want []book
	}{
		{"bare array", `[{"id":"1","title":"A"}]`, []book{{"1", "A"}}},
		{"data envelope", `{"success":true,"data":[{"id":"2","title":"B"}]}`, []book{{"2", "B"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []book
			require.NoError(t, (&Response{Body: []byte(tt.body)}).Decode(&got))
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("empty body", func(t *testing.T) {
		got := []book{{"keep", "me"}}
		require.NoError(t, (&Response{}).Decode(&got))
		assert.Len(t, got, 1)
	})
}

func TestSend_JSONBody(t *testing.T) {
	var gotCT string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"9"}`))
	}))
	defer srv.Close()

	resp, err := newClient(srv, nil, nil, 0).Send(context.Background(), http.MethodPost, "/socialmedia", JSON(map[string]string{"platform": "x"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, "x", gotBody["platform"])
}

func TestMultipart_Encoding(t *testing.T) {
	var files, urls []string
	var removeSent bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, fh := range r.MultipartForm.File["images"] {
			files = append(files, fh.Filename+":"+fh.Header.Get("Content-Type"))
		}
		urls = r.MultipartForm.Value["images"]
		_, removeSent = r.MultipartForm.Value["removeImages"]
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	body := NewMultipart().
		AddField("title", "Memoir").
		AddFile("images", "a.jpg", "image/jpeg", []byte("jpeg")).
		AddFile("images", "b.png", "image/png", []byte("png")).
		AddField("images", "https://cdn.example.org/c.jpg")

	assert.Equal(t, 2, body.FileCount())
	assert.False(t, body.Has("removeImages"))

	_, err := newClient(srv, nil, nil, 0).Send(context.Background(), http.MethodPost, "/books", body)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jpg:image/jpeg", "b.png:image/png"}, files)
	assert.Equal(t, []string{"https://cdn.example.org/c.jpg"}, urls)
	assert.False(t, removeSent)
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != LoginPath || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["email"] != "admin@x.com" || creds["password"] != "secret1" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"message":"Invalid credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"encryptedToken":"abc123","user_role":"admin","expiresIn":3600,"user":{"name":"Admin"}}`)
	}))
	defer srv.Close()

	c := newClient(srv, nil, nil, 0)

	res, err := c.Login(context.Background(), "admin@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "abc123", res.Token)
	assert.Equal(t, "admin", res.Role)
	assert.Equal(t, time.Hour, res.TTL())
	assert.JSONEq(t, `{"name":"Admin"}`, string(res.User))

	_, err = c.Login(context.Background(), "admin@x.com", "wrong")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	assert.True(t, strings.Contains(Message(err), "Invalid credentials"))
}

func TestLogin_ExpiresIn(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    time.Duration
		wantErr bool
	}{
		{"number", `{"encryptedToken":"t","user_role":"admin","expiresIn":3600}`, time.Hour, false},
		{"numeric string", `{"encryptedToken":"t","user_role":"admin","expiresIn":"3600"}`, time.Hour, false},
		{"fractional", `{"encryptedToken":"t","user_role":"admin","expiresIn":1.5}`, 1500 * time.Millisecond, false},
		{"zero", `{"encryptedToken":"t","user_role":"admin","expiresIn":0}`, 0, true},
		{"negative", `{"encryptedToken":"t","user_role":"admin","expiresIn":"-60"}`, 0, true},
		{"missing", `{"encryptedToken":"t","user_role":"admin"}`, 0, true},
		{"no token", `{"user_role":"admin","expiresIn":3600}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			res, err := newClient(srv, nil, nil, 0).Login(context.Background(), "admin@x.com", "secret1")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrBadLoginResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.TTL())
		})
	}
}
