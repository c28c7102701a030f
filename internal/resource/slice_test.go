// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package resource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/trust-admin/internal/apiclient"
	"github.com/olegiv/trust-admin/internal/model"
	"github.com/olegiv/trust-admin/internal/testutil"
	"github.com/olegiv/trust-admin/internal/upload"
)

type call struct {
	method string
	path   string
	body   apiclient.Body
}

// fakeSender answers every request through handler and records the calls.
type fakeSender struct {
	mu      sync.Mutex
	calls   []call
	handler func(method, path string) (*apiclient.Response, error)
}

func (f *fakeSender) Send(_ context.Context, method, path string, body apiclient.Body, _ ...apiclient.RequestOption) (*apiclient.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{method, path, body})
	h := f.handler
	f.mu.Unlock()
	return h(method, path)
}

func (f *fakeSender) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func ok(body string) *apiclient.Response {
	return &apiclient.Response{StatusCode: http.StatusOK, Body: []byte(body)}
}

func respond(body string) func(string, string) (*apiclient.Response, error) {
	return func(string, string) (*apiclient.Response, error) { return ok(body), nil }
}

func fail(status int, msg string) func(string, string) (*apiclient.Response, error) {
	return func(string, string) (*apiclient.Response, error) {
		return nil, &apiclient.HTTPError{StatusCode: status, Message: msg}
	}
}

func newBooks(f *fakeSender) *Slice[model.Book] {
	return NewSlice[model.Book](BooksDef, f, testutil.TestLoggerSilent())
}

func TestFetch_Transitions(t *testing.T) {
	var during Status
	f := &fakeSender{}
	s := newBooks(f)
	f.handler = func(string, string) (*apiclient.Response, error) {
		during = s.Snapshot().Status
		return ok(`[{"id":1,"title":"Memoir"},{"id":"2","title":"Letters"}]`), nil
	}

	assert.Equal(t, StatusIdle, s.Snapshot().Status)

	items, err := s.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusLoading, during)
	st := s.Snapshot()
	assert.Equal(t, StatusSucceeded, st.Status)
	assert.Empty(t, st.Error)
	require.Len(t, items, 2)
	assert.Equal(t, model.ID("1"), items[0].ID)
	assert.NotNil(t, items[0].Images, "normalized")
	assert.Equal(t, http.MethodGet, f.last().method)
	assert.Equal(t, "/books", f.last().path)
}

func TestFetch_FailureKeepsItems(t *testing.T) {
	f := &fakeSender{handler: respond(`[{"id":"1","title":"A"}]`)}
	s := newBooks(f)
	_, err := s.Fetch(context.Background())
	require.NoError(t, err)

	f.handler = fail(http.StatusInternalServerError, "database offline")
	_, err = s.Fetch(context.Background())
	require.Error(t, err)

	st := s.Snapshot()
	assert.Equal(t, StatusFailed, st.Status)
	assert.Equal(t, "database offline", st.Error)
	assert.Len(t, st.Items, 1)

	f.handler = respond(`[]`)
	_, err = s.Fetch(context.Background())
	require.NoError(t, err)
	st = s.Snapshot()
	assert.Equal(t, StatusSucceeded, st.Status, "failed re-enters loading and can succeed")
	assert.Empty(t, st.Error)
	assert.Empty(t, st.Items)
}

func TestFetch_EmptyListView(t *testing.T) {
	f := &fakeSender{handler: respond(`{"data":[]}`)}
	d := AsDomain(newBooks(f))

	require.NoError(t, d.Fetch(context.Background()))
	v := d.View()
	assert.True(t, v.Empty())
	assert.Equal(t, 0, v.Count)
}

func TestFetch_SingletonObject(t *testing.T) {
	f := &fakeSender{handler: respond(`{"data":{"id":"a1","title":"Life","content":"<p>x</p>"}}`)}
	s := NewSlice[model.About](AboutDef, f, testutil.TestLoggerSilent())

	_, err := s.Fetch(context.Background())
	require.NoError(t, err)

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "Life", cur.Title)
	assert.Equal(t, model.URLs{}, cur.Images)
}

func TestFetch_SingleQRCodeString(t *testing.T) {
	f := &fakeSender{handler: respond(`{"data":{"id":"d1","bankName":"Trust Bank","qrCode":"https://cdn/qr.png"}}`)}
	d := AsDomain(NewSlice[model.Donation](DonationDef, f, testutil.TestLoggerSilent()))

	require.NoError(t, d.Fetch(context.Background()))
	assert.Equal(t, StatusSucceeded, d.View().Status)

	row, ok := d.Row("")
	require.True(t, ok)
	assert.Equal(t, "Trust Bank", row.Value("bankName"))
	assert.Equal(t, []string{"https://cdn/qr.png"}, row.Images)
}

func TestSave_CreateAndUpdate(t *testing.T) {
	tests := []struct {
		name       string
		id         model.ID
		wantMethod string
		wantPath   string
	}{
		{"create without id", "", http.MethodPost, "/books"},
		{"update with id", "7", http.MethodPut, "/books/7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeSender{handler: respond(`{"id":"7","title":"Saved"}`)}
			s := newBooks(f)

			rec, err := s.Save(context.Background(), tt.id, Payload{Fields: map[string]string{"title": "Saved"}})
			require.NoError(t, err)

			assert.Equal(t, tt.wantMethod, f.last().method)
			assert.Equal(t, tt.wantPath, f.last().path)
			assert.Equal(t, "Saved", rec.Title)
			st := s.Snapshot()
			assert.Equal(t, StatusSucceeded, st.Status)
			assert.Len(t, st.Items, 1)
		})
	}
}

func TestSave_UpsertReplacesExisting(t *testing.T) {
	f := &fakeSender{handler: respond(`[{"id":"1","title":"Old"},{"id":"2","title":"Other"}]`)}
	s := newBooks(f)
	_, err := s.Fetch(context.Background())
	require.NoError(t, err)

	f.handler = respond(`{"data":{"id":"1","title":"New"}}`)
	_, err = s.Save(context.Background(), "1", Payload{})
	require.NoError(t, err)

	st := s.Snapshot()
	require.Len(t, st.Items, 2)
	assert.Equal(t, "New", st.Items[0].Title)
	assert.Equal(t, "Other", st.Items[1].Title)
}

func TestSave_FailureDoesNotMutate(t *testing.T) {
	f := &fakeSender{handler: respond(`[{"id":"1","title":"Old"}]`)}
	s := newBooks(f)
	_, err := s.Fetch(context.Background())
	require.NoError(t, err)

	f.handler = fail(http.StatusUnprocessableEntity, "title is required")
	_, err = s.Save(context.Background(), "1", Payload{})
	require.Error(t, err)

	st := s.Snapshot()
	assert.Equal(t, StatusFailed, st.Status)
	assert.Equal(t, "title is required", st.Error)
	require.Len(t, st.Items, 1)
	assert.Equal(t, "Old", st.Items[0].Title)
}

func TestSave_MessageOnlyResponse(t *testing.T) {
	f := &fakeSender{handler: respond(`[{"id":"1","title":"Old"}]`)}
	s := newBooks(f)
	_, err := s.Fetch(context.Background())
	require.NoError(t, err)

	f.handler = respond(`{"message":"Book updated"}`)
	_, err = s.Save(context.Background(), "1", Payload{})
	require.NoError(t, err)

	st := s.Snapshot()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "Old", st.Items[0].Title, "record without id is not upserted")
}

func TestRemove_PrunesExactlyOne(t *testing.T) {
	f := &fakeSender{handler: respond(`[{"id":"1"},{"id":"2"},{"id":"3"}]`)}
	s := newBooks(f)
	_, err := s.Fetch(context.Background())
	require.NoError(t, err)

	f.handler = respond(``)
	id, err := s.Remove(context.Background(), "2")
	require.NoError(t, err)

	assert.Equal(t, model.ID("2"), id)
	assert.Equal(t, http.MethodDelete, f.last().method)
	assert.Equal(t, "/books/2", f.last().path)

	var ids []model.ID
	for _, it := range s.Snapshot().Items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []model.ID{"1", "3"}, ids)
}

func TestRemove_FailureKeepsItems(t *testing.T) {
	f := &fakeSender{handler: respond(`[{"id":"1"},{"id":"2"}]`)}
	s := newBooks(f)
	_, err := s.Fetch(context.Background())
	require.NoError(t, err)

	f.handler = fail(http.StatusNotFound, "not found")
	_, err = s.Remove(context.Background(), "2")
	require.Error(t, err)

	st := s.Snapshot()
	assert.Equal(t, StatusFailed, st.Status)
	assert.Len(t, st.Items, 2)
}

func TestUnsupportedOperations(t *testing.T) {
	f := &fakeSender{handler: respond(`{}`)}
	ctx := context.Background()

	contacts := NewSlice[model.Contact](ContactDef, f, testutil.TestLoggerSilent())
	_, err := contacts.Save(ctx, "", Payload{})
	assert.ErrorIs(t, err, ErrUnsupported)

	about := NewSlice[model.About](AboutDef, f, testutil.TestLoggerSilent())
	_, err = about.Remove(ctx, "1")
	assert.ErrorIs(t, err, ErrUnsupported)

	assert.Empty(t, f.calls, "unsupported operations never reach the backend")
	assert.Equal(t, StatusIdle, contacts.Snapshot().Status)
}

// A fetch issued before a save but resolving after it overwrites the saved
// record: the last response applied wins.
func TestLastWriteWins(t *testing.T) {
	release := make(chan struct{})
	fetchStarted := make(chan struct{})

	f := &fakeSender{}
	f.handler = func(method, _ string) (*apiclient.Response, error) {
		if method == http.MethodGet {
			close(fetchStarted)
			<-release
			return ok(`[{"id":"1","title":"Stale"}]`), nil
		}
		return ok(`{"id":"2","title":"Fresh"}`), nil
	}
	s := newBooks(f)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Fetch(context.Background())
	}()
	<-fetchStarted

	_, err := s.Save(context.Background(), "", Payload{})
	require.NoError(t, err)
	require.Len(t, s.Snapshot().Items, 1)
	assert.Equal(t, "Fresh", s.Snapshot().Items[0].Title)

	close(release)
	<-done

	st := s.Snapshot()
	assert.Equal(t, StatusSucceeded, st.Status)
	require.Len(t, st.Items, 1)
	assert.Equal(t, "Stale", st.Items[0].Title, "older fetch overwrote the newer save")
}

func TestSave_MultipartScenario(t *testing.T) {
	var (
		mu         sync.Mutex
		fileParts  int
		urlParts   int
		urls       []string
		removeSent bool
		gotMethod  string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotMethod = r.Method
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fileParts = len(r.MultipartForm.File["images"])
		urls = r.MultipartForm.Value["images"]
		urlParts = len(urls)
		_, removeSent = r.MultipartForm.Value[RemoveImagesField]
		_, _ = w.Write([]byte(`{"id":"b1","title":"Memoir","images":["u1","u2","u3"]}`))
	}))
	defer srv.Close()

	client := apiclient.New(apiclient.Options{BaseURL: srv.URL, Logger: testutil.TestLoggerSilent()})
	s := NewSlice[model.Book](BooksDef, client, testutil.TestLoggerSilent())

	p := Payload{
		Fields: map[string]string{"title": "Memoir", "author": "A. Writer"},
		Images: []upload.ImageRef{
			{File: &upload.File{Filename: "one.jpg", ContentType: "image/jpeg", Data: []byte("1")}},
			{File: &upload.File{Filename: "two.png", ContentType: "image/png", Data: []byte("2")}},
			{URL: "https://cdn.example.org/existing.jpg"},
		},
	}

	rec, err := s.Save(context.Background(), "", p)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, 2, fileParts)
	assert.Equal(t, 1, urlParts)
	assert.Equal(t, []string{"https://cdn.example.org/existing.jpg"}, urls)
	assert.False(t, removeSent)
	assert.Len(t, rec.Images, 3)
}

func TestPayloadBody_RemoveImages(t *testing.T) {
	p := Payload{
		Images:       []upload.ImageRef{{URL: "keep.jpg"}},
		RemoveImages: []string{"old-1.jpg", "old-2.jpg"},
	}

	mp, ok := p.Body(BooksDef).(*apiclient.Multipart)
	require.True(t, ok)
	assert.True(t, mp.Has(RemoveImagesField))
	assert.Equal(t, 0, mp.FileCount())

	empty, ok := Payload{RemoveImages: []string{}}.Body(BooksDef).(*apiclient.Multipart)
	require.True(t, ok)
	assert.False(t, empty.Has(RemoveImagesField))
}
