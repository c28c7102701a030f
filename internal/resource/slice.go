// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package resource implements the per-domain data slices: fetch, save and
// remove against the backend with an idle/loading/succeeded/failed status.
// One generic Slice serves every content domain.
package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/olegiv/trust-admin/internal/apiclient"
	"github.com/olegiv/trust-admin/internal/model"
)

// Status is a slice's request lifecycle state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ErrUnsupported is returned for an operation the domain does not allow.
var ErrUnsupported = errors.New("resource: operation not supported")

// Record is implemented by every model type.
type Record[T any] interface {
	RecordID() model.ID
	Normalized() T
}

// Sender is the part of apiclient.Client a slice needs.
type Sender interface {
	Send(ctx context.Context, method, path string, body apiclient.Body, opts ...apiclient.RequestOption) (*apiclient.Response, error)
}

// State is a point-in-time copy of a slice.
type State[T any] struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
	Items  []T    `json:"items"`
}

// Slice tracks one domain's records. Concurrent requests are not ordered:
// whichever response is applied last overwrites the state.
type Slice[T Record[T]] struct {
	def    Definition
	sender Sender
	logger *slog.Logger

	mu     sync.RWMutex
	status Status
	err    string
	items  []T
}

// NewSlice creates an idle slice.
func NewSlice[T Record[T]](def Definition, sender Sender, logger *slog.Logger) *Slice[T] {
	return &Slice[T]{
		def:    def,
		sender: sender,
		logger: logger.With("domain", def.Name),
		status: StatusIdle,
		items:  []T{},
	}
}

// Definition returns the slice's configuration.
func (s *Slice[T]) Definition() Definition {
	return s.def
}

// Fetch loads the domain. On success the normalized payload replaces the
// items; on failure the items are kept and the error is recorded.
func (s *Slice[T]) Fetch(ctx context.Context) ([]T, error) {
	if !s.def.Allows(OpFetch) {
		return nil, ErrUnsupported
	}
	s.begin()

	resp, err := s.sender.Send(ctx, http.MethodGet, s.def.Path, nil)
	if err != nil {
		s.fail("fetch", err)
		return nil, err
	}

	items, err := decodeItems[T](resp)
	if err != nil {
		s.fail("fetch", err)
		return nil, err
	}

	s.mu.Lock()
	s.status = StatusSucceeded
	s.err = ""
	s.items = items
	s.mu.Unlock()
	return items, nil
}

// Save creates (id == "") with POST or updates with PUT path/{id}. On
// success the returned record is upserted into the items; on failure the
// items are untouched.
func (s *Slice[T]) Save(ctx context.Context, id model.ID, p Payload) (T, error) {
	var zero T
	method, path, op := http.MethodPost, s.def.Path, OpCreate
	if id != "" {
		method, path, op = http.MethodPut, s.def.Path+"/"+url.PathEscape(id.String()), OpUpdate
	}
	if !s.def.Allows(op) {
		return zero, ErrUnsupported
	}
	s.begin()

	resp, err := s.sender.Send(ctx, method, path, p.Body(s.def))
	if err != nil {
		s.fail("save", err)
		return zero, err
	}

	var rec T
	if len(bytes.TrimSpace(resp.Body)) > 0 {
		if err := resp.Decode(&rec); err != nil {
			s.fail("save", err)
			return zero, err
		}
		rec = rec.Normalized()
	}

	s.mu.Lock()
	s.status = StatusSucceeded
	s.err = ""
	// A response that does not echo an identified record (204, or a bare
	// message) leaves the items as they were; the next fetch refreshes them.
	if rec.RecordID() != "" {
		s.items = upsert(s.items, rec)
	}
	s.mu.Unlock()
	return rec, nil
}

// Remove deletes id and, on success, prunes exactly that record.
func (s *Slice[T]) Remove(ctx context.Context, id model.ID) (model.ID, error) {
	if !s.def.Allows(OpDelete) {
		return "", ErrUnsupported
	}
	if id == "" {
		return "", fmt.Errorf("resource: remove %s: empty id", s.def.Name)
	}
	s.begin()

	if _, err := s.sender.Send(ctx, http.MethodDelete, s.def.Path+"/"+url.PathEscape(id.String()), nil); err != nil {
		s.fail("delete", err)
		return "", err
	}

	s.mu.Lock()
	s.status = StatusSucceeded
	s.err = ""
	kept := make([]T, 0, len(s.items))
	for _, it := range s.items {
		if it.RecordID() != id {
			kept = append(kept, it)
		}
	}
	s.items = kept
	s.mu.Unlock()
	return id, nil
}

// Snapshot returns a copy of the current state.
func (s *Slice[T]) Snapshot() State[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]T, len(s.items))
	copy(items, s.items)
	return State[T]{Status: s.status, Error: s.err, Items: items}
}

// Current returns the first record, which for a singleton is the record.
func (s *Slice[T]) Current() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[0], true
}

// Find returns the record with id.
func (s *Slice[T]) Find(id model.ID) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.RecordID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func (s *Slice[T]) begin() {
	s.mu.Lock()
	s.status = StatusLoading
	s.mu.Unlock()
}

func (s *Slice[T]) fail(op string, err error) {
	msg := apiclient.Message(err)
	s.mu.Lock()
	s.status = StatusFailed
	s.err = msg
	s.mu.Unlock()

	if apiclient.IsUnauthorized(err) {
		return
	}
	s.logger.Debug(op+" failed", "error", err)
}

// decodeItems accepts an array or a single object (singleton endpoints).
func decodeItems[T Record[T]](resp *apiclient.Response) ([]T, error) {
	var raw json.RawMessage
	if err := resp.Decode(&raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}

	if raw[0] == '[' {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		out := make([]T, 0, len(items))
		for _, it := range items {
			out = append(out, it.Normalized())
		}
		return out, nil
	}

	var one T
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return []T{one.Normalized()}, nil
}

// upsert replaces the record with rec's id, or appends rec.
func upsert[T Record[T]](items []T, rec T) []T {
	out := make([]T, 0, len(items)+1)
	replaced := false
	for _, it := range items {
		if it.RecordID() == rec.RecordID() {
			out = append(out, rec)
			replaced = true
			continue
		}
		out = append(out, it)
	}
	if !replaced {
		out = append(out, rec)
	}
	return out
}
