// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package live pushes server-sent events to every open admin page. It is the
// process's auth.Navigator: navigating to login means telling each page to
// load /login.
package live

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/olegiv/trust-admin/internal/auth"
)

// Event names sent on the stream.
const (
	EventNavigate = "navigate"
	EventSession  = "session"
)

const (
	clientBuffer      = 8
	keepAliveInterval = 25 * time.Second
	retryMillis       = 3000
)

// Message is one server-sent event.
type Message struct {
	Event string
	Data  any
}

// NavigatePayload tells a page where to go.
type NavigatePayload struct {
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
}

// SessionPayload mirrors an auth.Event for the page header.
type SessionPayload struct {
	Kind      string `json:"kind"`
	Role      string `json:"role,omitempty"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

var _ auth.Navigator = (*Hub)(nil)

// Hub fans messages out to connected streams. A slow client drops messages
// rather than blocking the sender.
type Hub struct {
	logger    *slog.Logger
	loginPath string

	mu      sync.Mutex
	clients map[chan Message]struct{}
	closed  bool
}

// NewHub creates a Hub. Navigation targets loginPath.
func NewHub(logger *slog.Logger, loginPath string) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:    logger,
		loginPath: loginPath,
		clients:   make(map[chan Message]struct{}),
	}
}

// Subscribe registers a client. The channel is closed by cancel or Close.
func (h *Hub) Subscribe() (<-chan Message, func()) {
	ch := make(chan Message, clientBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.clients[ch]; ok {
				delete(h.clients, ch)
				close(ch)
			}
			h.mu.Unlock()
		})
	}
}

// Broadcast delivers m to every client.
func (h *Hub) Broadcast(m Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- m:
		default:
			h.logger.Debug("dropping live message for slow client", "event", m.Event)
		}
	}
}

// NavigateToLogin sends every open page to the login view.
func (h *Hub) NavigateToLogin(reason string) {
	h.logger.Debug("navigating open pages to login", "reason", reason)
	h.Broadcast(Message{Event: EventNavigate, Data: NavigatePayload{To: h.loginPath, Reason: reason}})
}

// Attach forwards session login and logout events to the clients.
func (h *Hub) Attach(session *auth.Session) (detach func()) {
	return session.Subscribe(func(ev auth.Event) {
		p := SessionPayload{Kind: ev.Kind.String(), Role: string(ev.Role), Reason: ev.Reason}
		if !ev.ExpiresAt.IsZero() {
			p.ExpiresAt = ev.ExpiresAt.UnixMilli()
		}
		h.Broadcast(Message{Event: EventSession, Data: p})
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
}

// ServeHTTP streams messages until the client goes away or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// The stream outlives the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	msgs, cancel := h.Subscribe()
	defer cancel()

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "retry: %d\n\n", retryMillis)
	if err := rc.Flush(); err != nil {
		h.logger.Warn("live stream unsupported", "error", err)
		return
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case m, ok := <-msgs:
			if !ok {
				return
			}
			if err := writeEvent(w, m); err != nil {
				h.logger.Debug("live stream write failed", "error", err)
				return
			}
			_ = rc.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			_ = rc.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, m Message) error {
	data, err := json.Marshal(m.Data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", m.Event, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", m.Event, data)
	return err
}
