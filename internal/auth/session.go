// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth holds the process-wide admin session: the bearer token, role
// and expiry issued by the backend, persisted to local storage, plus the
// watcher that logs the session out once it expires.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/olegiv/trust-admin/internal/storage"
)

// Storage keys. They match the names the backend's web clients use.
const (
	KeyToken  = "token"
	KeyRole   = "role"
	KeyExpiry = "tokenExpiry"
	KeyUser   = "user"
)

// Logout reasons.
const (
	ReasonUser         = "user"
	ReasonUnauthorized = "unauthorized"
	ReasonExpired      = "expired"
)

// ErrInvalidGrant is returned by Login when the grant carries no token.
var ErrInvalidGrant = errors.New("auth: grant has no token")

// EventKind distinguishes session notifications.
type EventKind int

const (
	EventLogin EventKind = iota + 1
	EventLogout
)

func (k EventKind) String() string {
	switch k {
	case EventLogin:
		return "login"
	case EventLogout:
		return "logout"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after a login or an effective logout.
type Event struct {
	Kind      EventKind
	Role      Role
	ExpiresAt time.Time
	Reason    string
}

// Grant is what a successful backend login hands to the session.
type Grant struct {
	Token   string
	Role    Role
	TTL     time.Duration
	Profile json.RawMessage
}

// Session is the single authentication state of the process. It is created
// once at startup and shared by reference.
type Session struct {
	storage storage.Storage
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.RWMutex
	token     string
	role      Role
	expiresAt time.Time
	profile   json.RawMessage

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// NewSession restores the session from st. Missing keys leave the
// corresponding field absent.
func NewSession(ctx context.Context, st storage.Storage, logger *slog.Logger, opts ...SessionOption) (*Session, error) {
	s := &Session{
		storage: st,
		logger:  logger,
		now:     time.Now,
		subs:    make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}

	token, err := s.read(ctx, KeyToken)
	if err != nil {
		return nil, err
	}
	role, err := s.read(ctx, KeyRole)
	if err != nil {
		return nil, err
	}
	expiry, err := s.read(ctx, KeyExpiry)
	if err != nil {
		return nil, err
	}
	profile, err := s.read(ctx, KeyUser)
	if err != nil {
		return nil, err
	}

	s.token = token
	s.role = Role(role)
	if expiry != "" {
		ms, perr := strconv.ParseInt(expiry, 10, 64)
		if perr != nil {
			s.logger.Warn("ignoring malformed stored token expiry", "value", expiry)
		} else {
			s.expiresAt = time.UnixMilli(ms)
		}
	}
	if profile != "" {
		s.profile = json.RawMessage(profile)
	}

	if s.token != "" {
		s.logger.Info("session restored", "role", s.role, "expires_at", s.expiresAt)
	}
	return s, nil
}

func (s *Session) read(ctx context.Context, key string) (string, error) {
	v, err := s.storage.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("restoring session: %w", err)
	}
	return v, nil
}

// Login persists g and then updates the in-memory state. expiresAt is now+TTL.
func (s *Session) Login(ctx context.Context, g Grant) error {
	if g.Token == "" {
		return ErrInvalidGrant
	}

	s.mu.Lock()
	expiresAt := s.now().Add(g.TTL)
	writes := []struct{ key, value string }{
		{KeyToken, g.Token},
		{KeyRole, string(g.Role)},
		{KeyExpiry, strconv.FormatInt(expiresAt.UnixMilli(), 10)},
	}
	for _, w := range writes {
		if err := s.storage.Set(ctx, w.key, w.value); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("storing session: %w", err)
		}
	}
	if len(g.Profile) > 0 {
		if err := s.storage.Set(ctx, KeyUser, string(g.Profile)); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("storing session: %w", err)
		}
	} else if err := s.storage.Delete(ctx, KeyUser); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("storing session: %w", err)
	}

	s.token = g.Token
	s.role = g.Role
	s.expiresAt = expiresAt
	s.profile = g.Profile
	s.mu.Unlock()

	s.logger.Info("session established", "role", g.Role, "expires_at", expiresAt)
	s.notify(Event{Kind: EventLogin, Role: g.Role, ExpiresAt: expiresAt})
	return nil
}

// Logout clears every key from storage and memory. It is safe to call on an
// empty session; subscribers are only notified when a session was active.
// The in-memory state is cleared even when storage fails.
func (s *Session) Logout(ctx context.Context, reason string) error {
	s.mu.Lock()
	wasActive := s.token != ""
	role := s.role

	var errs []error
	for _, key := range []string{KeyToken, KeyRole, KeyExpiry, KeyUser} {
		if err := s.storage.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}

	s.token = ""
	s.role = ""
	s.expiresAt = time.Time{}
	s.profile = nil
	s.mu.Unlock()

	if wasActive {
		s.logger.Info("session cleared", "reason", reason, "role", role)
		s.notify(Event{Kind: EventLogout, Role: role, Reason: reason})
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// IsExpired is true when no expiry is recorded or now >= expiresAt.
func (s *Session) IsExpired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt.IsZero() || !s.now().Before(s.expiresAt)
}

// Token returns the bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Role returns the stored role.
func (s *Session) Role() Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

// ExpiresAt returns the expiry, or the zero time when none is recorded.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Profile returns the cached user profile JSON.
func (s *Session) Profile() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Authenticated reports whether a token is held. It does not check expiry.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Subscribe registers fn for login and logout events. fn runs synchronously
// on the goroutine that changed the session and must not block.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Session) notify(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
