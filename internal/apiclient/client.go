// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package apiclient is the single sender for requests to the memorial trust
// backend. It attaches the session's bearer token and turns any 401 into a
// global logout followed by a delayed navigation to the login view.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/olegiv/trust-admin/internal/auth"
)

const (
	// DefaultTimeout bounds a request when Options.Timeout is zero.
	DefaultTimeout = 60 * time.Second

	// DefaultRedirectDelay lets in-flight page updates settle before navigating to login.
	DefaultRedirectDelay = 1500 * time.Millisecond

	maxResponseBytes = 10 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	Session       *auth.Session
	Navigator     auth.Navigator
	RedirectDelay time.Duration // negative selects DefaultRedirectDelay
	UserAgent     string
	Logger        *slog.Logger

	// HTTPClient overrides the transport; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client sends requests to the backend on behalf of the process session.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	session       *auth.Session
	nav           auth.Navigator
	redirectDelay time.Duration
	userAgent     string
	logger        *slog.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	delay := opts.RedirectDelay
	if delay < 0 {
		delay = DefaultRedirectDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		httpClient:    hc,
		session:       opts.Session,
		nav:           opts.Navigator,
		redirectDelay: delay,
		userAgent:     opts.UserAgent,
		logger:        logger,
	}
}

// Response is a successful (2xx) backend response with its body read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the body into out, unwrapping a {"data": ...} envelope
// when present. An empty body leaves out untouched.
func (r *Response) Decode(out any) error {
	raw := bytes.TrimSpace(r.Body)
	if len(raw) == 0 || out == nil {
		return nil
	}
	if raw[0] == '{' {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(raw, &env); err == nil {
			if data, ok := env["data"]; ok {
				raw = data
			}
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// RequestOption adjusts a single request.
type RequestOption func(*http.Request)

// WithQuery sets the request's query string.
func WithQuery(q url.Values) RequestOption {
	return func(r *http.Request) { r.URL.RawQuery = q.Encode() }
}

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

// Send issues method path with body. Non-2xx responses return *HTTPError;
// a 401 additionally logs the session out and schedules navigation to login
// before the error is returned.
func (c *Client) Send(ctx context.Context, method, path string, body Body, opts ...RequestOption) (*Response, error) {
	var reqBody io.Reader
	contentType := ""
	if body != nil {
		r, ct, err := body.encode()
		if err != nil {
			return nil, err
		}
		reqBody, contentType = r, ct
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID(ctx))
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.session != nil {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for _, opt := range opts {
		opt(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend api request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("backend api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(ctx, path)
		return nil, newHTTPError(resp.StatusCode, data)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := newHTTPError(resp.StatusCode, data)
		if resp.StatusCode >= 500 {
			c.logger.Warn("backend api error", "method", method, "path", path, "status", resp.StatusCode, "message", httpErr.Message)
		}
		return nil, httpErr
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// handleUnauthorized runs for every 401 regardless of endpoint.
func (c *Client) handleUnauthorized(ctx context.Context, path string) {
	c.logger.Warn("backend rejected session token", "category", "session", "path", path)

	if c.session != nil {
		if err := c.session.Logout(context.WithoutCancel(ctx), auth.ReasonUnauthorized); err != nil {
			c.logger.Error("failed to clear session after 401", "error", err)
		}
	}
	if c.nav != nil {
		nav := c.nav
		time.AfterFunc(c.redirectDelay, func() {
			nav.NavigateToLogin(auth.ReasonUnauthorized)
		})
	}
}

// Get is Send with GET and no body.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Send(ctx, http.MethodGet, path, nil, opts...)
}

func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
