// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// LoginPath is the backend authentication endpoint.
const LoginPath = "/auth/login"

// ErrBadLoginResponse is returned by Login when the backend accepted the
// credentials but its answer cannot establish a session.
var ErrBadLoginResponse = errors.New("login response cannot establish a session")

// LoginResult is the backend's answer to a successful authentication.
// ExpiresIn is a lifetime in seconds, sent as a number or a numeric string.
type LoginResult struct {
	Token     string          `json:"encryptedToken"`
	Role      string          `json:"user_role"`
	ExpiresIn json.Number     `json:"expiresIn"`
	User      json.RawMessage `json:"user"`
}

// TTL returns ExpiresIn as a duration. Fractional seconds are kept; a
// missing or malformed value is 0.
func (r LoginResult) TTL() time.Duration {
	secs, err := strconv.ParseFloat(r.ExpiresIn.String(), 64)
	if err != nil {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

// Login authenticates email/password against the backend. It does not touch
// the session; the caller decides whether the role may establish one.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	resp, err := c.Send(ctx, http.MethodPost, LoginPath, JSON(map[string]string{
		"email":    email,
		"password": password,
	}))
	if err != nil {
		return nil, fmt.Errorf("apiclient.Login: %w", err)
	}

	var result LoginResult
	if err := resp.Decode(&result); err != nil {
		return nil, fmt.Errorf("apiclient.Login: %w", err)
	}
	if result.Token == "" {
		return nil, fmt.Errorf("apiclient.Login: no token: %w", ErrBadLoginResponse)
	}
	if result.TTL() <= 0 {
		return nil, fmt.Errorf("apiclient.Login: expiresIn %q: %w", result.ExpiresIn, ErrBadLoginResponse)
	}
	return &result, nil
}
