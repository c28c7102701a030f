// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the records exchanged with the memorial trust
// backend. Identifiers and loosely typed scalars are kept as strings.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is a server-assigned identifier. The backend may send it as a JSON
// number or string; it is always treated as an opaque string.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(b []byte) error {
	s, err := looseString(b)
	if err != nil {
		return fmt.Errorf("model.ID: %w", err)
	}
	*id = ID(s)
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Text is a scalar the backend may send as a string, number or boolean.
// null and absent both decode to "".
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(b []byte) error {
	s, err := looseString(b)
	if err != nil {
		return fmt.Errorf("model.Text: %w", err)
	}
	*t = Text(s)
	return nil
}

func (t Text) String() string {
	return string(t)
}

func looseString(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return "", fmt.Errorf("unexpected %s", b[:1])
	default:
		// numbers and booleans keep their literal form
		return string(b), nil
	}
}

// URLs is a list of media URLs. The backend sends a single URL as a plain
// string for some records; that decodes to a one-element list and "" to an
// empty one.
type URLs []string

// UnmarshalJSON implements json.Unmarshaler.
func (u *URLs) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*u = nil
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("model.URLs: %w", err)
		}
		if s == "" {
			*u = URLs{}
		} else {
			*u = URLs{s}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return fmt.Errorf("model.URLs: %w", err)
	}
	*u = list
	return nil
}

// orEmpty defaults a nil list to an empty one.
func orEmpty(u URLs) URLs {
	if u == nil {
		return URLs{}
	}
	return u
}
