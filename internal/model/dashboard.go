// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"sort"
)

// DashboardCounts maps a collection name to its record count. Keys are
// whatever the backend reports.
type DashboardCounts map[string]Text

func (c DashboardCounts) RecordID() ID { return "" }

func (c DashboardCounts) Normalized() DashboardCounts {
	if c == nil {
		return DashboardCounts{}
	}
	return c
}

// Count is one dashboard tile.
type Count struct {
	Name  string
	Value string
}

// Sorted returns the counts ordered by name.
func (c DashboardCounts) Sorted() []Count {
	out := make([]Count, 0, len(c))
	for k, v := range c {
		out = append(out, Count{Name: k, Value: v.String()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// UnmarshalJSON accepts an object of counts and ignores nested values.
func (c *DashboardCounts) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(DashboardCounts, len(raw))
	for k, v := range raw {
		var t Text
		if err := t.UnmarshalJSON(v); err != nil {
			continue
		}
		out[k] = t
	}
	*c = out
	return nil
}
