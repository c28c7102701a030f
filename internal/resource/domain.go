// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package resource

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/olegiv/trust-admin/internal/model"
)

// Row is a record flattened for templates.
type Row struct {
	ID     string
	Values map[string]any
	Images []string
}

// Value returns the field as display text.
func (r Row) Value(key string) string {
	v, ok := r.Values[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []any:
		return fmt.Sprintf("%d item(s)", len(t))
	default:
		return fmt.Sprint(t)
	}
}

// View is a slice state flattened for templates and the state endpoint.
type View struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
	Rows   []Row  `json:"-"`
	Count  int    `json:"count"`
}

// Failed reports that the last operation failed.
func (v View) Failed() bool {
	return v.Status == StatusFailed
}

// Empty reports a successful fetch with no records.
func (v View) Empty() bool {
	return v.Status == StatusSucceeded && len(v.Rows) == 0
}

// Domain is the type-erased face of a Slice used by the handlers.
type Domain interface {
	Definition() Definition
	Fetch(ctx context.Context) error
	Save(ctx context.Context, id string, p Payload) error
	Remove(ctx context.Context, id string) error
	View() View
	Row(id string) (Row, bool)
}

type domain[T Record[T]] struct {
	slice *Slice[T]
}

// AsDomain wraps s as a Domain.
func AsDomain[T Record[T]](s *Slice[T]) Domain {
	return domain[T]{slice: s}
}

func (d domain[T]) Definition() Definition {
	return d.slice.Definition()
}

func (d domain[T]) Fetch(ctx context.Context) error {
	_, err := d.slice.Fetch(ctx)
	return err
}

func (d domain[T]) Save(ctx context.Context, id string, p Payload) error {
	_, err := d.slice.Save(ctx, model.ID(id), p)
	return err
}

func (d domain[T]) Remove(ctx context.Context, id string) error {
	_, err := d.slice.Remove(ctx, model.ID(id))
	return err
}

func (d domain[T]) View() View {
	st := d.slice.Snapshot()
	rows := make([]Row, 0, len(st.Items))
	for _, it := range st.Items {
		rows = append(rows, toRow(it, d.slice.def.ImageField))
	}
	return View{Status: st.Status, Error: st.Error, Rows: rows, Count: len(rows)}
}

func (d domain[T]) Row(id string) (Row, bool) {
	if d.slice.def.Kind == KindSingleton && id == "" {
		rec, ok := d.slice.Current()
		if !ok {
			return Row{}, false
		}
		return toRow(rec, d.slice.def.ImageField), true
	}
	rec, ok := d.slice.Find(model.ID(id))
	if !ok {
		return Row{}, false
	}
	return toRow(rec, d.slice.def.ImageField), true
}

func toRow[T Record[T]](rec T, imageField string) Row {
	values := map[string]any{}
	if b, err := json.Marshal(rec); err == nil {
		_ = json.Unmarshal(b, &values)
	}

	var images []string
	if imageField != "" {
		if list, ok := values[imageField].([]any); ok {
			for _, v := range list {
				if s, ok := v.(string); ok {
					images = append(images, s)
				}
			}
		}
	}
	return Row{ID: rec.RecordID().String(), Values: values, Images: images}
}
