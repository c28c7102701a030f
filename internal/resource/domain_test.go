// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package resource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/trust-admin/internal/model"
	"github.com/olegiv/trust-admin/internal/testutil"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry(&fakeSender{handler: respond(`[]`)}, testutil.TestLoggerSilent())

	want := []string{
		"about", "books", "events", "donation", "collections", "news",
		"gallery", "contact", "subscribers", "trustees", "testimonials", "socialmedia",
	}
	var got []string
	for _, d := range r.All() {
		got = append(got, d.Definition().Name)
	}
	assert.Equal(t, want, got)

	_, ok := r.Get("books")
	assert.True(t, ok)
	_, ok = r.Get("dashboard")
	assert.False(t, ok, "dashboard is a typed slice, not a generic domain")
	assert.NotNil(t, r.Dashboard)
}

func TestDefinitions_Consistent(t *testing.T) {
	r := NewRegistry(&fakeSender{handler: respond(`[]`)}, testutil.TestLoggerSilent())

	for _, d := range r.All() {
		def := d.Definition()
		t.Run(def.Name, func(t *testing.T) {
			assert.NotEmpty(t, def.Path)
			assert.True(t, def.Allows(OpFetch))
			if def.Multipart {
				assert.True(t, def.HasImages(), "multipart domains carry an image field")
			}
			for _, col := range def.Columns {
				_, ok := def.Field(col)
				assert.True(t, ok, "column %q has a field", col)
			}
			if def.Kind == KindSingleton {
				assert.False(t, def.Allows(OpDelete))
			}
		})
	}
}

func TestDomainView(t *testing.T) {
	f := &fakeSender{handler: respond(`[{"id":5,"title":"Memoir","year":1998,"images":["a.jpg","b.jpg"]}]`)}
	d := AsDomain(newBooks(f))
	require.NoError(t, d.Fetch(context.Background()))

	v := d.View()
	require.Len(t, v.Rows, 1)
	row := v.Rows[0]
	assert.Equal(t, "5", row.ID)
	assert.Equal(t, "Memoir", row.Value("title"))
	assert.Equal(t, "1998", row.Value("year"))
	assert.Equal(t, "", row.Value("missing"))
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, row.Images)

	got, ok := d.Row("5")
	require.True(t, ok)
	assert.Equal(t, row.ID, got.ID)

	_, ok = d.Row("6")
	assert.False(t, ok)
}

func TestDomainRow_Singleton(t *testing.T) {
	f := &fakeSender{handler: respond(`{"title":"Life"}`)}
	d := AsDomain(NewSlice[model.About](AboutDef, f, testutil.TestLoggerSilent()))
	require.NoError(t, d.Fetch(context.Background()))

	row, ok := d.Row("")
	require.True(t, ok)
	assert.Equal(t, "Life", row.Value("title"))
	assert.Equal(t, "", row.ID)
}
