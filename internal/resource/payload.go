// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package resource

import (
	"sort"

	"github.com/olegiv/trust-admin/internal/apiclient"
	"github.com/olegiv/trust-admin/internal/upload"
)

// RemoveImagesField lists stored image URLs the backend should delete.
const RemoveImagesField = "removeImages"

// Payload is the form data for a save.
type Payload struct {
	Fields       map[string]string
	Images       []upload.ImageRef
	RemoveImages []string
}

// Body encodes p for def. Multipart domains send pending files as file
// parts and stored URLs as scalar parts of the same image field; the
// removeImages parts are only present when the list is non-empty.
func (p Payload) Body(def Definition) apiclient.Body {
	if !def.Multipart {
		m := make(map[string]any, len(p.Fields)+2)
		for k, v := range p.Fields {
			m[k] = v
		}
		if def.HasImages() {
			urls := make([]string, 0, len(p.Images))
			for _, ref := range p.Images {
				if !ref.IsPending() {
					urls = append(urls, ref.URL)
				}
			}
			m[def.ImageField] = urls
		}
		if len(p.RemoveImages) > 0 {
			m[RemoveImagesField] = p.RemoveImages
		}
		return apiclient.JSON(m)
	}

	mp := apiclient.NewMultipart()
	keys := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		mp.AddField(k, p.Fields[k])
	}

	if def.HasImages() {
		for _, ref := range p.Images {
			if ref.IsPending() {
				mp.AddFile(def.ImageField, ref.File.Filename, ref.File.ContentType, ref.File.Data)
				continue
			}
			mp.AddField(def.ImageField, ref.URL)
		}
	}

	for _, u := range p.RemoveImages {
		mp.AddField(RemoveImagesField, u)
	}
	return mp
}
