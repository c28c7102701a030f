// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
)

// Body is a request payload.
type Body interface {
	encode() (io.Reader, string, error)
}

type jsonBody struct {
	v any
}

// JSON encodes v as the request body.
func JSON(v any) Body {
	return jsonBody{v: v}
}

func (b jsonBody) encode() (io.Reader, string, error) {
	data, err := json.Marshal(b.v)
	if err != nil {
		return nil, "", fmt.Errorf("marshal body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

type multipartPart struct {
	field       string
	value       string
	filename    string
	contentType string
	data        []byte
}

func (p multipartPart) isFile() bool {
	return p.filename != ""
}

// Multipart is a multipart/form-data body. Parts are written in the order
// they were added; a field name may repeat.
type Multipart struct {
	parts []multipartPart
}

// NewMultipart returns an empty multipart body.
func NewMultipart() *Multipart {
	return &Multipart{}
}

// AddField appends a scalar part.
func (m *Multipart) AddField(field, value string) *Multipart {
	m.parts = append(m.parts, multipartPart{field: field, value: value})
	return m
}

// AddFile appends a file part. An empty contentType is sent as application/octet-stream.
func (m *Multipart) AddFile(field, filename, contentType string, data []byte) *Multipart {
	if filename == "" {
		filename = "upload"
	}
	m.parts = append(m.parts, multipartPart{field: field, filename: filename, contentType: contentType, data: data})
	return m
}

// FileCount returns the number of file parts.
func (m *Multipart) FileCount() int {
	n := 0
	for _, p := range m.parts {
		if p.isFile() {
			n++
		}
	}
	return n
}

// Has reports whether any part uses field.
func (m *Multipart) Has(field string) bool {
	for _, p := range m.parts {
		if p.field == field {
			return true
		}
	}
	return false
}

func (m *Multipart) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range m.parts {
		if !p.isFile() {
			if err := w.WriteField(p.field, p.value); err != nil {
				return nil, "", fmt.Errorf("writing field %s: %w", p.field, err)
			}
			continue
		}

		ct := p.contentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
			"name":     p.field,
			"filename": p.filename,
		}))
		h.Set("Content-Type", ct)

		pw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("creating part %s: %w", p.field, err)
		}
		if _, err := pw.Write(p.data); err != nil {
			return nil, "", fmt.Errorf("writing part %s: %w", p.field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
