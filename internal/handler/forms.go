// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/trust-admin/internal/resource"
	"github.com/olegiv/trust-admin/internal/upload"
)

// existingImagesField carries the stored image URLs a form was rendered with.
const existingImagesField = "existingImages"

var richTextPolicy = bluemonday.UGCPolicy()

// FormErrors maps a field name to its validation message.
type FormErrors map[string]string

// formInput is a parsed record form.
type formInput struct {
	payload resource.Payload
	values  map[string]any
	errors  FormErrors
}

// parseRecordForm reads the fields of def from r. Rich text is sanitized,
// pending image files are prepared by the processor, stored URLs are kept
// unless listed for removal.
func parseRecordForm(r *http.Request, def resource.Definition, processor *upload.Processor) (*formInput, error) {
	if def.Multipart && strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, fmt.Errorf("parsing multipart form: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parsing form: %w", err)
	}

	in := &formInput{
		payload: resource.Payload{Fields: make(map[string]string, len(def.Fields))},
		values:  make(map[string]any, len(def.Fields)),
		errors:  FormErrors{},
	}

	for _, f := range def.Fields {
		if f.Type == "" {
			continue
		}
		value := strings.TrimSpace(r.PostFormValue(f.Name))
		if f.Type == resource.FieldRichText {
			value = strings.TrimSpace(richTextPolicy.Sanitize(value))
		}
		in.values[f.Name] = value
		if msg := validateField(f, value); msg != "" {
			in.errors[f.Name] = msg
			continue
		}
		in.payload.Fields[f.Name] = value
	}

	if !def.HasImages() {
		return in, nil
	}

	remove := nonEmpty(r.PostForm[resource.RemoveImagesField])
	var kept []string
	for _, u := range nonEmpty(r.PostForm[existingImagesField]) {
		if !slices.Contains(remove, u) {
			kept = append(kept, u)
		}
	}
	in.payload.Images = upload.URLRefs(kept)
	in.payload.RemoveImages = remove
	in.values[def.ImageField] = kept

	if r.MultipartForm != nil && processor != nil {
		for _, fh := range r.MultipartForm.File[def.ImageField] {
			file, err := processor.PrepareHeader(fh)
			if err != nil {
				if errors.Is(err, upload.ErrTooLarge) || errors.Is(err, upload.ErrUnsupportedType) {
					in.errors[def.ImageField] = fmt.Sprintf("%s: %v", fh.Filename, err)
					continue
				}
				return nil, err
			}
			in.payload.Images = append(in.payload.Images, upload.ImageRef{File: file})
		}
	}
	return in, nil
}

// validateField returns a message for an invalid value, or "".
func validateField(f resource.Field, value string) string {
	if value == "" {
		if f.Required {
			return f.Label + " is required"
		}
		return ""
	}
	switch f.Type {
	case resource.FieldNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return f.Label + " must be a number"
		}
	case resource.FieldEmail:
		if _, err := mail.ParseAddress(value); err != nil {
			return f.Label + " must be a valid email address"
		}
	case resource.FieldURL:
		u, err := url.Parse(value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return f.Label + " must be an http(s) link"
		}
	case resource.FieldDate:
		if _, err := time.Parse(time.DateOnly, value); err != nil {
			return f.Label + " must be a date (YYYY-MM-DD)"
		}
	case resource.FieldSelect:
		if len(f.Options) > 0 && !slices.Contains(f.Options, value) {
			return f.Label + " has an unknown value"
		}
	}
	return ""
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
