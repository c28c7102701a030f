// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package upload

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	unsafeChars     = regexp.MustCompile(`[^a-z0-9-]+`)
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

const maxBaseLength = 80

// Slugify lowercases s, strips accents and reduces it to [a-z0-9-].
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)

	result = strings.ToLower(result)
	result = strings.NewReplacer(" ", "-", "_", "-", ".", "-").Replace(result)
	result = unsafeChars.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// SanitizeFilename turns a client-supplied name into a safe file name with
// the given extension (without dot). Directory components are dropped.
func SanitizeFilename(name, ext string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))

	slug := Slugify(base)
	if len(slug) > maxBaseLength {
		slug = strings.TrimRight(slug[:maxBaseLength], "-")
	}
	if slug == "" {
		slug = "image"
	}
	if ext == "" {
		return slug
	}
	return slug + "." + ext
}
