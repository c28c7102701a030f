// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package web embeds the page templates, static assets and help guides.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:templates
var templates embed.FS

//go:embed all:static
var static embed.FS

//go:embed docs/*.md
var docs embed.FS

// Templates returns the page templates rooted at the templates directory.
func Templates() fs.FS {
	return mustSub(templates, "templates")
}

// Static returns the static assets served under /static/.
func Static() fs.FS {
	return mustSub(static, "static")
}

// Docs returns the markdown help guides.
func Docs() fs.FS {
	return mustSub(docs, "docs")
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
