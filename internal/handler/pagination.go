// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Pagination holds pagination data for admin templates.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int64
	PerPage     int
	Pages       []PageLink
	PrevURL     string
	NextURL     string
}

// PageLink is a single page link. An ellipsis carries no URL.
type PageLink struct {
	Number     int
	URL        string
	IsCurrent  bool
	IsEllipsis bool
}

// ShouldShow returns true if pagination should be displayed (more than 1 page).
func (p Pagination) ShouldShow() bool {
	return p.TotalPages > 1
}

// parsePageParam reads the "page" query parameter, defaulting to 1.
func parsePageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// normalizePage clamps page into [1, totalPages].
func normalizePage(page, totalItems, perPage int) (int, int) {
	totalPages := (totalItems + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page, totalPages
}

// buildPagination creates pagination data. Query parameters other than
// "page" are preserved in every link. At most five numbered pages are shown
// around the current one, with the first and last pages always reachable.
func buildPagination(currentPage, totalItems, perPage int, baseURL string, query url.Values) Pagination {
	currentPage, totalPages := normalizePage(currentPage, totalItems, perPage)

	params := make(url.Values)
	for k, v := range query {
		if k != "page" && len(v) > 0 && v[0] != "" {
			params[k] = v
		}
	}
	link := func(page int) string {
		params.Set("page", strconv.Itoa(page))
		return fmt.Sprintf("%s?%s", baseURL, params.Encode())
	}

	p := Pagination{
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		TotalItems:  int64(totalItems),
		PerPage:     perPage,
	}
	if currentPage > 1 {
		p.PrevURL = link(currentPage - 1)
	}
	if currentPage < totalPages {
		p.NextURL = link(currentPage + 1)
	}

	start, end := currentPage-2, currentPage+2
	if start < 1 {
		start, end = 1, 5
	}
	if end > totalPages {
		end = totalPages
		start = max(end-4, 1)
	}

	if start > 1 {
		p.Pages = append(p.Pages, PageLink{Number: 1, URL: link(1)})
		if start > 2 {
			p.Pages = append(p.Pages, PageLink{IsEllipsis: true})
		}
	}
	for i := start; i <= end; i++ {
		p.Pages = append(p.Pages, PageLink{Number: i, URL: link(i), IsCurrent: i == currentPage})
	}
	if end < totalPages {
		if end < totalPages-1 {
			p.Pages = append(p.Pages, PageLink{IsEllipsis: true})
		}
		p.Pages = append(p.Pages, PageLink{Number: totalPages, URL: link(totalPages)})
	}
	return p
}
