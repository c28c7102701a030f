// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RouteHealth is the health check route.
	RouteHealth = "/health"
	// RouteHealthLive is the liveness probe.
	RouteHealthLive = "/health/live"
	// RouteHealthReady is the readiness probe.
	RouteHealthReady = "/health/ready"
	// RouteAdmin is the prefix of every protected page.
	RouteAdmin = "/admin"

	// RouteSuffixNew is the suffix for "new" routes.
	RouteSuffixNew = "/new"
	// RouteSuffixDelete is the suffix for form-posted deletes.
	RouteSuffixDelete = "/delete"
	// RouteSuffixState is the suffix for the slice state endpoint.
	RouteSuffixState = "/state"

	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteParamDomain is the domain parameter pattern.
	RouteParamDomain = "/{domain}"
	// RouteParamSlug is the slug parameter pattern.
	RouteParamSlug = "/{slug}"

	// RouteEventLog is the diagnostic event log route.
	RouteEventLog = "/event-log"
	// RouteHelp is the help pages route.
	RouteHelp = "/help"
	// RouteLive is the server-sent events stream.
	RouteLive = "/live"

	// RouteDomainID is the record route pattern within a domain.
	RouteDomainID = RouteParamDomain + RouteParamID
	// RouteHelpSlug is the help guide route pattern.
	RouteHelpSlug = RouteHelp + RouteParamSlug
)

// Redirect targets.
const (
	redirectLogin         = RouteLogin
	redirectAdmin         = RouteAdmin
	redirectAdminEventLog = RouteAdmin + RouteEventLog
)

// User-facing messages shared by several handlers.
const (
	msgSessionExpired = "Your session has expired. Please log in again."
	msgGenericError   = "Something went wrong. Please try again."
	msgInvalidForm    = "Invalid form data"
)

// DomainURL returns the list page of the named domain.
func DomainURL(name string) string {
	return RouteAdmin + "/" + name
}

// RecordURL returns the form page of a record.
func RecordURL(name, id string) string {
	return DomainURL(name) + "/" + id
}
