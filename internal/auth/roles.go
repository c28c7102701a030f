// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

// Role is the user_role string issued by the backend.
type Role string

// Roles known to the backend.
const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super-admin"
	RoleTrustees   Role = "trustees"
	RoleUser       Role = "user"
)

// IsAdminRole reports whether r may use the dashboard.
func IsAdminRole(r Role) bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Label returns a display name for r.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleSuperAdmin:
		return "Super Admin"
	case RoleTrustees:
		return "Trustee"
	case RoleUser:
		return "User"
	case "":
		return "Anonymous"
	default:
		return string(r)
	}
}
