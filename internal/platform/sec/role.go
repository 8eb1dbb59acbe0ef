// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// Role represents the authorization level granted to an account.
//
// The set is closed: authorization decisions are explicit membership checks
// against declared role lists, never string matching on request input.
type Role string

const (
	// Unrestricted system access
	RoleAdmin Role = "admin"

	// Can manage tours and view all bookings
	RoleLeadGuide Role = "lead-guide"

	// Can be assigned to tours
	RoleGuide Role = "guide"

	// Default role for standard registered users
	RoleUser Role = "user"
)

// Valid reports whether the role is one of the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLeadGuide, RoleGuide, RoleUser:
		return true
	}
	return false
}

// In reports whether the role is a member of the allowed set.
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}
