// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "time"

// Principal is the request-scoped view of an authenticated account.
//
// # Why not the full domain User?
//
// Middleware and context plumbing live in the platform layer and must not
// depend on domain packages. Principal carries exactly what cross-cutting
// code needs: identity, authorization role, and the password-change time
// used to reject stale tokens.
type Principal struct {
	// UserID is the account id the request acts as.
	UserID string

	// Name is the account's display name.
	Name string

	// Email is the account's unique, lower-cased address.
	Email string

	// Role is the account's authorization level.
	Role Role

	// PasswordChangedAt is the time of the most recent password change,
	// zero if the password was never changed after signup.
	PasswordChangedAt time.Time
}

// PasswordChangedAfter reports whether the password was changed after the
// given token issue time, compared at one-second resolution.
//
// One-second truncation mirrors the resolution of the JWT 'iat' claim:
// without it, a token issued in the same wall-clock second as the change
// would be rejected spuriously.
func (p *Principal) PasswordChangedAfter(tokenIssuedAt time.Time) bool {
	if p.PasswordChangedAt.IsZero() {
		return false
	}
	return p.PasswordChangedAt.Truncate(time.Second).After(tokenIssuedAt.Truncate(time.Second))
}
