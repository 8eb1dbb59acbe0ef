// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/taibuivan/trekora/internal/platform/apperr"
	"github.com/taibuivan/trekora/internal/platform/constants"
	"github.com/taibuivan/trekora/internal/platform/ctxutil"
	"github.com/taibuivan/trekora/internal/platform/respond"
	"github.com/taibuivan/trekora/internal/platform/sec"
)

// TokenVerifier verifies a raw JWT string and returns its claims.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the token
// service implementation, allowing us to easily inject mocks during unit testing.
type TokenVerifier interface {
	VerifyToken(tokenString string) (*sec.TokenClaims, error)
}

// IdentityStore resolves a token subject to the live account state.
//
// The token deliberately carries only the subject id: role, active flag,
// and password-change timestamp are always read fresh here, so revocations
// and role changes take effect on the very next request.
type IdentityStore interface {
	FindPrincipal(ctx context.Context, userID string) (*sec.Principal, error)
}

// Protect authenticates the request and rejects it when anything is off.
//
// # Flow
//  1. Extract the token: 'Authorization: Bearer <token>' header first,
//     then the session cookie. Header wins when both are present.
//  2. Verify signature, expiry, and issuer.
//  3. Resolve the subject against the identity store (deleted or
//     deactivated accounts fail here).
//  4. Reject tokens issued before the account's last password change.
//  5. Inject the [*sec.Principal] into the request context.
//
// Every failure mode is a distinct 401 so clients can tell "log in again"
// apart from "your session was invalidated".
func Protect(verifier TokenVerifier, identities IdentityStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// An upstream [MaybeAuthenticate] already paid for verification
			// and the identity lookup; reuse its principal instead of
			// running the whole gauntlet a second time.
			if ctxutil.GetAuthUser(request.Context()) != nil {
				next.ServeHTTP(writer, request)
				return
			}

			principal, err := authenticate(request, verifier, identities)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}
			next.ServeHTTP(writer, request.WithContext(
				ctxutil.WithAuthUser(request.Context(), principal),
			))
		})
	}
}

// MaybeAuthenticate attaches the principal when a valid token is present
// but lets every request through.
//
// Used on routes that render differently for logged-in users. Failures are
// swallowed: a bad or stale token here means "anonymous", never 401.
func MaybeAuthenticate(verifier TokenVerifier, identities IdentityStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal, err := authenticate(request, verifier, identities)
			if err != nil {
				next.ServeHTTP(writer, request)
				return
			}
			next.ServeHTTP(writer, request.WithContext(
				ctxutil.WithAuthUser(request.Context(), principal),
			))
		})
	}
}

// RequireRole blocks authenticated requests whose role is not in the
// allowed set. Authorization is plain membership, not a hierarchy: a
// lead-guide route does not automatically admit an admin unless the route
// lists admin too.
//
// Must be mounted AFTER [Protect]; an anonymous request fails with 401
// before the 403 check is ever reached.
func RequireRole(allowed ...sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal := ctxutil.GetAuthUser(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if principal == nil {
				respond.Error(writer, request, apperr.NotAuthenticated("You are not logged in. Please log in to get access."))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !principal.Role.In(allowed...) {
				respond.Error(writer, request, apperr.Forbidden("You do not have permission to perform this action"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// authenticate runs the full credential check shared by [Protect] and
// [MaybeAuthenticate].
func authenticate(request *http.Request, verifier TokenVerifier, identities IdentityStore) (*sec.Principal, error) {

	// ── 1. Token Extraction ───────────────────────────────────────────────
	tokenString := extractToken(request)
	if tokenString == "" {
		return nil, apperr.NotAuthenticated("You are not logged in. Please log in to get access.")
	}

	// ── 2. Token Verification ─────────────────────────────────────────────
	claims, err := verifier.VerifyToken(tokenString)
	if err != nil {
		if errors.Is(err, sec.ErrTokenExpired) {
			return nil, apperr.TokenExpired()
		}
		return nil, apperr.TokenInvalid()
	}

	// ── 3. Identity Resolution ────────────────────────────────────────────
	principal, err := identities.FindPrincipal(request.Context(), claims.SubjectID)
	if err != nil || principal == nil {
		return nil, apperr.NotAuthenticated("The user belonging to this token no longer exists.")
	}

	// ── 4. Credential Freshness ───────────────────────────────────────────
	if principal.PasswordChangedAfter(claims.IssuedAt) {
		return nil, apperr.StalePassword()
	}

	return principal, nil
}

// extractToken pulls the raw JWT from the request. The Authorization
// header takes precedence over the session cookie; the logout sentinel
// cookie value counts as no token at all.
func extractToken(request *http.Request) string {
	header := request.Header.Get(constants.HeaderAuthorization)
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	cookie, err := request.Cookie(constants.AuthCookieName)
	if err != nil || cookie.Value == constants.AuthCookieLoggedOut {
		return ""
	}
	return cookie.Value
}
