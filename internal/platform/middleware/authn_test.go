// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/trekora/internal/platform/apperr"
	"github.com/taibuivan/trekora/internal/platform/ctxutil"
	"github.com/taibuivan/trekora/internal/platform/middleware"
	"github.com/taibuivan/trekora/internal/platform/sec"
)

// stubVerifier resolves fixed token strings to canned claims or errors.
type stubVerifier struct {
	claims map[string]*sec.TokenClaims
	errs   map[string]error
	calls  int
}

func (s *stubVerifier) VerifyToken(tokenString string) (*sec.TokenClaims, error) {
	s.calls++
	if err, ok := s.errs[tokenString]; ok {
		return nil, err
	}
	if claims, ok := s.claims[tokenString]; ok {
		return claims, nil
	}
	return nil, sec.ErrTokenMalformed
}

// stubIdentities serves principals from a map keyed by user id.
type stubIdentities struct {
	principals map[string]*sec.Principal
	lookups    int
}

func (s *stubIdentities) FindPrincipal(_ context.Context, userID string) (*sec.Principal, error) {
	s.lookups++
	principal, ok := s.principals[userID]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	return principal, nil
}

func authFixture() (*stubVerifier, *stubIdentities) {
	issued := time.Now().Add(-time.Hour)

	verifier := &stubVerifier{
		claims: map[string]*sec.TokenClaims{
			"good-token":  {SubjectID: "u1", IssuedAt: issued},
			"ghost-token": {SubjectID: "gone", IssuedAt: issued},
			"stale-token": {SubjectID: "u2", IssuedAt: issued},
		},
		errs: map[string]error{
			"expired-token": sec.ErrTokenExpired,
		},
	}

	identities := &stubIdentities{
		principals: map[string]*sec.Principal{
			"u1": {UserID: "u1", Name: "Ayla", Role: sec.RoleUser},
			"u2": {UserID: "u2", Name: "Mori", Role: sec.RoleUser, PasswordChangedAt: time.Now()},
		},
	}
	return verifier, identities
}

// protectedEcho mounts Protect around a handler that reports the principal.
func protectedEcho(verifier middleware.TokenVerifier, identities middleware.IdentityStore) http.Handler {
	var handler http.Handler = http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if principal := ctxutil.GetAuthUser(request.Context()); principal != nil {
			writer.Header().Set("X-User", principal.UserID)
		}
		writer.WriteHeader(http.StatusOK)
	})
	return middleware.Protect(verifier, identities)(handler)
}

func errCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	payload := map[string]any{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	code, _ := payload["code"].(string)
	return code
}

/*
TestProtect covers the full credential gauntlet: extraction, verification,
identity resolution, and credential freshness.
*/
func TestProtect(t *testing.T) {
	verifier, identities := authFixture()
	handler := protectedEcho(verifier, identities)

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
		wantCode   string
		wantUser   string
	}{
		{"valid_bearer_header", "Bearer good-token", "", http.StatusOK, "", "u1"},
		{"valid_session_cookie", "", "good-token", http.StatusOK, "", "u1"},
		{"no_credentials", "", "", http.StatusUnauthorized, apperr.CodeNotAuthenticated, ""},
		{"logged_out_sentinel_cookie", "", "loggedout", http.StatusUnauthorized, apperr.CodeNotAuthenticated, ""},
		{"malformed_header_scheme", "Token good-token", "", http.StatusUnauthorized, apperr.CodeNotAuthenticated, ""},
		{"header_wins_over_cookie", "Bearer expired-token", "good-token", http.StatusUnauthorized, apperr.CodeTokenExpired, ""},
		{"expired_token", "Bearer expired-token", "", http.StatusUnauthorized, apperr.CodeTokenExpired, ""},
		{"garbled_token", "Bearer nonsense", "", http.StatusUnauthorized, apperr.CodeTokenInvalid, ""},
		{"deleted_account", "Bearer ghost-token", "", http.StatusUnauthorized, apperr.CodeNotAuthenticated, ""},
		{"password_changed_after_issue", "Bearer stale-token", "", http.StatusUnauthorized, apperr.CodeStalePassword, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				request.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				request.AddCookie(&http.Cookie{Name: "jwt", Value: tt.cookie})
			}

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errCode(t, recorder))
			}
			if tt.wantUser != "" {
				assert.Equal(t, tt.wantUser, recorder.Header().Get("X-User"))
			}
		})
	}
}

/*
TestProtect_ReusesUpstreamPrincipal checks that a principal attached by an
upstream MaybeAuthenticate is reused as-is: the full chain costs exactly
one verification and one identity lookup per request, while failures the
soft pass swallowed are still re-checked and answered with their distinct
401 kind.
*/
func TestProtect_ReusesUpstreamPrincipal(t *testing.T) {
	t.Run("single_lookup_per_request", func(t *testing.T) {
		verifier, identities := authFixture()
		handler := middleware.MaybeAuthenticate(verifier, identities)(
			protectedEcho(verifier, identities),
		)

		request := httptest.NewRequest(http.MethodGet, "/me", nil)
		request.Header.Set("Authorization", "Bearer good-token")

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "u1", recorder.Header().Get("X-User"))
		assert.Equal(t, 1, verifier.calls)
		assert.Equal(t, 1, identities.lookups)
	})

	t.Run("swallowed_failure_still_rejected", func(t *testing.T) {
		verifier, identities := authFixture()
		handler := middleware.MaybeAuthenticate(verifier, identities)(
			protectedEcho(verifier, identities),
		)

		request := httptest.NewRequest(http.MethodGet, "/me", nil)
		request.Header.Set("Authorization", "Bearer expired-token")

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, apperr.CodeTokenExpired, errCode(t, recorder))
	})
}

/*
TestMaybeAuthenticate checks the soft variant: failures degrade to
anonymous instead of 401.
*/
func TestMaybeAuthenticate(t *testing.T) {
	verifier, identities := authFixture()

	var seen *sec.Principal
	handler := middleware.MaybeAuthenticate(verifier, identities)(
		http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			seen = ctxutil.GetAuthUser(request.Context())
			writer.WriteHeader(http.StatusOK)
		}),
	)

	t.Run("valid_token_attaches_principal", func(t *testing.T) {
		seen = nil
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("Authorization", "Bearer good-token")

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "u1", seen.UserID)
	})

	t.Run("bad_token_means_anonymous", func(t *testing.T) {
		seen = nil
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("Authorization", "Bearer expired-token")

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Nil(t, seen)
	})
}

/*
TestRequireRole checks role membership: no hierarchy, no implicit admin.
*/
func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		principal  *sec.Principal
		allowed    []sec.Role
		wantStatus int
	}{
		{"member_admitted", &sec.Principal{UserID: "u1", Role: sec.RoleLeadGuide}, []sec.Role{sec.RoleAdmin, sec.RoleLeadGuide}, http.StatusOK},
		{"non_member_forbidden", &sec.Principal{UserID: "u1", Role: sec.RoleUser}, []sec.Role{sec.RoleAdmin}, http.StatusForbidden},
		{"admin_not_implicitly_admitted", &sec.Principal{UserID: "u1", Role: sec.RoleAdmin}, []sec.Role{sec.RoleGuide}, http.StatusForbidden},
		{"anonymous_unauthorized", nil, []sec.Role{sec.RoleUser}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.RequireRole(tt.allowed...)(next)

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.principal != nil {
				request = request.WithContext(ctxutil.WithAuthUser(request.Context(), tt.principal))
			}

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
		})
	}
}
