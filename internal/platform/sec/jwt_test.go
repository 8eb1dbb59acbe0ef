// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/trekora/internal/platform/sec"
)

const (
	testSecret = "test-signing-secret"
	testIssuer = "trekora"
)

func newTokenService(t *testing.T) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService(testSecret, testIssuer, time.Hour)
	require.NoError(t, err)
	return service
}

// signRaw builds and signs a token outside the service, for forging
// expired, foreign, or misconfigured tokens.
func signRaw(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

/*
TestTokenService_RoundTrip checks that a freshly issued token verifies back
to the same subject with a sane issue time.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service := newTokenService(t)

	before := time.Now()
	token, err := service.IssueToken("u1")
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)

	assert.Equal(t, "u1", claims.SubjectID)
	assert.False(t, claims.IssuedAt.After(time.Now()))
	// Issue time is stamped at one-second resolution.
	assert.False(t, claims.IssuedAt.Before(before.Truncate(time.Second)))
}

/*
TestTokenService_VerifyFailures checks the two failure kinds: only a
well-formed token past its expiry is ErrTokenExpired, everything else
(wrong key, wrong algorithm, wrong issuer, missing subject, garbage) is
ErrTokenMalformed.
*/
func TestTokenService_VerifyFailures(t *testing.T) {
	service := newTokenService(t)
	now := time.Now()

	valid := jwt.RegisteredClaims{
		Subject:   "u1",
		Issuer:    testIssuer,
		IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))

	wrongIssuer := valid
	wrongIssuer.Issuer = "somebody-else"

	noSubject := valid
	noSubject.Subject = ""

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"expired", signRaw(t, jwt.SigningMethodHS256, testSecret, expired), sec.ErrTokenExpired},
		{"wrong_key", signRaw(t, jwt.SigningMethodHS256, "other-secret", valid), sec.ErrTokenMalformed},
		{"wrong_algorithm", signRaw(t, jwt.SigningMethodHS512, testSecret, valid), sec.ErrTokenMalformed},
		{"wrong_issuer", signRaw(t, jwt.SigningMethodHS256, testSecret, wrongIssuer), sec.ErrTokenMalformed},
		{"missing_subject", signRaw(t, jwt.SigningMethodHS256, testSecret, noSubject), sec.ErrTokenMalformed},
		{"garbage", "not.a.token", sec.ErrTokenMalformed},
		{"empty", "", sec.ErrTokenMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.VerifyToken(tt.token)

			assert.Nil(t, claims)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

/*
TestNewTokenService_Validation checks the constructor guards.
*/
func TestNewTokenService_Validation(t *testing.T) {
	_, err := sec.NewTokenService("", testIssuer, time.Hour)
	assert.Error(t, err)

	_, err = sec.NewTokenService(testSecret, testIssuer, 0)
	assert.Error(t, err)
}
