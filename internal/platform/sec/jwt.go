// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via small interfaces ([middleware.TokenVerifier]).
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failures are split into two kinds because the middleware
// answers them differently (distinct 401 messages).
var (
	// ErrTokenExpired marks a well-formed token past its expiry.
	ErrTokenExpired = errors.New("sec: token expired")

	// ErrTokenMalformed marks a token that is garbled, tampered with, or
	// signed with the wrong key or algorithm.
	ErrTokenMalformed = errors.New("sec: token malformed")
)

// TokenClaims is the verified payload of an access token.
//
// # Deliberately Minimal
//
// The token carries only the subject id and issue time. Role and profile
// data are looked up fresh on every protected request so that a role
// downgrade or soft-delete takes effect immediately, and so the issued-at
// time can be compared against the account's password-change time.
type TokenClaims struct {
	// SubjectID is the account id the token was issued for.
	SubjectID string

	// IssuedAt is when the token was signed, at one-second resolution.
	IssuedAt time.Time
}

// TokenService issues and verifies HMAC-signed (HS256) access tokens.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenService creates a TokenService.
//
// # Parameters
//   - secret: The HMAC signing secret. Must be non-empty.
//   - issuer: The 'iss' claim stamped on every token.
//   - ttl: How long issued tokens remain valid.
func NewTokenService(secret, issuer string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("sec: signing secret must not be empty")
	}
	if ttl <= 0 {
		return nil, errors.New("sec: token ttl must be positive")
	}

	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}, nil
}

// IssueToken signs a new access token for the given subject.
func (service *TokenService) IssueToken(subjectID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subjectID,
		Issuer:    service.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(service.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyToken checks the signature and validity of a JWT string.
//
// # Returns
//   - [*TokenClaims] on success.
//   - [ErrTokenExpired] if the token is well-formed but past its expiry.
//   - [ErrTokenMalformed] for every other verification failure.
func (service *TokenService) VerifyToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	}, jwt.WithIssuer(service.issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return nil, ErrTokenMalformed
	}

	return &TokenClaims{
		SubjectID: claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
	}, nil
}

// TTL returns the configured token lifetime.
// Exposed so handlers can derive cookie expiry from the same value.
func (service *TokenService) TTL() time.Duration {
	return service.ttl
}
