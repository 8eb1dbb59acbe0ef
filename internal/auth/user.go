// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the user identity and access lifecycle.

It covers account creation, credential verification, session token issuance,
password recovery, and self-service profile management.

# Architecture

  - Service: Orchestrates the flows (Signup, Login, Forgot/Reset Password).
  - Repository: Abstracted interfaces for Postgres (accounts) and Redis
    (volatile reset-token digests).
  - Security: bcrypt for passwords, HS256 JWTs for sessions, SHA-256
    digests for single-use reset tokens.

The session token carries only the subject id. Role, active flag, and the
password-change timestamp are resolved fresh on every request, so account
changes take effect immediately.
*/
package auth

import (
	"time"

	"github.com/taibuivan/trekora/internal/platform/sec"
)

// # Domain Entities

// User represents a registered member of the Trekora platform.
type User struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Photo             string    `json:"photo,omitempty"`
	Role              sec.Role  `json:"role"`
	PasswordHash      string    `json:"-"` // Explicitly omitted from JSON for security.
	PasswordChangedAt time.Time `json:"-"`
	Active            bool      `json:"-"` // Soft-delete flag, internal only.
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Principal converts the account to the request-scoped identity attached
// by the authentication middleware.
func (u *User) Principal() *sec.Principal {
	return &sec.Principal{
		UserID:            u.ID,
		Name:              u.Name,
		Email:             u.Email,
		Role:              u.Role,
		PasswordChangedAt: u.PasswordChangedAt,
	}
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldPasswordConfirm = "password_confirm"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldToken           = "token"
	FieldMessage         = "message"
)
