// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
//
// Every read excludes deactivated accounts: a soft-deleted user is
// invisible to the whole application, including to their own credentials.
type UserRepository interface {

	/*
		FindByID returns the active account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the active account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity (password hash included, for login)
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		Create persists a brand-new user account to the storage.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.DuplicateValue on a taken email, or persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		UpdateProfile persists changes to the self-service profile fields
		(name, email, photo). Credentials and role are out of its reach.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	UpdateProfile(context context.Context, user *User) error

	/*
		UpdatePassword replaces the password hash and bumps the
		password-changed timestamp, invalidating previously issued tokens.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, userID, newHash string) error

	/*
		Deactivate marks the account inactive without removing the row.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Persistence failures
	*/
	Deactivate(context context.Context, id string) error
}

// # Volatile Data Access

// ResetTokenRepository stores password-reset token digests.
//
// Only the SHA-256 digest of a token is ever persisted; the plaintext
// exists solely in the email sent to the user. A database leak therefore
// yields nothing usable.
type ResetTokenRepository interface {

	/*
		Set stores a reset-token digest for a userID with a limited lifetime.

		Parameters:
		  - context: context.Context
		  - tokenHash: string
		  - userID: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, tokenHash, userID string, ttl time.Duration) error

	/*
		Get retrieves the userID associated with a token digest.

		Parameters:
		  - context: context.Context
		  - tokenHash: string

		Returns:
		  - string: UserID
		  - error: apperr.ValidationError when absent or expired
	*/
	Get(context context.Context, tokenHash string) (string, error)

	/*
		Delete removes a token digest after use or on rollback.

		Parameters:
		  - context: context.Context
		  - tokenHash: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, tokenHash string) error
}
