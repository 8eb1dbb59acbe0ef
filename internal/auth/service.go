// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/trekora/internal/platform/apperr"
	"github.com/taibuivan/trekora/internal/platform/ctxutil"
	"github.com/taibuivan/trekora/internal/platform/queue"
	"github.com/taibuivan/trekora/internal/platform/sec"
	"github.com/taibuivan/trekora/pkg/uuidv7"
)

// # Contracts & Types

// TokenIssuer defines the contract for minting session tokens.
type TokenIssuer interface {
	// IssueToken creates a signed JWT for the given subject.
	IssueToken(subjectID string) (string, error)
}

// Service implements the identity and access use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, signup,
// or login logic must be reviewed by the security team.
type Service struct {
	users       UserRepository
	resetTokens ResetTokenRepository
	tokens      TokenIssuer
	events      queue.Publisher
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(users UserRepository, resetTokens ResetTokenRepository, tokens TokenIssuer, events queue.Publisher) *Service {
	return &Service{
		users:       users,
		resetTokens: resetTokens,
		tokens:      tokens,
		events:      events,
	}
}

// # Registration Flow

// SignupInput holds the data required to enroll a new member.
//
// Role is deliberately absent: every signup is a plain user, and elevation
// happens through a separate administrative path.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

/*
Signup validates, hashes, and persists a brand new user account, then logs
the new member straight in.

Parameters:
  - context: context.Context
  - input: SignupInput

Returns:
  - *User: Created entity
  - string: Signed session token
  - err: DuplicateValue (if the email is taken) or storage errors
*/
func (service *Service) Signup(context context.Context, input SignupInput) (*User, string, error) {

	// Prevent storing plain-text passwords. Cost 12 balances security and
	// CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, "", fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuidv7.New(),
		Name:         input.Name,
		Email:        normalizeEmail(input.Email),
		PasswordHash: hashedPassword,
		Role:         sec.RoleUser,
		Active:       true,
	}

	// Persist the user. A taken email surfaces as DuplicateValue from the
	// unique index, not from a racy pre-check.
	if err := service.users.Create(context, user); err != nil {
		return nil, "", err
	}

	// Issue the session token so signup doubles as the first login
	token, err := service.tokens.IssueToken(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("auth_service_token_issue_failed: %w", err)
	}

	// Hand the welcome flow to the notify worker. Best-effort: the account
	// exists either way.
	if err := service.events.Publish(context, queue.KeyUserRegistered, queue.UserRegistered{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}); err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "user_registered_publish_failed",
			slog.String("error", err.Error()),
		)
	}

	return user, token, nil
}

// # Authentication Flow

/*
Login validates credentials and issues a session token.

Description: Performs constant-time password comparison via bcrypt. The
failure message never reveals whether the email or the password was wrong.

Parameters:
  - context: context.Context
  - email: string
  - password: string

Returns:
  - *User: Authenticated account
  - string: Signed session token
  - err: NotAuthenticated or internal failures
*/
func (service *Service) Login(context context.Context, email, password string) (*User, string, error) {
	user, err := service.users.FindByEmail(context, normalizeEmail(email))

	// An unknown (or deactivated) account and a wrong password answer
	// identically to prevent enumeration.
	if err != nil || !sec.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", apperr.NotAuthenticated("Incorrect email or password")
	}

	token, err := service.tokens.IssueToken(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("auth_service_token_issue_failed: %w", err)
	}

	return user, token, nil
}

/*
FindPrincipal resolves a token subject to the live request identity.

Description: Satisfies the authentication middleware's identity store
contract. Deactivated and deleted accounts resolve to an error.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *sec.Principal: Request-scoped identity
  - err: NotFound or retrieval failures
*/
func (service *Service) FindPrincipal(context context.Context, userID string) (*sec.Principal, error) {
	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return nil, err
	}
	return user.Principal(), nil
}

// GetUser returns the active account with the given id.
func (service *Service) GetUser(context context.Context, userID string) (*User, error) {
	return service.users.FindByID(context, userID)
}

// # Password Recovery

/*
ForgotPassword initiates the reset flow for the given email.

Description: Generates a single-use token, stores only its digest, and
publishes the plaintext to the notify worker. If the event cannot be handed
to the broker, the stored digest is rolled back so no orphaned token stays
valid.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - err: NotFound (unknown email) or delivery failures
*/
func (service *Service) ForgotPassword(context context.Context, email string) error {
	user, err := service.users.FindByEmail(context, normalizeEmail(email))
	if err != nil {
		return err
	}

	// Generate the single-use token pair (plaintext + digest)
	resetToken, err := sec.NewResetToken()
	if err != nil {
		return fmt.Errorf("auth_service_generate_reset_token_failed: %w", err)
	}

	// Store the digest; the TTL is the expiry window
	if err := service.resetTokens.Set(context, resetToken.Hash, user.ID, sec.ResetTokenTTL); err != nil {
		return fmt.Errorf("auth_service_save_reset_token_failed: %w", err)
	}

	// Deliver the plaintext to the mailer. This is the flow's one hard
	// dependency on the broker: without the email the token is useless.
	err = service.events.Publish(context, queue.KeyPasswordResetRequested, queue.PasswordResetRequested{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Token:     resetToken.Plaintext,
		ExpiresAt: resetToken.ExpiresAt,
	})
	if err != nil {
		// Compensate: a token nobody received must not stay redeemable.
		_ = service.resetTokens.Delete(context, resetToken.Hash)
		return apperr.Internal(fmt.Errorf("auth_service_reset_email_publish_failed: %w", err))
	}

	return nil
}

/*
ResetPassword completes the forgot-password flow.

Description: Verifies the token by digest lookup, rotates the password, and
logs the user in with a fresh session token. The digest is consumed on use.

Parameters:
  - context: context.Context
  - plaintextToken: string
  - newPassword: string

Returns:
  - *User: Account after the rotation
  - string: Fresh session token
  - err: ValidationError (bad or expired token) or update failures
*/
func (service *Service) ResetPassword(context context.Context, plaintextToken, newPassword string) (*User, string, error) {

	// Look the token up by its digest; plaintext never touches storage
	userID, err := service.resetTokens.Get(context, sec.HashToken(plaintextToken))
	if err != nil {
		return nil, "", err
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return nil, "", fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	// Rotating the password also bumps passwordChangedAt, which invalidates
	// every previously issued session token.
	if err := service.users.UpdatePassword(context, userID, hashedPassword); err != nil {
		return nil, "", err
	}

	// Single use: consume the digest
	_ = service.resetTokens.Delete(context, sec.HashToken(plaintextToken))

	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return nil, "", err
	}

	token, err := service.tokens.IssueToken(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("auth_service_token_issue_failed: %w", err)
	}

	return user, token, nil
}

/*
UpdatePassword rotates the password of an authenticated user.

Description: Revalidates the current password first; possession of a valid
session token alone is not enough to change credentials.

Parameters:
  - context: context.Context
  - userID: string
  - currentPassword: string
  - newPassword: string

Returns:
  - *User: Account after the rotation
  - string: Fresh session token (the old one is now stale)
  - err: NotAuthenticated or update failures
*/
func (service *Service) UpdatePassword(context context.Context, userID, currentPassword, newPassword string) (*User, string, error) {
	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return nil, "", err
	}

	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return nil, "", apperr.NotAuthenticated("Your current password is wrong")
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return nil, "", fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	if err := service.users.UpdatePassword(context, userID, hashedPassword); err != nil {
		return nil, "", err
	}

	// The rotation staled the caller's own token; issue a replacement
	token, err := service.tokens.IssueToken(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("auth_service_token_issue_failed: %w", err)
	}

	return user, token, nil
}

// # Profile Self-Service

// UpdateProfileInput carries the self-service profile fields. Role,
// password, and the active flag are not reachable through this path.
type UpdateProfileInput struct {
	Name  string
	Email string
	Photo string
}

/*
UpdateProfile applies the allowlisted profile fields to the account.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *User: Updated account
  - err: DuplicateValue (email taken) or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*User, error) {
	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Email != "" {
		user.Email = normalizeEmail(input.Email)
	}
	if input.Photo != "" {
		user.Photo = input.Photo
	}

	if err := service.users.UpdateProfile(context, user); err != nil {
		return nil, err
	}
	return user, nil
}

/*
Deactivate soft-deletes the account.

Description: The row survives for bookings and reviews referential
integrity, but the account disappears from every default lookup, including
its own login.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - err: Storage failures
*/
func (service *Service) Deactivate(context context.Context, userID string) error {
	return service.users.Deactivate(context, userID)
}

// normalizeEmail canonicalizes an address for storage and lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
