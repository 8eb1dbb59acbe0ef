// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/trekora/internal/auth"
	"github.com/taibuivan/trekora/internal/platform/apperr"
	"github.com/taibuivan/trekora/internal/platform/queue"
	"github.com/taibuivan/trekora/internal/platform/sec"
)

// # Test Doubles

type fakeUserRepo struct {
	users map[string]*auth.User // by id
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*auth.User{}}
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*auth.User, error) {
	user, ok := f.users[id]
	if !ok || !user.Active {
		return nil, apperr.NotFound("user")
	}
	return user, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, user := range f.users {
		if user.Email == email && user.Active {
			return user, nil
		}
	}
	return nil, apperr.NotFound("user")
}

func (f *fakeUserRepo) Create(_ context.Context, user *auth.User) error {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return apperr.DuplicateValue("Duplicate value: a record with these details already exists")
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, user *auth.User) error {
	stored, ok := f.users[user.ID]
	if !ok || !stored.Active {
		return apperr.NotFound("user")
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, userID, newHash string) error {
	user, ok := f.users[userID]
	if !ok || !user.Active {
		return apperr.NotFound("user")
	}
	user.PasswordHash = newHash
	user.PasswordChangedAt = time.Now()
	return nil
}

func (f *fakeUserRepo) Deactivate(_ context.Context, id string) error {
	user, ok := f.users[id]
	if !ok || !user.Active {
		return apperr.NotFound("user")
	}
	user.Active = false
	return nil
}

type fakeResetRepo struct {
	digests map[string]string // digest -> userID
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{digests: map[string]string{}}
}

func (f *fakeResetRepo) Set(_ context.Context, tokenHash, userID string, _ time.Duration) error {
	f.digests[tokenHash] = userID
	return nil
}

func (f *fakeResetRepo) Get(_ context.Context, tokenHash string) (string, error) {
	userID, ok := f.digests[tokenHash]
	if !ok {
		return "", apperr.ValidationError("Token is invalid or has expired")
	}
	return userID, nil
}

func (f *fakeResetRepo) Delete(_ context.Context, tokenHash string) error {
	delete(f.digests, tokenHash)
	return nil
}

type fakeIssuer struct{}

func (fakeIssuer) IssueToken(subjectID string) (string, error) {
	return "token-for-" + subjectID, nil
}

type fakePublisher struct {
	published []string // routing keys in order
	events    []any
	failNext  error
}

func (f *fakePublisher) Publish(_ context.Context, key string, event any) error {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.published = append(f.published, key)
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func newService() (*auth.Service, *fakeUserRepo, *fakeResetRepo, *fakePublisher) {
	users := newFakeUserRepo()
	resets := newFakeResetRepo()
	events := &fakePublisher{}
	return auth.NewService(users, resets, fakeIssuer{}, events), users, resets, events
}

func signupFixture(t *testing.T, service *auth.Service) *auth.User {
	t.Helper()
	user, _, err := service.Signup(context.Background(), auth.SignupInput{
		Name:     "Ayla Vance",
		Email:    "Ayla@Trekora.App",
		Password: "pass1234",
	})
	require.NoError(t, err)
	return user
}

/*
TestService_Signup verifies account creation: hashing, normalization,
forced role, session issuance, and the welcome event.
*/
func TestService_Signup(t *testing.T) {
	service, _, _, events := newService()

	user, token, err := service.Signup(context.Background(), auth.SignupInput{
		Name:     "Ayla Vance",
		Email:    "  Ayla@Trekora.App ",
		Password: "pass1234",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ayla@trekora.app", user.Email, "email must be normalized")
	assert.Equal(t, sec.RoleUser, user.Role, "signup can never pick a role")
	assert.Equal(t, "token-for-"+user.ID, token)

	assert.NotEqual(t, "pass1234", user.PasswordHash)
	assert.True(t, sec.CheckPasswordHash("pass1234", user.PasswordHash))

	require.Len(t, events.published, 1)
	assert.Equal(t, "user.registered", events.published[0])
}

/*
TestService_Signup_DuplicateEmail verifies the unique-email failure mode.
*/
func TestService_Signup_DuplicateEmail(t *testing.T) {
	service, _, _, _ := newService()
	signupFixture(t, service)

	_, _, err := service.Signup(context.Background(), auth.SignupInput{
		Name:     "Impostor",
		Email:    "ayla@trekora.app",
		Password: "different1",
	})

	require.Error(t, err)
	assert.Equal(t, apperr.CodeDuplicateValue, apperr.As(err).Code)
}

/*
TestService_Login covers credential verification, including the identical
answer for unknown accounts and wrong passwords.
*/
func TestService_Login(t *testing.T) {
	service, _, _, _ := newService()
	created := signupFixture(t, service)

	t.Run("valid_credentials", func(t *testing.T) {
		user, token, err := service.Login(context.Background(), "ayla@trekora.app", "pass1234")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
		assert.NotEmpty(t, token)
	})

	t.Run("wrong_password_and_unknown_email_answer_identically", func(t *testing.T) {
		_, _, errWrongPassword := service.Login(context.Background(), "ayla@trekora.app", "wrongpass")
		_, _, errUnknownEmail := service.Login(context.Background(), "ghost@trekora.app", "pass1234")

		require.Error(t, errWrongPassword)
		require.Error(t, errUnknownEmail)
		assert.Equal(t, errWrongPassword.Error(), errUnknownEmail.Error())
		assert.Equal(t, apperr.CodeNotAuthenticated, apperr.As(errWrongPassword).Code)
	})

	t.Run("deactivated_account_cannot_login", func(t *testing.T) {
		require.NoError(t, service.Deactivate(context.Background(), created.ID))

		_, _, err := service.Login(context.Background(), "ayla@trekora.app", "pass1234")
		require.Error(t, err)
		assert.Equal(t, apperr.CodeNotAuthenticated, apperr.As(err).Code)
	})
}

/*
TestService_ForgotPassword verifies digest-only storage and the rollback
when the reset email cannot be handed to the broker.
*/
func TestService_ForgotPassword(t *testing.T) {
	t.Run("stores_digest_not_plaintext", func(t *testing.T) {
		service, _, resets, events := newService()
		signupFixture(t, service)

		require.NoError(t, service.ForgotPassword(context.Background(), "ayla@trekora.app"))

		require.Len(t, events.published, 2) // registered + reset
		assert.Equal(t, "user.password_reset_requested", events.published[1])

		event := events.events[1].(queue.PasswordResetRequested)
		require.NotEmpty(t, event.Token)
		assert.Contains(t, resets.digests, sec.HashToken(event.Token))
		assert.NotContains(t, resets.digests, event.Token, "plaintext must never be a storage key")
	})

	t.Run("unknown_email_is_not_found", func(t *testing.T) {
		service, _, _, _ := newService()

		err := service.ForgotPassword(context.Background(), "nobody@trekora.app")
		require.Error(t, err)
		assert.Equal(t, apperr.CodeNotFound, apperr.As(err).Code)
	})

	t.Run("publish_failure_rolls_the_token_back", func(t *testing.T) {
		service, _, resets, events := newService()
		signupFixture(t, service)
		events.failNext = errors.New("broker down")

		err := service.ForgotPassword(context.Background(), "ayla@trekora.app")
		require.Error(t, err)
		assert.Equal(t, apperr.CodeInternal, apperr.As(err).Code)
		assert.Empty(t, resets.digests, "an undeliverable token must not stay redeemable")
	})
}

/*
TestService_ResetPassword verifies the digest lookup, the single-use
consumption, and the password rotation.
*/
func TestService_ResetPassword(t *testing.T) {
	service, _, resets, events := newService()
	created := signupFixture(t, service)

	require.NoError(t, service.ForgotPassword(context.Background(), "ayla@trekora.app"))

	// The plaintext travels only inside the published event.
	event := events.events[1].(queue.PasswordResetRequested)
	plaintext := event.Token
	require.NotEmpty(t, plaintext)
	assert.NotContains(t, resets.digests, plaintext, "plaintext must never be a storage key")
	assert.Contains(t, resets.digests, sec.HashToken(plaintext))

	t.Run("bad_token_rejected", func(t *testing.T) {
		_, _, err := service.ResetPassword(context.Background(), "forged-token", "newpass99")
		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.As(err).Code)
	})

	t.Run("valid_token_rotates_and_consumes", func(t *testing.T) {
		user, token, err := service.ResetPassword(context.Background(), plaintext, "newpass99")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
		assert.NotEmpty(t, token)

		assert.True(t, sec.CheckPasswordHash("newpass99", user.PasswordHash))
		assert.Empty(t, resets.digests, "token must be single-use")

		_, _, err = service.ResetPassword(context.Background(), plaintext, "again1234")
		require.Error(t, err, "a consumed token must not work twice")
	})
}

/*
TestService_UpdatePassword verifies current-password revalidation.
*/
func TestService_UpdatePassword(t *testing.T) {
	service, _, _, _ := newService()
	created := signupFixture(t, service)

	t.Run("wrong_current_password", func(t *testing.T) {
		_, _, err := service.UpdatePassword(context.Background(), created.ID, "wrongpass", "newpass99")
		require.Error(t, err)
		assert.Equal(t, apperr.CodeNotAuthenticated, apperr.As(err).Code)
	})

	t.Run("rotation_bumps_changed_timestamp", func(t *testing.T) {
		before := created.PasswordChangedAt

		user, token, err := service.UpdatePassword(context.Background(), created.ID, "pass1234", "newpass99")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.True(t, user.PasswordChangedAt.After(before))
		assert.True(t, sec.CheckPasswordHash("newpass99", user.PasswordHash))
	})
}

/*
TestService_UpdateProfile verifies the self-service field allowlist.
*/
func TestService_UpdateProfile(t *testing.T) {
	service, _, _, _ := newService()
	created := signupFixture(t, service)

	user, err := service.UpdateProfile(context.Background(), created.ID, auth.UpdateProfileInput{
		Name:  "Ayla V.",
		Email: "NEW@Trekora.App",
	})
	require.NoError(t, err)

	assert.Equal(t, "Ayla V.", user.Name)
	assert.Equal(t, "new@trekora.app", user.Email)
	assert.Equal(t, sec.RoleUser, user.Role, "profile updates can never touch the role")
}

/*
TestService_FindPrincipal verifies the middleware identity adapter,
including the disappearance of deactivated accounts.
*/
func TestService_FindPrincipal(t *testing.T) {
	service, _, _, _ := newService()
	created := signupFixture(t, service)

	principal, err := service.FindPrincipal(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, principal.UserID)
	assert.Equal(t, sec.RoleUser, principal.Role)

	require.NoError(t, service.Deactivate(context.Background(), created.ID))

	_, err = service.FindPrincipal(context.Background(), created.ID)
	require.Error(t, err, "a deactivated account must not resolve to a principal")
}
