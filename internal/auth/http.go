// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/trekora/internal/platform/apperr"
	"github.com/taibuivan/trekora/internal/platform/constants"
	requestutil "github.com/taibuivan/trekora/internal/platform/request"
	"github.com/taibuivan/trekora/internal/platform/respond"
	"github.com/taibuivan/trekora/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the authentication and profile self-service endpoints.
type Handler struct {
	service  *Service
	protect  func(http.Handler) http.Handler
	tokenTTL time.Duration

	// secureCookies is disabled in development so the session cookie
	// survives plain-HTTP localhost.
	secureCookies bool
}

// NewHandler constructs a new [Handler].
//
// protect is the authentication middleware guarding the self-service routes;
// it is injected so the handler does not depend on how tokens are verified.
func NewHandler(service *Service, protect func(http.Handler) http.Handler, tokenTTL time.Duration, secureCookies bool) *Handler {
	return &Handler{
		service:       service,
		protect:       protect,
		tokenTTL:      tokenTTL,
		secureCookies: secureCookies,
	}
}

// Routes returns a [chi.Router] with the authentication endpoints.
//
// # Endpoints
//   - POST  /signup                  : Creates an account and logs it in.
//   - POST  /login                   : Authenticates and returns a JWT.
//   - GET   /logout                  : Clears the session cookie.
//   - POST  /forgot-password         : Starts the reset flow.
//   - PATCH /reset-password/{token}  : Completes the reset flow.
//   - PATCH /update-my-password      : Rotates the password (authenticated).
//   - GET/PATCH/DELETE /me           : Profile self-service (authenticated).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/signup", handler.signup)
	router.Post("/login", handler.login)
	router.Get("/logout", handler.logout)
	router.Post("/forgot-password", handler.forgotPassword)
	router.Patch("/reset-password/{token}", handler.resetPassword)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(handler.protect)
		r.Patch("/update-my-password", handler.updatePassword)
		r.Get("/me", handler.me)
		r.Patch("/me", handler.updateMe)
		r.Delete("/me", handler.deleteMe)
	})

	return router
}

// # Request Payloads

type signupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type updateMeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`

	// Password is decoded only to be rejected: password changes have their
	// own route with current-password revalidation.
	Password string `json:"password"`
}

/*
Signup creates a new user account.

POST /api/v1/users/signup

Description: Validates input, hashes the password, persists the account,
and immediately establishes a session. The role is always 'user' — elevated
roles can never be requested at signup.

Request:
  - Body: signupRequest (Name, Email, Password, PasswordConfirm)

Response:
  - 201: Token and created user profile
  - 400: ErrInvalidJSON / validation failure / duplicate email
*/
func (handler *Handler) signup(writer http.ResponseWriter, request *http.Request) {
	var input signupRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		MinLen(FieldName, input.Name, NameMinLength).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, PasswordMinLength)

	validator.Custom(FieldPasswordConfirm, input.Password != input.PasswordConfirm, "does not match password")

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, token, err := handler.service.Signup(request.Context(), SignupInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookie(writer, token)
	respond.Created(writer, map[string]any{
		"token": token,
		"user":  user,
	})
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/users/login

Description: Verifies credentials, issues a JWT, and mirrors it into an
HttpOnly cookie for browser clients.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: Token and user profile
  - 401: Incorrect email or password (never says which)
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, token, err := handler.service.Login(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookie(writer, token)
	respond.OK(writer, map[string]any{
		"token": token,
		"user":  user,
	})
}

/*
Logout clears the browser session.

GET /api/v1/users/logout

Description: Overwrites the session cookie with the logged-out sentinel.
The middleware treats the sentinel as an absent token, so the browser is
anonymous from the next request on. Bearer clients just drop their token.

Response:
  - 200: Success envelope
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.AuthCookieName,
		Value:    constants.AuthCookieLoggedOut,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		Secure:   handler.secureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	respond.OK(writer, map[string]string{
		FieldMessage: "Logged out successfully",
	})
}

/*
ForgotPassword initiates the password recovery flow.

POST /api/v1/users/forgot-password

Description: Generates a single-use reset token and hands it to the mailer.

Request:
  - Body: forgotPasswordRequest (Email)

Response:
  - 200: Token sent to email
  - 404: No account with that email
  - 500: Delivery failure (the token was rolled back)
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ForgotPassword(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Token sent to email",
	})
}

/*
ResetPassword completes the password recovery flow.

PATCH /api/v1/users/reset-password/{token}

Description: Validates the emailed token, rotates the password, and logs
the user in with a fresh session.

Request:
  - URL: token (plaintext reset token from the email)
  - Body: resetPasswordRequest (Password, PasswordConfirm)

Response:
  - 200: Fresh token and user profile
  - 400: Token invalid/expired or weak password
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	plaintextToken := requestutil.Param(request, FieldToken)

	var input resetPasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, PasswordMinLength)

	v.Custom(FieldPasswordConfirm, input.Password != input.PasswordConfirm, "does not match password")

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, token, err := handler.service.ResetPassword(request.Context(), plaintextToken, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookie(writer, token)
	respond.OK(writer, map[string]any{
		"token": token,
		"user":  user,
	})
}

/*
UpdatePassword rotates the authenticated user's password.

PATCH /api/v1/users/update-my-password

Description: Revalidates the current password, applies the new one, and
issues a replacement token (the old one is stale the moment the rotation
commits).

Request:
  - Body: updatePasswordRequest (CurrentPassword, NewPassword)

Response:
  - 200: Fresh token and user profile
  - 401: Current password wrong or session invalid
*/
func (handler *Handler) updatePassword(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updatePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldNewPassword, input.NewPassword).
		MinLen(FieldNewPassword, input.NewPassword, PasswordMinLength)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, token, err := handler.service.UpdatePassword(
		request.Context(), principal.UserID, input.CurrentPassword, input.NewPassword,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookie(writer, token)
	respond.OK(writer, map[string]any{
		"token": token,
		"user":  user,
	})
}

/*
Me returns the authenticated user's profile.

GET /api/v1/users/me

Response:
  - 200: User profile
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.GetUser(request.Context(), principal.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
UpdateMe updates the authenticated user's profile fields.

PATCH /api/v1/users/me

Description: Accepts name, email, and photo only. A password in the payload
is rejected outright instead of silently ignored, pointing the client at
the dedicated password route.

Request:
  - Body: updateMeRequest (Name, Email, Photo)

Response:
  - 200: Updated profile
  - 400: Password present, duplicate email, or validation failure
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateMeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Password != "" {
		respond.Error(writer, request, apperr.ValidationError(
			"This route is not for password updates. Please use /update-my-password",
		))
		return
	}

	v := &validate.Validator{}
	if input.Email != "" {
		v.Email(FieldEmail, input.Email)
	}
	if input.Name != "" {
		v.MinLen(FieldName, input.Name, NameMinLength)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.UpdateProfile(request.Context(), principal.UserID, UpdateProfileInput{
		Name:  input.Name,
		Email: input.Email,
		Photo: input.Photo,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DeleteMe deactivates the authenticated user's account.

DELETE /api/v1/users/me

Description: Soft delete. The account vanishes from every lookup but the
row survives for referential integrity of bookings and reviews.

Response:
  - 204: No Content
*/
func (handler *Handler) deleteMe(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Deactivate(request.Context(), principal.UserID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// setSessionCookie mirrors the freshly issued JWT into an HttpOnly cookie
// for browser clients. Bearer clients can ignore it; the Authorization
// header always wins over the cookie.
func (handler *Handler) setSessionCookie(writer http.ResponseWriter, token string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.AuthCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(handler.tokenTTL),
		Secure:   handler.secureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
