// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/physai/fieldbook/internal/platform/apperr"
	"github.com/physai/fieldbook/internal/platform/constants"
	"github.com/physai/fieldbook/internal/platform/ctxutil"
	"github.com/physai/fieldbook/internal/platform/middleware"
	"github.com/physai/fieldbook/internal/platform/respond"
	"github.com/physai/fieldbook/internal/platform/validate"
	"github.com/physai/fieldbook/internal/profile"
)

// ProfileSource lets the /auth/me endpoint embed the questionnaire profile
// without coupling this handler to the profile service's full surface.
type ProfileSource interface {
	// FindByAccountID returns [apperr.NotFound] when the account has not
	// completed the questionnaire yet.
	FindByAccountID(ctx context.Context, accountID string) (*profile.Profile, error)
}

// Handler implements the authentication HTTP endpoints.
//
// # Cookie Contract
//
// Tokens travel exclusively as HttpOnly SameSite=Lax cookies (Secure in
// production) — they are never placed in response bodies where script could
// read them. The refresh cookie is path-scoped to the auth route group.
type Handler struct {
	authService   *Service
	profiles      ProfileSource
	secureCookies bool
}

// NewHandler constructs an auth [Handler].
//
// secureCookies should be true in production so cookies are HTTPS-only.
func NewHandler(service *Service, profiles ProfileSource, secureCookies bool) *Handler {
	return &Handler{
		authService:   service,
		profiles:      profiles,
		secureCookies: secureCookies,
	}
}

// Routes returns a [chi.Router] with the authentication endpoints.
//
// # Endpoints
//   - POST /register : Creates a new account.
//   - POST /login    : Authenticates and sets the token cookies.
//   - POST /logout   : Revokes the refresh token and clears cookies.
//   - POST /refresh  : Rotates the access cookie from the refresh cookie.
//   - GET  /me       : Returns the authenticated identity plus profile.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/logout", handler.logout)
	router.Post("/refresh", handler.refresh)
	router.With(middleware.RequireAuth).Get("/me", handler.me)

	return router
}

// credentialsRequest is the JSON payload shared by register and login.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// register handles POST /api/v1/auth/register.
//
// # Returns
//   - 201 Created with the new account summary.
//   - 400 Bad Request for a malformed email or weak password.
//   - 409 Conflict for an already-registered email.
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input credentialsRequest
	if err := json.NewDecoder(request.Body).Decode(&input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	account, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:     input.Email,
		Password:  input.Password,
		SourceIP:  middleware.RealIP(request),
		UserAgent: request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, account)
}

// loginResponse carries the authenticated identity. Tokens are delivered in
// cookies only.
type loginResponse struct {
	User *Account `json:"user"`
}

// login handles POST /api/v1/auth/login.
//
// # Returns
//   - 200 OK with the account summary; access+refresh cookies are set.
//   - 401 Unauthorized for bad credentials (identical for unknown email
//     and wrong password).
//   - 423 Locked while the account lockout is active.
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input credentialsRequest
	if err := json.NewDecoder(request.Body).Decode(&input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Email == "" || input.Password == "" {
		respond.Error(writer, request, validate.RequiredError("email/password", "are required"))
		return
	}

	session, err := handler.authService.Authenticate(request.Context(), AuthenticateInput{
		Email:     input.Email,
		Password:  input.Password,
		SourceIP:  middleware.RealIP(request),
		UserAgent: request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setAuthCookies(writer, session)
	respond.OK(writer, loginResponse{User: session.Account})
}

// logout handles POST /api/v1/auth/logout.
//
// Always succeeds: the refresh token is revoked if it still resolves to an
// identity, and both cookies are cleared regardless.
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if cookie, err := request.Cookie(constants.RefreshTokenCookieName); err == nil {
		handler.authService.Logout(request.Context(), cookie.Value,
			middleware.RealIP(request), request.UserAgent())
	}

	handler.clearAuthCookies(writer)
	respond.NoContent(writer)
}

// refreshResponse tells the UI when the new access token expires.
type refreshResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// refresh handles POST /api/v1/auth/refresh.
//
// # Returns
//   - 200 OK with the new expiry; the access cookie is replaced.
//   - 401 Unauthorized (SESSION_EXPIRED) when the refresh cookie is absent,
//     invalid, expired, or revoked — the caller must re-authenticate.
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil {
		respond.Error(writer, request, apperr.SessionExpired())
		return
	}

	refreshed, err := handler.authService.Refresh(request.Context(), RefreshInput{
		RefreshToken: cookie.Value,
		SourceIP:     middleware.RealIP(request),
		UserAgent:    request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setAccessCookie(writer, refreshed.AccessToken, handler.authService.Policy().AccessTokenTTL)
	respond.OK(writer, refreshResponse{ExpiresAt: refreshed.AccessExpiresAt})
}

// meResponse is the combined identity + questionnaire payload.
type meResponse struct {
	User    *Account         `json:"user"`
	Profile *profile.Profile `json:"profile"` // null until the questionnaire is completed
}

// me handles GET /api/v1/auth/me (requires a valid access cookie).
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	claims := ctxutil.GetAuthUser(request.Context())

	account, err := handler.authService.CurrentUser(request.Context(), claims.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	userProfile, err := handler.profiles.FindByAccountID(request.Context(), account.ID)
	if err != nil && !apperr.IsNotFound(err) {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, meResponse{User: account, Profile: userProfile})
}

// # Cookie Plumbing

// setAuthCookies installs both token cookies after login.
func (handler *Handler) setAuthCookies(writer http.ResponseWriter, session *Session) {
	policy := handler.authService.Policy()

	handler.setAccessCookie(writer, session.AccessToken, policy.AccessTokenTTL)

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    session.RefreshToken,
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   int(policy.RefreshTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   handler.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// setAccessCookie installs (or replaces) the access token cookie.
func (handler *Handler) setAccessCookie(writer http.ResponseWriter, token string, timeToLive time.Duration) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.AccessTokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(timeToLive.Seconds()),
		HttpOnly: true,
		Secure:   handler.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearAuthCookies expires both token cookies on the client.
func (handler *Handler) clearAuthCookies(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.AccessTokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   handler.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   handler.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
