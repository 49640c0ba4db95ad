// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

package middleware

import (
	"net/http"

	"github.com/physai/fieldbook/internal/platform/apperr"
	"github.com/physai/fieldbook/internal/platform/constants"
	"github.com/physai/fieldbook/internal/platform/ctxutil"
	"github.com/physai/fieldbook/internal/platform/respond"
	"github.com/physai/fieldbook/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify access tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the sec package's
// concrete TokenService, allowing us to easily inject mocks during unit testing.
type TokenVerifier interface {
	VerifyAccessToken(tokenStr string) (*sec.AuthClaims, error)
}

// Authenticate extracts and verifies the access token from its HttpOnly cookie.
//
// # Flow
//  1. Check for the access_token cookie.
//  2. If absent, the request proceeds as anonymous (rate-limited elsewhere).
//  3. If present but invalid/expired, the request ALSO proceeds as anonymous,
//     with a stale-session marker in context — route guards decide whether
//     anonymity is acceptable. A stale cookie on a public endpoint must not
//     produce a 401, but [RequireAuth] reports it as an expired session.
//  4. On success, inject [*sec.AuthClaims] into the request context.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			cookie, err := request.Cookie(constants.AccessTokenCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(writer, request)
				return
			}

			claims, err := verifier.VerifyAccessToken(cookie.Value)
			if err != nil {
				ctx := ctxutil.WithStaleSession(request.Context())
				next.ServeHTTP(writer, request.WithContext(ctx))
				return
			}

			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// A cookie that was presented but failed verification renders as
// SESSION_EXPIRED so clients know to refresh; a request with no cookie at all
// gets the plain authentication-required error.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := ctxutil.GetAuthUser(request.Context())
		if claims == nil {
			if ctxutil.HasStaleSession(request.Context()) {
				respond.Error(writer, request, apperr.SessionExpired())
				return
			}
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}
