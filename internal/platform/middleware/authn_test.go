// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physai/fieldbook/internal/platform/constants"
	"github.com/physai/fieldbook/internal/platform/ctxutil"
	"github.com/physai/fieldbook/internal/platform/middleware"
	"github.com/physai/fieldbook/internal/platform/respond"
	"github.com/physai/fieldbook/internal/platform/sec"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// guardedEndpoint assembles the production chain around a handler that records
// whether it was reached: Authenticate resolves the cookie, RequireAuth gates.
func guardedEndpoint(verifier middleware.TokenVerifier, reached *bool, claims **sec.AuthClaims) http.Handler {
	inner := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		*reached = true
		if claims != nil {
			*claims = ctxutil.GetAuthUser(request.Context())
		}
		respond.NoContent(writer)
	})
	return middleware.Authenticate(verifier)(middleware.RequireAuth(inner))
}

// errorCode decodes the machine-readable code from an error envelope body.
func errorCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope respond.ErrorEnvelope
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&envelope))
	return envelope.Code
}

/*
TestRequireAuth_StaleCookieReportsSessionExpired verifies that a cookie which
WAS presented but fails verification renders as SESSION_EXPIRED on guarded
routes, so clients know to refresh instead of treating it as a hard denial.
*/
func TestRequireAuth_StaleCookieReportsSessionExpired(t *testing.T) {
	tokens, err := sec.NewTokenService(testSecret, constants.AuthIssuer)
	require.NoError(t, err)

	expiredToken, err := tokens.GenerateAccessToken("user-123", -time.Minute)
	require.NoError(t, err)
	refreshToken, _, err := tokens.GenerateRefreshToken("user-123", time.Minute)
	require.NoError(t, err)

	testCases := []struct {
		name   string
		cookie string
	}{
		{"expired_access_token", expiredToken},
		{"garbage_token", "not-a-jwt"},
		{"refresh_token_as_access", refreshToken}, // kind-strict verification
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var reached bool
			endpoint := guardedEndpoint(tokens, &reached, nil)

			request := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			request.AddCookie(&http.Cookie{Name: constants.AccessTokenCookieName, Value: testCase.cookie})
			recorder := httptest.NewRecorder()

			endpoint.ServeHTTP(recorder, request)

			assert.False(t, reached)
			assert.Equal(t, http.StatusUnauthorized, recorder.Code)
			assert.Equal(t, "SESSION_EXPIRED", errorCode(t, recorder))
		})
	}
}

/*
TestRequireAuth_MissingCookie verifies that a request without any access
cookie is rejected with the plain authentication-required error, NOT as an
expired session — there was never a session to expire.
*/
func TestRequireAuth_MissingCookie(t *testing.T) {
	tokens, err := sec.NewTokenService(testSecret, constants.AuthIssuer)
	require.NoError(t, err)

	var reached bool
	endpoint := guardedEndpoint(tokens, &reached, nil)

	request := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	recorder := httptest.NewRecorder()

	endpoint.ServeHTTP(recorder, request)

	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, recorder))
}

/*
TestRequireAuth_ValidCookiePasses verifies the happy path: a live access
cookie flows through both middlewares and the handler sees the claims.
*/
func TestRequireAuth_ValidCookiePasses(t *testing.T) {
	tokens, err := sec.NewTokenService(testSecret, constants.AuthIssuer)
	require.NoError(t, err)

	accessToken, err := tokens.GenerateAccessToken("user-123", time.Minute)
	require.NoError(t, err)

	var reached bool
	var claims *sec.AuthClaims
	endpoint := guardedEndpoint(tokens, &reached, &claims)

	request := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	request.AddCookie(&http.Cookie{Name: constants.AccessTokenCookieName, Value: accessToken})
	recorder := httptest.NewRecorder()

	endpoint.ServeHTTP(recorder, request)

	assert.True(t, reached)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	require.NotNil(t, claims)
	assert.Equal(t, "user-123", claims.UserID)
}
