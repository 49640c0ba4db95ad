// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

package sec_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physai/fieldbook/internal/platform/constants"
	"github.com/physai/fieldbook/internal/platform/sec"
)

const testSecret = "0123456789abcdef0123456789abcdef"

/*
TestNewTokenService_RejectsShortSecret verifies that weak signing secrets are
refused at construction time.
*/
func TestNewTokenService_RejectsShortSecret(t *testing.T) {
	_, err := sec.NewTokenService("too-short", constants.AuthIssuer)
	require.Error(t, err)

	_, err = sec.NewTokenService(testSecret, constants.AuthIssuer)
	assert.NoError(t, err)
}

/*
TestTokenService_AccessTokenRoundTrip verifies that an issued access token
verifies back to the same identity until it expires.
*/
func TestTokenService_AccessTokenRoundTrip(t *testing.T) {
	service, err := sec.NewTokenService(testSecret, constants.AuthIssuer)
	require.NoError(t, err)

	token, err := service.GenerateAccessToken("user-123", 15*time.Minute)
	require.NoError(t, err)

	claims, err := service.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, sec.TokenKindAccess, claims.Kind)
	assert.Equal(t, constants.AuthIssuer, claims.Issuer)
}

/*
TestTokenService_RejectsExpiredToken verifies expiry enforcement.
*/
func TestTokenService_RejectsExpiredToken(t *testing.T) {
	service, err := sec.NewTokenService(testSecret, constants.AuthIssuer)
	require.NoError(t, err)

	token, err := service.GenerateAccessToken("user-123", -time.Minute)
	require.NoError(t, err)

	_, err = service.VerifyAccessToken(token)
	assert.Error(t, err)
}

/*
TestTokenService_KindStrictness verifies that an access token is rejected by
refresh verification and vice versa.
*/
func TestTokenService_KindStrictness(t *testing.T) {
	service, err := sec.NewTokenService(testSecret, constants.AuthIssuer)
	require.NoError(t, err)

	accessToken, err := service.GenerateAccessToken("user-123", time.Minute)
	require.NoError(t, err)
	refreshToken, tokenID, err := service.GenerateRefreshToken("user-123", time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, tokenID)

	_, err = service.VerifyRefreshToken(accessToken)
	assert.Error(t, err)
	_, err = service.VerifyAccessToken(refreshToken)
	assert.Error(t, err)

	// The refresh token carries its jti for the revocation list.
	claims, err := service.VerifyRefreshToken(refreshToken)
	require.NoError(t, err)
	assert.Equal(t, tokenID, claims.ID)
}

/*
TestTokenService_RejectsTokenWithoutExpiry verifies that a correctly signed
token omitting the exp claim never validates. Logout derives the revocation
TTL from exp, so a token without one must be refused outright.
*/
func TestTokenService_RejectsTokenWithoutExpiry(t *testing.T) {
	service, err := sec.NewTokenService(testSecret, constants.AuthIssuer)
	require.NoError(t, err)

	claims := sec.AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  "user-123",
			Issuer:   constants.AuthIssuer,
			IssuedAt: jwt.NewNumericDate(time.Now()),
			ID:       "jti-1",
		},
		UserID: "user-123",
		Kind:   sec.TokenKindRefresh,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = service.VerifyRefreshToken(token)
	assert.Error(t, err)
}

/*
TestTokenService_RejectsForeignSignature verifies that a token signed with a
different secret never validates.
*/
func TestTokenService_RejectsForeignSignature(t *testing.T) {
	service, err := sec.NewTokenService(testSecret, constants.AuthIssuer)
	require.NoError(t, err)
	foreign, err := sec.NewTokenService("ffffffffffffffffffffffffffffffff", constants.AuthIssuer)
	require.NoError(t, err)

	token, err := foreign.GenerateAccessToken("user-123", time.Minute)
	require.NoError(t, err)

	_, err = service.VerifyAccessToken(token)
	assert.Error(t, err)
}
