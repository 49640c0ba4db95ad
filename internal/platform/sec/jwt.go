// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via the auth package's TokenProvider interface.
package sec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/physai/fieldbook/pkg/uuid"
)

// Token kinds embedded in the claims. Verification is kind-strict so that a
// refresh token can never be presented where an access token is expected.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// AuthClaims represents the payload embedded inside a Fieldbook JWT.
//
// # Why custom claims?
//
// By embedding the UserID directly inside the JWT, the cookie middleware can
// reconstruct the active user context WITHOUT querying the database on every
// single API request. This provides massive read-scalability.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID string `json:"uid"`
	Kind   string `json:"knd"`
}

// TokenService handles generation and verification of JWT tokens using HS256.
//
// Tokens are stateless bearer artifacts: the server keeps no per-token state
// except the refresh revocation set maintained by the auth service.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService creates a new TokenService from a shared signing secret.
//
// # Safety
//
// The secret must be at least 32 bytes so that HS256 retains its full
// security margin. Shorter secrets are a configuration error.
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("sec: jwt secret must be at least 32 bytes, got %d", len(secret))
	}

	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
	}, nil
}

// GenerateAccessToken creates a new short-lived JWT access token for a user.
func (service *TokenService) GenerateAccessToken(userID string, timeToLive time.Duration) (string, error) {
	return service.generate(userID, TokenKindAccess, timeToLive)
}

// GenerateRefreshToken creates a new long-lived JWT refresh token for a user.
//
// The returned tokenID is the `jti` claim; the auth service records it in the
// revocation set on logout.
func (service *TokenService) GenerateRefreshToken(userID string, timeToLive time.Duration) (token, tokenID string, err error) {
	tokenID = uuid.New()
	token, err = service.generate(userID, TokenKindRefresh, timeToLive, tokenID)
	if err != nil {
		return "", "", err
	}
	return token, tokenID, nil
}

// generate signs a token of the given kind. jti is optional.
func (service *TokenService) generate(userID, kind string, timeToLive time.Duration, jti ...string) (string, error) {
	currentTime := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID: userID,
		Kind:   kind,
	}
	if len(jti) > 0 {
		claims.ID = jti[0]
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyAccessToken checks the signature, expiry, and kind of an access token.
func (service *TokenService) VerifyAccessToken(tokenString string) (*AuthClaims, error) {
	return service.verify(tokenString, TokenKindAccess)
}

// VerifyRefreshToken checks the signature, expiry, and kind of a refresh token.
func (service *TokenService) VerifyRefreshToken(tokenString string) (*AuthClaims, error) {
	return service.verify(tokenString, TokenKindRefresh)
}

// verify parses the JWT and enforces the expected token kind.
//
// The exp claim is mandatory: a signed token that omits it would otherwise
// validate forever, and the logout flow derives the revocation TTL from it.
func (service *TokenService) verify(tokenString, expectedKind string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	}, jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	if claims.Kind != expectedKind {
		return nil, fmt.Errorf("sec: token kind mismatch: expected %s", expectedKind)
	}

	return claims, nil
}
