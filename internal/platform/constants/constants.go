// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Throttling: Burst capacities and IP tracking TTLs for the transport-level limiter.
  - Security: JWT issuer and cookie configuration.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "fieldbook-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Transport Throttling
//
// These bound raw request pressure per IP at the middleware layer. They are
// unrelated to the 24-hour anonymous chatbot quota, which is business policy
// owned by the ratelimit package.

const (
	// DefaultThrottleRPS is the requests per second allowed per IP.
	DefaultThrottleRPS = 100.0

	// DefaultThrottleBurst is the maximum burst allowed for the throttle.
	DefaultThrottleBurst = 150

	// ThrottleCleanupInterval is how often old IP entries are removed from memory.
	ThrottleCleanupInterval = 1 * time.Minute

	// ThrottleClientTTL is how long a client must be idle before its entry is deleted.
	ThrottleClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "fieldbook.app"

	// AccessTokenCookieName is the name of the cookie that stores the access token.
	AccessTokenCookieName = "access_token"

	// RefreshTokenCookieName is the name of the cookie that stores the refresh token.
	RefreshTokenCookieName = "refresh_token"

	// RefreshTokenCookiePath is the scoped path for the refresh token cookie.
	// The refresh token is only ever needed by the auth route group.
	RefreshTokenCookiePath = "/api/v1/auth"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderXFingerprint  = "X-Fingerprint"
	HeaderOrigin        = "Origin"
)

// # JSON Field Identifiers

const (
	FieldData  = "data"
	FieldError = "error"
	FieldCode  = "code"
)
