// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

/*
Package apperr defines the centralized error handling framework for Fieldbook.

It provides a rich error type that bridges the gap between low-level Domain/Storage
errors and high-level HTTP responses.

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Taxonomy: One constructor per expected policy outcome (invalid credentials,
    lockout, duplicate email, weak password, expired session, rate limited).
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes.

Every error that leaves the service layer should be wrapped as an [AppError] to ensure
consistent API responses.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// AppError is the canonical error type for the Fieldbook API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "ACCOUNT_LOCKED").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Authentication Errors (4xx)

// InvalidCredentials creates a 401 [AppError].
//
// # Enumeration Safety
//
// This constructor is used both for "unknown email" and "wrong password" so
// that callers cannot distinguish which field was wrong.
func InvalidCredentials() *AppError {
	return &AppError{
		Code:       "INVALID_CREDENTIALS",
		Message:    "Invalid email or password",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// AccountLocked creates a 423 [AppError] revealing only the unlock time.
func AccountLocked(until time.Time) *AppError {
	return &AppError{
		Code:       "ACCOUNT_LOCKED",
		Message:    fmt.Sprintf("Account locked until %s", until.UTC().Format(time.RFC3339)),
		HTTPStatus: http.StatusLocked,
	}
}

// SessionExpired creates a 401 [AppError] for invalid or expired tokens.
func SessionExpired() *AppError {
	return &AppError{
		Code:       "SESSION_EXPIRED",
		Message:    "Session is invalid or expired",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Unauthorized creates a 401 [AppError].
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:       "UNAUTHORIZED",
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// # Registration Errors (4xx)

// DuplicateEmail creates a 409 [AppError] for already-registered addresses.
func DuplicateEmail() *AppError {
	return &AppError{
		Code:       "DUPLICATE_EMAIL",
		Message:    "Email is already registered",
		HTTPStatus: http.StatusConflict,
	}
}

// WeakPassword creates a 400 [AppError] describing the password policy.
func WeakPassword() *AppError {
	return &AppError{
		Code:       "WEAK_PASSWORD",
		Message:    "Password must be at least 8 characters and contain a letter and a digit",
		HTTPStatus: http.StatusBadRequest,
	}
}

// # Generic Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Profile") // Returns "Profile not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// RateLimited creates a 429 [AppError] telling the client when quota resets.
func RateLimited(resetAt time.Time) *AppError {
	return &AppError{
		Code:       "RATE_LIMITED",
		Message:    fmt.Sprintf("Request quota exhausted. Resets at %s.", resetAt.UTC().Format(time.RFC3339)),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// # Server Errors (5xx)

// Storage creates a 500 [AppError] wrapping an infrastructure failure.
// The cause is stored for logging but is never sent to the client.
func Storage(cause error) *AppError {
	return &AppError{
		Code:       "STORAGE_ERROR",
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// IsNotFound reports whether err maps to a NOT_FOUND response.
func IsNotFound(err error) bool {
	ae := As(err)
	return ae != nil && ae.Code == "NOT_FOUND"
}
