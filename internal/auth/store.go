// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

package auth

import (
	"context"
	"time"
)

// AccountStore defines the data access contract for user accounts.
//
// # Implementations
//
// The canonical implementation is PostgreSQL (store_postgres.go). Tests use
// an in-memory fake implementing the same lockout arithmetic.
type AccountStore interface {
	// FindByID returns the account with the given ID.
	//
	// Returns [apperr.NotFound] if the account does not exist.
	FindByID(ctx context.Context, id string) (*Account, error)

	// FindByEmail returns the account with the given (lower-cased) email.
	//
	// Returns [apperr.NotFound] if no account is registered with this email.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// Create persists a brand-new account.
	//
	// Returns [apperr.DuplicateEmail] if the email unique constraint fails.
	Create(ctx context.Context, account *Account) error

	// RecordFailedAttempt applies one failed login to the account's lockout
	// state as a single atomic read-modify-write:
	//
	//   - an expired lock is cleared and the counter restarts at 1;
	//   - otherwise the counter increments, and reaching threshold sets
	//     a new lock expiring after lockFor.
	//
	// It returns the post-update counter and lock expiry so the caller can
	// decide which audit event the transition produced. Two concurrent failed
	// attempts must not lose an increment (see the single-UPDATE
	// implementation in store_postgres.go).
	RecordFailedAttempt(ctx context.Context, accountID string, threshold int, lockFor time.Duration) (failedAttempts int, lockedUntil *time.Time, err error)

	// RecordSuccessfulLogin resets the failure counter, clears any lock, and
	// stamps LastLogin.
	RecordSuccessfulLogin(ctx context.Context, accountID string) error
}

// RevocationList tracks refresh-token IDs (`jti` claims) invalidated by
// logout. Entries expire on their own once the underlying token would have
// expired anyway.
//
// # Implementations
//
// Backed by Redis in production (store_redis.go): the check sits on the
// token-refresh path and must not touch the primary database.
type RevocationList interface {
	// Revoke marks a refresh token ID as unusable for the given remaining
	// lifetime. A non-positive ttl is a no-op (the token is already expired).
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error

	// IsRevoked reports whether the refresh token ID has been revoked.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
