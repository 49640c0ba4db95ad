// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

// Package auth implements account registration, login, lockout, and the
// JWT-cookie session lifecycle for the Fieldbook backend.
//
// # Architecture
//
// Entities and business rules live here; storage is reached through the
// interfaces in store.go so the service layer stays technology-agnostic.
package auth

import (
	"time"
)

// Account represents one registered Fieldbook identity.
//
// # Rules
//   - Email is unique and stored lower-cased.
//   - PasswordHash is generated via Bcrypt exclusively by the auth [Service].
//   - FailedAttempts resets to 0 on any successful authentication.
//   - LockedUntil is nil unless FailedAttempts reached the lockout threshold.
//   - Accounts are never physically deleted.
type Account struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Explicitly omitted from JSON for security.
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`

	// Lockout state. Internal bookkeeping, never serialized to clients:
	// AccountLocked responses reveal only the unlock time.
	FailedAttempts int        `json:"-"`
	LockedUntil    *time.Time `json:"-"`
}

// IsLocked reports whether the account is under an active lockout at the
// given instant.
func (account *Account) IsLocked(now time.Time) bool {
	return account.LockedUntil != nil && now.Before(*account.LockedUntil)
}

// HasExpiredLock reports whether a previous lockout has naturally elapsed.
// The next attempt (success or failure) transitions the account back to the
// active state.
func (account *Account) HasExpiredLock(now time.Time) bool {
	return account.LockedUntil != nil && !now.Before(*account.LockedUntil)
}
