// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

/*
Package audit implements the append-only security event trail.

Every security-relevant decision (logins, lockouts, registrations, profile
changes, token refreshes) is recorded as an immutable event. Events are
written through the [Sink] interface injected into the auth and profile
services, so tests can substitute a capturing stub instead of touching
real storage.

# Durability Contract

Audit writes NEVER fail the caller's primary operation. A failed write is
logged and dropped — the auth decision it describes has already happened
and must not be rolled back because bookkeeping failed.
*/
package audit

import "time"

// Kind enumerates the recognized audit event kinds.
type Kind string

const (
	KindLoginSuccess    Kind = "login_success"
	KindLoginFailed     Kind = "login_failed"
	KindLogout          Kind = "logout"
	KindRegistration    Kind = "registration"
	KindAccountLocked   Kind = "account_locked"
	KindAccountUnlocked Kind = "account_unlocked"
	KindProfileCreated  Kind = "profile_created"
	KindProfileUpdated  Kind = "profile_updated"
	KindTokenRefreshed  Kind = "token_refreshed"
)

// Event is a single append-only audit record.
//
// # Invariants
//
// Write-once: events are never updated or deleted by the runtime. Ordering is
// by CreatedAt, ties broken by insertion order (the time-sortable UUIDv7 ID
// preserves insertion order even within one timestamp).
type Event struct {
	ID string `json:"id"`

	// AccountID is nil for anonymous events: a failed login against an
	// unknown email is recorded without an account, and without the email.
	AccountID *string `json:"account_id,omitempty"`

	Kind      Kind           `json:"kind"`
	SourceIP  string         `json:"source_ip,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
