// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/physai/fieldbook/internal/audit"
	"github.com/physai/fieldbook/internal/platform/apperr"
	"github.com/physai/fieldbook/internal/platform/ctxutil"
	"github.com/physai/fieldbook/internal/platform/sec"
	"github.com/physai/fieldbook/internal/platform/validate"
	"github.com/physai/fieldbook/pkg/uuid"
)

// TokenProvider defines the contract for issuing and verifying security tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed short-lived JWT for the given user.
	GenerateAccessToken(userID string, timeToLive time.Duration) (string, error)

	// GenerateRefreshToken creates a signed long-lived JWT for the given user.
	// The returned tokenID (`jti`) feeds the revocation list on logout.
	GenerateRefreshToken(userID string, timeToLive time.Duration) (token, tokenID string, err error)

	// VerifyRefreshToken checks signature, expiry, and kind of a refresh token.
	VerifyRefreshToken(tokenString string) (*sec.AuthClaims, error)
}

// Policy holds the numeric authentication policy. It is immutable after
// construction; tests inject distinct policies per case instead of mutating
// global state.
type Policy struct {
	// LockoutThreshold is the number of consecutive failures that locks an account.
	LockoutThreshold int
	// LockoutDuration is how long a lockout lasts.
	LockoutDuration time.Duration
	// AccessTokenTTL is the access token lifetime.
	AccessTokenTTL time.Duration
	// RefreshTokenTTL is the refresh token lifetime.
	RefreshTokenTTL time.Duration
}

// DefaultPolicy returns the production defaults: 5 failures lock for 15
// minutes; access tokens live 15 minutes, refresh tokens 7 days.
func DefaultPolicy() Policy {
	return Policy{
		LockoutThreshold: 5,
		LockoutDuration:  15 * time.Minute,
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  7 * 24 * time.Hour,
	}
}

// Service implements the authentication use cases: registration, login with
// lockout enforcement, token refresh, and logout.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, lockout, or
// token logic must be reviewed by the security team.
type Service struct {
	accounts AccountStore
	revoked  RevocationList
	tokens   TokenProvider
	sink     audit.Sink
	policy   Policy
}

// NewService constructs an auth [Service] with its collaborators and policy.
func NewService(
	accounts AccountStore,
	revoked RevocationList,
	tokens TokenProvider,
	sink audit.Sink,
	policy Policy,
) *Service {
	return &Service{
		accounts: accounts,
		revoked:  revoked,
		tokens:   tokens,
		sink:     sink,
		policy:   policy,
	}
}

// Policy returns the immutable policy the service was constructed with.
// The HTTP layer reads it to size cookie lifetimes.
func (service *Service) Policy() Policy { return service.policy }

// AuthenticateInput defines credentials for a login attempt.
type AuthenticateInput struct {
	Email     string
	Password  string
	SourceIP  string
	UserAgent string
}

// Session represents a successfully established login session. Tokens are
// delivered to clients exclusively as HttpOnly cookies by the HTTP layer.
type Session struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	Account          *Account
}

// Authenticate validates credentials, drives the lockout state machine, and
// issues a fresh token pair.
//
// # Returns
//   - [apperr.InvalidCredentials] for an unknown email OR a wrong password —
//     callers must not be able to tell which field was wrong.
//   - [apperr.AccountLocked] while a lockout is active, revealing only the
//     unlock time. The password is deliberately NOT verified in this state
//     (no bcrypt work for a request that cannot succeed).
//
// # Lockout State Machine
//
//	Active(failed=0) --failure--> Active(failed=n) --threshold--> Locked(until=T)
//	Locked(until=T)  --now>=T & success--> Active(failed=0)
//	Locked(until=T)  --now>=T & failure--> Active(failed=1)
//	Active(*)        --success--> Active(failed=0)
func (service *Service) Authenticate(ctx context.Context, input AuthenticateInput) (*Session, error) {
	now := time.Now()

	// ── 1. Account Lookup ─────────────────────────────────────────────────

	account, err := service.accounts.FindByEmail(ctx, NormalizeEmail(input.Email))
	if err != nil {
		if apperr.IsNotFound(err) {
			// Anonymous event: never record which emails exist as accounts.
			service.record(ctx, input, nil, audit.KindLoginFailed, map[string]any{"reason": "unknown_email"})
			return nil, apperr.InvalidCredentials()
		}
		return nil, apperr.Storage(fmt.Errorf("auth_service_lookup_failed: %w", err))
	}

	// ── 2. Lockout Gate ───────────────────────────────────────────────────

	if account.IsLocked(now) {
		service.record(ctx, input, &account.ID, audit.KindLoginFailed, map[string]any{"reason": "locked"})
		return nil, apperr.AccountLocked(*account.LockedUntil)
	}

	// A lock that has run out is cleared by whatever attempt comes next.
	wasLocked := account.HasExpiredLock(now)

	// ── 3. Password Verification ──────────────────────────────────────────

	if !sec.CheckPasswordHash(input.Password, account.PasswordHash) {
		failedAttempts, lockedUntil, storeErr := service.accounts.RecordFailedAttempt(
			ctx, account.ID, service.policy.LockoutThreshold, service.policy.LockoutDuration)
		if storeErr != nil {
			return nil, apperr.Storage(fmt.Errorf("auth_service_record_failure_failed: %w", storeErr))
		}

		if wasLocked {
			service.record(ctx, input, &account.ID, audit.KindAccountUnlocked, map[string]any{"reason": "lock_expired"})
		}

		if lockedUntil != nil && now.Before(*lockedUntil) {
			service.record(ctx, input, &account.ID, audit.KindAccountLocked, map[string]any{
				"failed_attempts": failedAttempts,
				"locked_until":    lockedUntil.UTC().Format(time.RFC3339),
			})
		} else {
			service.record(ctx, input, &account.ID, audit.KindLoginFailed, map[string]any{
				"failed_attempts": failedAttempts,
			})
		}

		return nil, apperr.InvalidCredentials()
	}

	// ── 4. Success Path ───────────────────────────────────────────────────

	if err := service.accounts.RecordSuccessfulLogin(ctx, account.ID); err != nil {
		return nil, apperr.Storage(fmt.Errorf("auth_service_record_success_failed: %w", err))
	}
	account.FailedAttempts = 0
	account.LockedUntil = nil
	account.LastLogin = &now

	if wasLocked {
		service.record(ctx, input, &account.ID, audit.KindAccountUnlocked, map[string]any{"reason": "lock_expired"})
	}
	service.record(ctx, input, &account.ID, audit.KindLoginSuccess, nil)

	// ── 5. Token Issuance ─────────────────────────────────────────────────

	return service.issueSession(account, now)
}

// RefreshInput carries a refresh attempt and its request metadata.
type RefreshInput struct {
	RefreshToken string
	SourceIP     string
	UserAgent    string
}

// RefreshedAccess is the result of a successful token refresh.
type RefreshedAccess struct {
	AccessToken     string
	AccessExpiresAt time.Time
	UserID          string
}

// Refresh verifies a refresh token and mints a new access token bound to the
// same identity. The refresh token itself is NOT rotated: the single
// long-lived token stays valid until its own expiry or explicit logout.
//
// This operation never touches the credential store's failure counters.
func (service *Service) Refresh(ctx context.Context, input RefreshInput) (*RefreshedAccess, error) {
	claims, err := service.tokens.VerifyRefreshToken(input.RefreshToken)
	if err != nil {
		return nil, apperr.SessionExpired()
	}

	// Logout adds the jti to the revocation list; a revoked token behaves
	// exactly like an expired one.
	revoked, err := service.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("auth_service_revocation_check_failed: %w", err))
	}
	if revoked {
		return nil, apperr.SessionExpired()
	}

	now := time.Now()
	accessToken, err := service.tokens.GenerateAccessToken(claims.UserID, service.policy.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_generation_failed: %w", err)
	}

	service.record(ctx, AuthenticateInput{SourceIP: input.SourceIP, UserAgent: input.UserAgent},
		&claims.UserID, audit.KindTokenRefreshed, nil)

	return &RefreshedAccess{
		AccessToken:     accessToken,
		AccessExpiresAt: now.Add(service.policy.AccessTokenTTL),
		UserID:          claims.UserID,
	}, nil
}

// RegisterInput holds the data required to create a new account.
type RegisterInput struct {
	Email     string
	Password  string
	SourceIP  string
	UserAgent string
}

// Register validates, hashes, and persists a brand-new account.
//
// # Returns
//   - [apperr.ValidationError] for a malformed email.
//   - [apperr.WeakPassword] when the password policy is not met.
//   - [apperr.DuplicateEmail] when the email is already registered
//     (case-insensitive).
func (service *Service) Register(ctx context.Context, input RegisterInput) (*Account, error) {
	// ── 1. Boundary Validation ────────────────────────────────────────────

	email := NormalizeEmail(input.Email)

	if err := new(validate.Validator).
		Required("email", email).
		Email("email", email).
		Err(); err != nil {
		return nil, err
	}

	if !validate.IsStrongPassword(input.Password) {
		return nil, apperr.WeakPassword()
	}

	// ── 2. Security ───────────────────────────────────────────────────────

	// Default bcrypt cost balances security and CPU during signup spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// ── 3. Persistence ────────────────────────────────────────────────────

	account := &Account{
		ID:           uuid.New(), // Time-sortable ID to prevent PG index fragmentation.
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now(),
	}

	// The unique constraint on email is the authoritative duplicate check:
	// the store maps it to [apperr.DuplicateEmail], so concurrent duplicate
	// registrations cannot race past a pre-check.
	if err := service.accounts.Create(ctx, account); err != nil {
		if appError := apperr.As(err); appError != nil {
			return nil, appError
		}
		return nil, apperr.Storage(fmt.Errorf("auth_service_register_failed: %w", err))
	}

	service.record(ctx, AuthenticateInput{SourceIP: input.SourceIP, UserAgent: input.UserAgent},
		&account.ID, audit.KindRegistration, nil)

	return account, nil
}

// Logout best-effort revokes the presented refresh token.
//
// Access tokens stay stateless: the only guaranteed effect is the client-side
// cookie clearing performed by the HTTP layer. Always succeeds — an invalid
// or absent token means the session is already gone (idempotent operation).
func (service *Service) Logout(ctx context.Context, refreshToken, sourceIP, userAgent string) {
	claims, err := service.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return
	}

	// Revoke the jti for the token's remaining lifetime. The entry expires
	// from Redis on its own once the token would have expired anyway.
	remaining := time.Until(claims.ExpiresAt.Time)
	if err := service.revoked.Revoke(ctx, claims.ID, remaining); err != nil {
		// Best-effort: a failed revocation must not block the logout flow,
		// but it is a security-relevant condition worth a loud log line.
		ctxutil.GetLogger(ctx).Error("auth_logout_revocation_failed",
			"user_id", claims.UserID,
			"error", err.Error(),
		)
	}

	service.record(ctx, AuthenticateInput{SourceIP: sourceIP, UserAgent: userAgent},
		&claims.UserID, audit.KindLogout, nil)
}

// CurrentUser returns the account behind an authenticated request.
func (service *Service) CurrentUser(ctx context.Context, accountID string) (*Account, error) {
	account, err := service.accounts.FindByID(ctx, accountID)
	if err != nil {
		if apperr.IsNotFound(err) {
			// The token outlived the account record; treat as a dead session.
			return nil, apperr.SessionExpired()
		}
		return nil, apperr.Storage(fmt.Errorf("auth_service_current_user_failed: %w", err))
	}
	return account, nil
}

// issueSession signs a fresh access/refresh token pair for the account.
func (service *Service) issueSession(account *Account, now time.Time) (*Session, error) {
	accessToken, err := service.tokens.GenerateAccessToken(account.ID, service.policy.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	refreshToken, _, err := service.tokens.GenerateRefreshToken(account.ID, service.policy.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	return &Session{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  now.Add(service.policy.AccessTokenTTL),
		RefreshExpiresAt: now.Add(service.policy.RefreshTokenTTL),
		Account:          account,
	}, nil
}

// record appends an audit event. The sink contract guarantees this can never
// fail or roll back the primary operation.
func (service *Service) record(ctx context.Context, input AuthenticateInput, accountID *string, kind audit.Kind, detail map[string]any) {
	service.sink.Record(ctx, audit.Event{
		AccountID: accountID,
		Kind:      kind,
		SourceIP:  input.SourceIP,
		UserAgent: input.UserAgent,
		Detail:    detail,
	})
}

// NormalizeEmail lower-cases and trims an email for storage and lookup.
// Email uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
