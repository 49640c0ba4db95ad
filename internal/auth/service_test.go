// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physai/fieldbook/internal/audit"
	"github.com/physai/fieldbook/internal/auth"
	"github.com/physai/fieldbook/internal/platform/apperr"
	"github.com/physai/fieldbook/internal/platform/sec"
	"github.com/physai/fieldbook/pkg/uuid"
)

// fakeAccountStore is an in-memory [auth.AccountStore] mirroring the atomic
// lockout arithmetic of the PostgreSQL implementation.
type fakeAccountStore struct {
	accounts map[string]*auth.Account // keyed by ID
	failWith error                    // when set, lookups fail with this error
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: make(map[string]*auth.Account)}
}

func (store *fakeAccountStore) FindByID(_ context.Context, id string) (*auth.Account, error) {
	if account, ok := store.accounts[id]; ok {
		copied := *account
		return &copied, nil
	}
	return nil, apperr.NotFound("Account")
}

func (store *fakeAccountStore) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	if store.failWith != nil {
		return nil, store.failWith
	}
	for _, account := range store.accounts {
		if account.Email == email {
			copied := *account
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (store *fakeAccountStore) Create(_ context.Context, account *auth.Account) error {
	for _, existing := range store.accounts {
		if existing.Email == account.Email {
			return apperr.DuplicateEmail()
		}
	}
	copied := *account
	store.accounts[account.ID] = &copied
	return nil
}

func (store *fakeAccountStore) RecordFailedAttempt(_ context.Context, accountID string, threshold int, lockFor time.Duration) (int, *time.Time, error) {
	account, ok := store.accounts[accountID]
	if !ok {
		return 0, nil, apperr.NotFound("Account")
	}

	now := time.Now()
	if account.LockedUntil != nil && !now.Before(*account.LockedUntil) {
		account.FailedAttempts = 1
		account.LockedUntil = nil
	} else {
		account.FailedAttempts++
		if account.LockedUntil == nil && account.FailedAttempts >= threshold {
			until := now.Add(lockFor)
			account.LockedUntil = &until
		}
	}

	return account.FailedAttempts, account.LockedUntil, nil
}

func (store *fakeAccountStore) RecordSuccessfulLogin(_ context.Context, accountID string) error {
	account, ok := store.accounts[accountID]
	if !ok {
		return apperr.NotFound("Account")
	}
	now := time.Now()
	account.FailedAttempts = 0
	account.LockedUntil = nil
	account.LastLogin = &now
	return nil
}

// fakeRevocationList is an in-memory [auth.RevocationList].
type fakeRevocationList struct {
	revoked map[string]bool
}

func newFakeRevocationList() *fakeRevocationList {
	return &fakeRevocationList{revoked: make(map[string]bool)}
}

func (list *fakeRevocationList) Revoke(_ context.Context, tokenID string, _ time.Duration) error {
	list.revoked[tokenID] = true
	return nil
}

func (list *fakeRevocationList) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	return list.revoked[tokenID], nil
}

// capturingSink records audit events for assertions.
type capturingSink struct {
	events []audit.Event
}

func (sink *capturingSink) Record(_ context.Context, event audit.Event) {
	sink.events = append(sink.events, event)
}

func (sink *capturingSink) kinds() []audit.Kind {
	kinds := make([]audit.Kind, 0, len(sink.events))
	for _, event := range sink.events {
		kinds = append(kinds, event.Kind)
	}
	return kinds
}

// testHarness bundles a service with its fakes.
type testHarness struct {
	service *auth.Service
	store   *fakeAccountStore
	revoked *fakeRevocationList
	sink    *capturingSink
	tokens  *sec.TokenService
}

func newTestHarness(t *testing.T, policy auth.Policy) *testHarness {
	t.Helper()

	tokens, err := sec.NewTokenService("0123456789abcdef0123456789abcdef", "fieldbook.test")
	require.NoError(t, err)

	store := newFakeAccountStore()
	revoked := newFakeRevocationList()
	sink := &capturingSink{}

	return &testHarness{
		service: auth.NewService(store, revoked, tokens, sink, policy),
		store:   store,
		revoked: revoked,
		sink:    sink,
		tokens:  tokens,
	}
}

// seedAccount registers an account directly in the fake store.
func (harness *testHarness) seedAccount(t *testing.T, email, password string) *auth.Account {
	t.Helper()

	hash, err := sec.HashPassword(password)
	require.NoError(t, err)

	account := &auth.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, harness.store.Create(context.Background(), account))
	return account
}

/*
TestService_Register verifies the happy path and that the returned summary
never carries the password hash state.
*/
func TestService_Register(t *testing.T) {
	harness := newTestHarness(t, auth.DefaultPolicy())

	account, err := harness.service.Register(context.Background(), auth.RegisterInput{
		Email:    "Ada@Example.COM",
		Password: "pass1234",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, account.ID)
	// Emails are stored case-normalized.
	assert.Equal(t, "ada@example.com", account.Email)
	assert.Equal(t, 0, account.FailedAttempts)
	assert.Nil(t, account.LockedUntil)
	assert.Equal(t, []audit.Kind{audit.KindRegistration}, harness.sink.kinds())
}

/*
TestService_Register_DuplicateEmail verifies case-insensitive uniqueness.
*/
func TestService_Register_DuplicateEmail(t *testing.T) {
	harness := newTestHarness(t, auth.DefaultPolicy())
	harness.seedAccount(t, "a@x.com", "pass1234")

	_, err := harness.service.Register(context.Background(), auth.RegisterInput{
		Email:    "A@X.com",
		Password: "other123",
	})

	require.Error(t, err)
	assert.Equal(t, "DUPLICATE_EMAIL", apperr.As(err).Code)
}

/*
TestService_Register_WeakPassword covers the password policy boundary.
*/
func TestService_Register_WeakPassword(t *testing.T) {
	harness := newTestHarness(t, auth.DefaultPolicy())

	testCases := []string{
		"pass1",     // too short
		"12345678",  // no letter
		"passwords", // no digit
	}

	for _, password := range testCases {
		_, err := harness.service.Register(context.Background(), auth.RegisterInput{
			Email:    "a@x.com",
			Password: password,
		})
		require.Error(t, err, "password %q must be rejected", password)
		assert.Equal(t, "WEAK_PASSWORD", apperr.As(err).Code)
	}

	// No account was created and nothing was audited.
	_, err := harness.store.FindByEmail(context.Background(), "a@x.com")
	assert.True(t, apperr.IsNotFound(err))
	assert.Empty(t, harness.sink.events)
}

/*
TestService_Authenticate_Success verifies token issuance and last-login stamping.
*/
func TestService_Authenticate_Success(t *testing.T) {
	harness := newTestHarness(t, auth.DefaultPolicy())
	seeded := harness.seedAccount(t, "a@x.com", "pass1234")

	session, err := harness.service.Authenticate(context.Background(), auth.AuthenticateInput{
		Email:    "a@x.com",
		Password: "pass1234",
	})

	require.NoError(t, err)
	assert.Equal(t, seeded.ID, session.Account.ID)
	assert.NotNil(t, session.Account.LastLogin)

	// 1. The issued access token round-trips through verification.
	claims, err := harness.tokens.VerifyAccessToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, claims.UserID)

	// 2. The refresh token is of the refresh kind, not a second access token.
	refreshClaims, err := harness.tokens.VerifyRefreshToken(session.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, refreshClaims.UserID)
	assert.NotEmpty(t, refreshClaims.ID)

	assert.Equal(t, []audit.Kind{audit.KindLoginSuccess}, harness.sink.kinds())
}

/*
TestService_Authenticate_UnknownEmailAndWrongPassword verifies that both
failure modes render as the identical INVALID_CREDENTIALS error, preventing
email enumeration.
*/
func TestService_Authenticate_UnknownEmailAndWrongPassword(t *testing.T) {
	harness := newTestHarness(t, auth.DefaultPolicy())
	harness.seedAccount(t, "a@x.com", "pass1234")

	_, unknownErr := harness.service.Authenticate(context.Background(), auth.AuthenticateInput{
		Email: "nobody@x.com", Password: "pass1234",
	})
	_, wrongErr := harness.service.Authenticate(context.Background(), auth.AuthenticateInput{
		Email: "a@x.com", Password: "wrong-pass-1",
	})

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, apperr.As(unknownErr).Code, apperr.As(wrongErr).Code)
	assert.Equal(t, apperr.As(unknownErr).Message, apperr.As(wrongErr).Message)

	// The unknown-email audit event must not be linked to any account.
	require.Len(t, harness.sink.events, 2)
	assert.Nil(t, harness.sink.events[0].AccountID)
	assert.NotNil(t, harness.sink.events[1].AccountID)
}

/*
TestService_Authenticate_LockoutAfterThreshold drives the full lockout state
machine: 5 consecutive failures lock the account, and the 6th attempt is
rejected as locked even WITH the correct password.
*/
func TestService_Authenticate_LockoutAfterThreshold(t *testing.T) {
	policy := auth.DefaultPolicy()
	harness := newTestHarness(t, policy)
	harness.seedAccount(t, "a@x.com", "pass1234")

	// 1. Five consecutive failures, all reported as invalid credentials.
	for attempt := 1; attempt <= 5; attempt++ {
		_, err := harness.service.Authenticate(context.Background(), auth.AuthenticateInput{
			Email: "a@x.com", Password: "wrong-pass-1",
		})
		require.Error(t, err)
		assert.Equal(t, "INVALID_CREDENTIALS", apperr.As(err).Code, "attempt %d", attempt)
	}

	// 2. The 5th failure emitted account_locked instead of login_failed.
	kinds := harness.sink.kinds()
	require.Len(t, kinds, 5)
	assert.Equal(t, audit.KindLoginFailed, kinds[3])
	assert.Equal(t, audit.KindAccountLocked, kinds[4])

	// 3. The 6th attempt with the CORRECT password is still rejected as locked.
	_, err := harness.service.Authenticate(context.Background(), auth.AuthenticateInput{
		Email: "a@x.com", Password: "pass1234",
	})
	require.Error(t, err)
	appError := apperr.As(err)
	assert.Equal(t, "ACCOUNT_LOCKED", appError.Code)
	// Only the unlock time is revealed, never the failure count.
	assert.NotContains(t, appError.Message, "attempt")
}

/*
TestService_Authenticate_SuccessResetsFailureCounter verifies that a login
below the threshold wipes the counter back to zero.
*/
func TestService_Authenticate_SuccessResetsFailureCounter(t *testing.T) {
	harness := newTestHarness(t, auth.DefaultPolicy())
	seeded := harness.seedAccount(t, "a@x.com", "pass1234")

	for range [4]int{} {
		_, err := harness.service.Authenticate(context.Background(), auth.AuthenticateInput{
			Email: "a@x.com", Password: "wrong-pass-1",
		})
		require.Error(t, err)
	}

	_, err := harness.service.Authenticate(context.Background(), auth.AuthenticateInput{
		Email: "a@x.com", Password: "pass1234",
	})
	require.NoError(t, err)

	stored, err := harness.store.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.FailedAttempts)
	assert.Nil(t, stored.LockedUntil)
}

/*
TestService_Authenticate_ExpiredLockCountsAsFirstFailure verifies the
Locked --now>=T & failure--> Active(failed=1) transition: the lock expires
naturally and the next failure restarts the counter at 1.
*/
func TestService_Authenticate_ExpiredLockCountsAsFirstFailure(t *testing.T) {
	harness := newTestHarness(t, auth.DefaultPolicy())
	seeded := harness.seedAccount(t, "a@x.com", "pass1234")

	// Simulate a lockout that ran out a minute ago.
	stored := harness.store.accounts[seeded.ID]
	expired := time.Now().Add(-time.Minute)
	stored.FailedAttempts = 5
	stored.LockedUntil = &expired

	_, err := harness.service.Authenticate(context.Background(), auth.AuthenticateInput{
		Email: "a@x.com", Password: "wrong-pass-1",
	})
	require.Error(t, err)
	assert.Equal(t, "INVALID_CREDENTIALS", apperr.As(err).Code)

	assert.Equal(t, 1, stored.FailedAttempts)
	assert.Nil(t, stored.LockedUntil)
	assert.Equal(t, []audit.Kind{audit.KindAccountUnlocked, audit.KindLoginFailed}, harness.sink.kinds())
}

/*
TestService_Authenticate_ExpiredLockSuccess verifies the
Locked --now>=T & success--> Active(failed=0) transition.
*/
func TestService_Authenticate_ExpiredLockSuccess(t *testing.T) {
	harness := newTestHarness(t, auth.DefaultPolicy())
	seeded := harness.seedAccount(t, "a@x.com", "pass1234")

	stored := harness.store.accounts[seeded.ID]
	expired := time.Now().Add(-time.Second)
	stored.FailedAttempts = 5
	stored.LockedUntil = &expired

	_, err := harness.service.Authenticate(context.Background(), auth.AuthenticateInput{
		Email: "a@x.com", Password: "pass1234",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, stored.FailedAttempts)
	assert.Nil(t, stored.LockedUntil)
	assert.Equal(t, []audit.Kind{audit.KindAccountUnlocked, audit.KindLoginSuccess}, harness.sink.kinds())
}

/*
TestService_Refresh verifies the refresh round-trip: a refresh token mints a
new access token for the same identity without touching failure counters.
*/
func TestService_Refresh(t *testing.T) {
	harness := newTestHarness(t, auth.DefaultPolicy())
	seeded := harness.seedAccount(t, "a@x.com", "pass1234")

	session, err := harness.service.Authenticate(context.Background(), auth.AuthenticateInput{
		Email: "a@x.com", Password: "pass1234",
	})
	require.NoError(t, err)

	refreshed, err := harness.service.Refresh(context.Background(), auth.RefreshInput{
		RefreshToken: session.RefreshToken,
	})
	require.NoError(t, err)

	claims, err := harness.tokens.VerifyAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, claims.UserID)
	assert.Contains(t, harness.sink.kinds(), audit.KindTokenRefreshed)
}

/*
TestService_Refresh_Expired verifies that an expired refresh token is
rejected as SESSION_EXPIRED.
*/
func TestService_Refresh_Expired(t *testing.T) {
	harness := newTestHarness(t, auth.DefaultPolicy())

	// A token that expired a minute ago.
	expiredToken, _, err := harness.tokens.GenerateRefreshToken("user-1", -time.Minute)
	require.NoError(t, err)

	_, err = harness.service.Refresh(context.Background(), auth.RefreshInput{
		RefreshToken: expiredToken,
	})
	require.Error(t, err)
	assert.Equal(t, "SESSION_EXPIRED", apperr.As(err).Code)
}

/*
TestService_Refresh_RejectsAccessToken verifies kind-strict verification: an
access token can never be used where a refresh token is expected.
*/
func TestService_Refresh_RejectsAccessToken(t *testing.T) {
	harness := newTestHarness(t, auth.DefaultPolicy())

	accessToken, err := harness.tokens.GenerateAccessToken("user-1", time.Minute)
	require.NoError(t, err)

	_, err = harness.service.Refresh(context.Background(), auth.RefreshInput{
		RefreshToken: accessToken,
	})
	require.Error(t, err)
	assert.Equal(t, "SESSION_EXPIRED", apperr.As(err).Code)
}

/*
TestService_Logout_RevokesRefreshToken verifies that logout invalidates the
refresh token for subsequent refresh calls, and that logging out twice (or
with garbage) is harmless.
*/
func TestService_Logout_RevokesRefreshToken(t *testing.T) {
	harness := newTestHarness(t, auth.DefaultPolicy())
	harness.seedAccount(t, "a@x.com", "pass1234")

	session, err := harness.service.Authenticate(context.Background(), auth.AuthenticateInput{
		Email: "a@x.com", Password: "pass1234",
	})
	require.NoError(t, err)

	// 1. Logout revokes the token's jti.
	harness.service.Logout(context.Background(), session.RefreshToken, "", "")

	_, err = harness.service.Refresh(context.Background(), auth.RefreshInput{
		RefreshToken: session.RefreshToken,
	})
	require.Error(t, err)
	assert.Equal(t, "SESSION_EXPIRED", apperr.As(err).Code)

	// 2. Idempotent: repeating logout, or passing garbage, does not blow up.
	harness.service.Logout(context.Background(), session.RefreshToken, "", "")
	harness.service.Logout(context.Background(), "not-a-token", "", "")

	assert.Contains(t, harness.sink.kinds(), audit.KindLogout)
}

/*
TestService_Authenticate_StoreFailure verifies that an infrastructure failure
surfaces as STORAGE_ERROR — never disguised as a credential problem, and with
no audit event for an attempt that was never evaluated.
*/
func TestService_Authenticate_StoreFailure(t *testing.T) {
	harness := newTestHarness(t, auth.DefaultPolicy())
	harness.seedAccount(t, "a@x.com", "pass1234")
	harness.store.failWith = errors.New("connection reset by peer")

	_, err := harness.service.Authenticate(context.Background(), auth.AuthenticateInput{
		Email: "a@x.com", Password: "pass1234",
	})

	require.Error(t, err)
	assert.Equal(t, "STORAGE_ERROR", apperr.As(err).Code)
	assert.Empty(t, harness.sink.events)
}

/*
TestService_PolicyInjection verifies that the lockout threshold is taken from
the injected policy rather than a global constant.
*/
func TestService_PolicyInjection(t *testing.T) {
	policy := auth.DefaultPolicy()
	policy.LockoutThreshold = 2
	harness := newTestHarness(t, policy)
	harness.seedAccount(t, "a@x.com", "pass1234")

	for range [2]int{} {
		_, err := harness.service.Authenticate(context.Background(), auth.AuthenticateInput{
			Email: "a@x.com", Password: "wrong-pass-1",
		})
		require.Error(t, err)
	}

	_, err := harness.service.Authenticate(context.Background(), auth.AuthenticateInput{
		Email: "a@x.com", Password: "pass1234",
	})
	require.Error(t, err)
	assert.Equal(t, "ACCOUNT_LOCKED", apperr.As(err).Code)
}
