// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/physai/fieldbook/internal/platform/apperr"
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures.
const pgUniqueViolation = "23505"

// PostgresAccountStore implements [AccountStore] backed by the users.account table.
//
// # Error Mapping
//
// Storage-specific errors (pgx.ErrNoRows, unique violations) are mapped to
// domain-friendly [apperr.AppError] values so callers never see SQL details.
type PostgresAccountStore struct {
	pool *pgxpool.Pool
}

// NewPostgresAccountStore creates the PostgreSQL implementation of [AccountStore].
func NewPostgresAccountStore(pool *pgxpool.Pool) *PostgresAccountStore {
	return &PostgresAccountStore{pool: pool}
}

const accountColumns = `id, email, passwordhash, failedattempts, lockeduntil, lastlogin, createdat`

// Create persists a new account record.
func (store *PostgresAccountStore) Create(ctx context.Context, account *Account) error {
	const query = `
		INSERT INTO users.account (id, email, passwordhash, failedattempts, lockeduntil, lastlogin, createdat)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	_, err := store.pool.Exec(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.FailedAttempts,
		account.LockedUntil,
		account.LastLogin,
		account.CreatedAt,
	)

	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == pgUniqueViolation {
			return apperr.DuplicateEmail()
		}
		return fmt.Errorf("postgres_account_store_create_failed: %w", err)
	}

	return nil
}

// FindByID retrieves an account by its primary key.
func (store *PostgresAccountStore) FindByID(ctx context.Context, id string) (*Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM users.account WHERE id = $1`

	account, err := store.scanOne(store.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("postgres_account_store_find_by_id_failed: %w", err)
	}

	return account, nil
}

// FindByEmail retrieves an account by its unique lower-cased email.
func (store *PostgresAccountStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM users.account WHERE email = $1`

	account, err := store.scanOne(store.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("postgres_account_store_find_by_email_failed: %w", err)
	}

	return account, nil
}

// RecordFailedAttempt applies one failed login as a single UPDATE so that two
// concurrent failures cannot lose an increment: the row lock serializes them
// and each CASE expression reads the committed state left by the other.
//
// Transitions (old row state → new row state):
//   - expired lock          → failedattempts = 1, lock cleared
//   - counter below max     → failedattempts + 1
//   - counter reaches max   → lockeduntil = now + lockFor
func (store *PostgresAccountStore) RecordFailedAttempt(ctx context.Context, accountID string, threshold int, lockFor time.Duration) (int, *time.Time, error) {
	const query = `
		UPDATE users.account
		SET failedattempts = CASE
		        WHEN lockeduntil IS NOT NULL AND lockeduntil <= now() THEN 1
		        ELSE failedattempts + 1
		    END,
		    lockeduntil = CASE
		        WHEN lockeduntil IS NOT NULL AND lockeduntil <= now() THEN NULL
		        WHEN lockeduntil IS NULL AND failedattempts + 1 >= $2 THEN now() + $3
		        ELSE lockeduntil
		    END
		WHERE id = $1
		RETURNING failedattempts, lockeduntil`

	var failedAttempts int
	var lockedUntil *time.Time
	err := store.pool.QueryRow(ctx, query, accountID, threshold, lockFor).Scan(&failedAttempts, &lockedUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil, apperr.NotFound("Account")
		}
		return 0, nil, fmt.Errorf("postgres_account_store_record_failure_failed: %w", err)
	}

	return failedAttempts, lockedUntil, nil
}

// RecordSuccessfulLogin resets the lockout state and stamps the login time.
func (store *PostgresAccountStore) RecordSuccessfulLogin(ctx context.Context, accountID string) error {
	const query = `
		UPDATE users.account
		SET failedattempts = 0,
		    lockeduntil = NULL,
		    lastlogin = now()
		WHERE id = $1`

	commandTag, err := store.pool.Exec(ctx, query, accountID)
	if err != nil {
		return fmt.Errorf("postgres_account_store_record_success_failed: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return apperr.NotFound("Account")
	}

	return nil
}

// scanOne maps a single account row into the entity.
func (store *PostgresAccountStore) scanOne(row pgx.Row) (*Account, error) {
	account := &Account{}
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.FailedAttempts,
		&account.LockedUntil,
		&account.LastLogin,
		&account.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}
