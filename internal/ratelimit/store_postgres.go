// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/physai/fieldbook/internal/platform/apperr"
)

// PostgresStore implements [Store] backed by the system.ratelimit table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the PostgreSQL implementation of [Store].
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Mutate serializes concurrent updates per identifier with a row lock.
//
// The row is inserted (zero count) before being locked, so two first-time
// requests for the same identifier contend on the same row instead of both
// inserting: ON CONFLICT DO NOTHING makes the insert a no-op for the loser,
// and SELECT ... FOR UPDATE then queues it behind the winner's transaction.
func (store *PostgresStore) Mutate(ctx context.Context, identifier string, fn func(window *Window) bool) (*Window, error) {
	const insertQuery = `
		INSERT INTO system.ratelimit (identifier, requestcount, windowstart, lastrequest)
		VALUES ($1, 0, now(), now())
		ON CONFLICT (identifier) DO NOTHING`

	const lockQuery = `
		SELECT requestcount, windowstart, lastrequest
		FROM system.ratelimit
		WHERE identifier = $1
		FOR UPDATE`

	const updateQuery = `
		UPDATE system.ratelimit
		SET requestcount = $2, windowstart = $3, lastrequest = $4
		WHERE identifier = $1`

	window := &Window{Identifier: identifier}

	err := pgx.BeginFunc(ctx, store.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertQuery, identifier); err != nil {
			return fmt.Errorf("postgres_ratelimit_store_seed_failed: %w", err)
		}

		err := tx.QueryRow(ctx, lockQuery, identifier).Scan(
			&window.RequestCount,
			&window.WindowStart,
			&window.LastRequest,
		)
		if err != nil {
			return fmt.Errorf("postgres_ratelimit_store_lock_failed: %w", err)
		}

		if fn(window) {
			_, err := tx.Exec(ctx, updateQuery,
				identifier,
				window.RequestCount,
				window.WindowStart,
				window.LastRequest,
			)
			if err != nil {
				return fmt.Errorf("postgres_ratelimit_store_write_failed: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return window, nil
}

// Find returns the identifier's window without locking or mutating it.
func (store *PostgresStore) Find(ctx context.Context, identifier string) (*Window, error) {
	const query = `
		SELECT requestcount, windowstart, lastrequest
		FROM system.ratelimit
		WHERE identifier = $1`

	window := &Window{Identifier: identifier}
	err := store.pool.QueryRow(ctx, query, identifier).Scan(
		&window.RequestCount,
		&window.WindowStart,
		&window.LastRequest,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("RateLimitWindow")
		}
		return nil, fmt.Errorf("postgres_ratelimit_store_find_failed: %w", err)
	}

	return window, nil
}

// DeleteStale removes windows that started before the cutoff.
func (store *PostgresStore) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM system.ratelimit WHERE windowstart < $1`

	commandTag, err := store.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("postgres_ratelimit_store_gc_failed: %w", err)
	}

	return commandTag.RowsAffected(), nil
}
