// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/physai/fieldbook/internal/platform/apperr"
)

// PostgresStore implements [Store] backed by the users.profile table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the PostgreSQL implementation of [Store].
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// FindByAccountID retrieves the questionnaire profile for an account.
func (store *PostgresStore) FindByAccountID(ctx context.Context, accountID string) (*Profile, error) {
	const query = `
		SELECT accountid, programminglevel, roboticsfamiliarity, hardwareexperience, learninggoal, updatedat
		FROM users.profile
		WHERE accountid = $1`

	profile := &Profile{}
	err := store.pool.QueryRow(ctx, query, accountID).Scan(
		&profile.AccountID,
		&profile.ProgrammingLevel,
		&profile.RoboticsFamiliarity,
		&profile.HardwareExperience,
		&profile.LearningGoal,
		&profile.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Profile")
		}
		return nil, fmt.Errorf("postgres_profile_store_find_failed: %w", err)
	}

	return profile, nil
}

// Upsert inserts or wholesale-replaces the profile in a single statement.
//
// The `xmax = 0` expression distinguishes a fresh insert from a conflict
// update: xmax is zero only for rows never touched by an UPDATE.
func (store *PostgresStore) Upsert(ctx context.Context, profile *Profile) (bool, error) {
	const query = `
		INSERT INTO users.profile (accountid, programminglevel, roboticsfamiliarity, hardwareexperience, learninggoal, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (accountid) DO UPDATE
		SET programminglevel    = EXCLUDED.programminglevel,
		    roboticsfamiliarity = EXCLUDED.roboticsfamiliarity,
		    hardwareexperience  = EXCLUDED.hardwareexperience,
		    learninggoal        = EXCLUDED.learninggoal,
		    updatedat           = EXCLUDED.updatedat
		RETURNING (xmax = 0) AS created`

	var created bool
	err := store.pool.QueryRow(ctx, query,
		profile.AccountID,
		profile.ProgrammingLevel,
		profile.RoboticsFamiliarity,
		profile.HardwareExperience,
		profile.LearningGoal,
		profile.UpdatedAt,
	).Scan(&created)

	if err != nil {
		return false, fmt.Errorf("postgres_profile_store_upsert_failed: %w", err)
	}

	return created, nil
}
