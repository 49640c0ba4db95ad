// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

package profile

import "context"

// Store defines the data access contract for questionnaire profiles.
type Store interface {
	// FindByAccountID returns the profile for the account.
	//
	// Returns [apperr.NotFound] when the questionnaire was never completed.
	FindByAccountID(ctx context.Context, accountID string) (*Profile, error)

	// Upsert inserts the profile or replaces it wholesale. It reports
	// whether a new row was created so the service can distinguish the
	// profile_created and profile_updated audit events.
	Upsert(ctx context.Context, profile *Profile) (created bool, err error)
}
