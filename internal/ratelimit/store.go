// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

package ratelimit

import (
	"context"
	"time"
)

// Store defines the data access contract for rate-limit windows.
//
// The windowing policy itself (reset, increment, quota comparison) lives in
// the [Service]; the store only provides per-identifier atomicity.
type Store interface {
	// Mutate runs fn against the identifier's window under a per-identifier
	// lock, creating a zero-count window first if none exists. fn reports
	// whether its changes must be written back. The returned window is the
	// final state after the call.
	//
	// Two concurrent Mutate calls for the same identifier are serialized:
	// the second observes the first's committed write. Calls for different
	// identifiers do not contend.
	Mutate(ctx context.Context, identifier string, fn func(window *Window) (write bool)) (*Window, error)

	// Find returns the identifier's window without any side effects.
	//
	// Returns [apperr.NotFound] if the identifier has never been seen.
	Find(ctx context.Context, identifier string) (*Window, error)

	// DeleteStale removes windows whose start is before the cutoff and
	// returns how many were deleted. Best-effort garbage collection; losing
	// a stale row early or late is never a correctness problem.
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}
