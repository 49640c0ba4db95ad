// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

// Package ratelimit bounds anonymous chatbot usage to a fixed number of
// requests per rolling 24-hour window per identifier.
//
// # Identity
//
// The identifier is an opaque string owned by the HTTP layer: a
// client-supplied fingerprint header when present, the source IP otherwise.
// This package never inspects it.
package ratelimit

import "time"

// Window is the per-identifier counter row.
//
// # Invariants
//
// RequestCount counts requests whose timestamp falls within
// [WindowStart, WindowStart + length). A request outside that range starts a
// new window: the count restarts and WindowStart moves to now.
type Window struct {
	Identifier   string    `json:"identifier"`
	RequestCount int       `json:"request_count"`
	WindowStart  time.Time `json:"window_start"`
	LastRequest  time.Time `json:"last_request"`
}

// Expired reports whether the window has aged past its full length at the
// given instant. A window exactly as old as its length counts as expired
// (the interval is half-open).
func (window *Window) Expired(now time.Time, length time.Duration) bool {
	return now.Sub(window.WindowStart) >= length
}

// ResetAt returns when the quota tracked by this window replenishes.
func (window *Window) ResetAt(length time.Duration) time.Time {
	return window.WindowStart.Add(length)
}

// Result is the outcome of a quota check, shaped for the UI countdown.
type Result struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	Total     int       `json:"total"`
	ResetAt   time.Time `json:"reset_at"`
}
