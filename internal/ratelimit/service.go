// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/physai/fieldbook/internal/platform/apperr"
	"github.com/physai/fieldbook/internal/platform/ctxutil"
)

// Policy holds the numeric quota policy. Immutable after construction; tests
// inject distinct policies per case.
type Policy struct {
	// Quota is the number of requests allowed per window.
	Quota int
	// Window is the rolling window length.
	Window time.Duration
}

// DefaultPolicy returns the production defaults: 5 requests per 24 hours.
func DefaultPolicy() Policy {
	return Policy{
		Quota:  5,
		Window: 24 * time.Hour,
	}
}

// Service implements sliding-window rate limiting for anonymous identifiers.
type Service struct {
	store  Store
	policy Policy
}

// NewService constructs a rate-limit [Service].
func NewService(store Store, policy Policy) *Service {
	return &Service{store: store, policy: policy}
}

// CheckAndConsume atomically takes one quota slot for the identifier.
//
// A first-time or expired window restarts at count 1. A denied request does
// NOT increment the count past the quota, so repeated rejected calls keep
// returning the same state (idempotent rejection).
//
// # Atomicity
//
// The whole decision runs under the store's per-identifier lock: two
// concurrent calls racing for the last slot cannot both be admitted.
func (service *Service) CheckAndConsume(ctx context.Context, identifier string) (*Result, error) {
	var allowed bool

	window, err := service.store.Mutate(ctx, identifier, func(window *Window) bool {
		now := time.Now()

		if window.WindowStart.IsZero() || window.Expired(now, service.policy.Window) {
			window.RequestCount = 0
			window.WindowStart = now
		}

		if window.RequestCount >= service.policy.Quota {
			return false
		}

		window.RequestCount++
		window.LastRequest = now
		allowed = true
		return true
	})
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("ratelimit_service_consume_failed: %w", err))
	}

	if !allowed {
		ctxutil.GetLogger(ctx).Debug("ratelimit_quota_exhausted",
			"identifier", identifier,
			"reset_at", window.ResetAt(service.policy.Window),
		)
	}

	return service.result(window, allowed), nil
}

// Status reports the identifier's remaining quota without consuming a slot.
// An unknown or expired identifier reports a full quota resetting one window
// from now.
func (service *Service) Status(ctx context.Context, identifier string) (*Result, error) {
	window, err := service.store.Find(ctx, identifier)
	if err != nil {
		if apperr.IsNotFound(err) {
			return service.freshResult(), nil
		}
		return nil, apperr.Storage(fmt.Errorf("ratelimit_service_status_failed: %w", err))
	}

	if window.Expired(time.Now(), service.policy.Window) {
		return service.freshResult(), nil
	}

	remaining := service.policy.Quota - window.RequestCount
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   remaining > 0,
		Remaining: remaining,
		Total:     service.policy.Quota,
		ResetAt:   window.ResetAt(service.policy.Window),
	}, nil
}

// DeleteStale garbage-collects windows older than twice the window length.
// Called periodically by the janitor goroutine in the API entrypoint.
func (service *Service) DeleteStale(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-2 * service.policy.Window)

	deleted, err := service.store.DeleteStale(ctx, cutoff)
	if err != nil {
		return 0, apperr.Storage(fmt.Errorf("ratelimit_service_gc_failed: %w", err))
	}

	return deleted, nil
}

// result shapes the post-consume window state for the caller.
func (service *Service) result(window *Window, allowed bool) *Result {
	remaining := service.policy.Quota - window.RequestCount
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   allowed,
		Remaining: remaining,
		Total:     service.policy.Quota,
		ResetAt:   window.ResetAt(service.policy.Window),
	}
}

// freshResult describes an identifier with no live window.
func (service *Service) freshResult() *Result {
	return &Result{
		Allowed:   true,
		Remaining: service.policy.Quota,
		Total:     service.policy.Quota,
		ResetAt:   time.Now().Add(service.policy.Window),
	}
}
