// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/physai/fieldbook/internal/audit"
	"github.com/physai/fieldbook/internal/platform/apperr"
	"github.com/physai/fieldbook/internal/platform/validate"
)

// Service implements the questionnaire use cases.
type Service struct {
	store Store
	sink  audit.Sink
}

// NewService constructs a profile [Service].
func NewService(store Store, sink audit.Sink) *Service {
	return &Service{store: store, sink: sink}
}

// UpsertInput holds a complete questionnaire submission. All four fields are
// mandatory: the profile is replaced wholesale on every submission.
type UpsertInput struct {
	AccountID           string
	ProgrammingLevel    string
	RoboticsFamiliarity string
	HardwareExperience  string
	LearningGoal        string
	SourceIP            string
	UserAgent           string
}

// Upsert creates or wholesale-replaces the account's profile.
//
// # Returns
//   - [apperr.ValidationError] when any field is missing or outside its
//     closed value set.
func (service *Service) Upsert(ctx context.Context, input UpsertInput) (*Profile, error) {
	// ── 1. Boundary Validation ────────────────────────────────────────────

	if err := new(validate.Validator).
		OneOf("programming_level", input.ProgrammingLevel, ProgrammingLevels...).
		OneOf("robotics_familiarity", input.RoboticsFamiliarity, RoboticsFamiliarities...).
		OneOf("hardware_experience", input.HardwareExperience, HardwareExperiences...).
		OneOf("learning_goal", input.LearningGoal, LearningGoals...).
		Err(); err != nil {
		return nil, err
	}

	// ── 2. Persistence ────────────────────────────────────────────────────

	profile := &Profile{
		AccountID:           input.AccountID,
		ProgrammingLevel:    ProgrammingLevel(input.ProgrammingLevel),
		RoboticsFamiliarity: RoboticsFamiliarity(input.RoboticsFamiliarity),
		HardwareExperience:  HardwareExperience(input.HardwareExperience),
		LearningGoal:        LearningGoal(input.LearningGoal),
		UpdatedAt:           time.Now(),
	}

	created, err := service.store.Upsert(ctx, profile)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("profile_service_upsert_failed: %w", err))
	}

	// ── 3. Audit ──────────────────────────────────────────────────────────

	kind := audit.KindProfileUpdated
	if created {
		kind = audit.KindProfileCreated
	}
	service.sink.Record(ctx, audit.Event{
		AccountID: &profile.AccountID,
		Kind:      kind,
		SourceIP:  input.SourceIP,
		UserAgent: input.UserAgent,
	})

	return profile, nil
}

// FindByAccountID returns the account's profile, or [apperr.NotFound] when
// the questionnaire has not been completed.
func (service *Service) FindByAccountID(ctx context.Context, accountID string) (*Profile, error) {
	return service.store.FindByAccountID(ctx, accountID)
}
