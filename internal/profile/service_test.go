// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

package profile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physai/fieldbook/internal/audit"
	"github.com/physai/fieldbook/internal/platform/apperr"
	"github.com/physai/fieldbook/internal/profile"
)

// fakeStore is an in-memory [profile.Store].
type fakeStore struct {
	profiles map[string]*profile.Profile
	failWith error // when set, writes fail with this error
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: make(map[string]*profile.Profile)}
}

func (store *fakeStore) FindByAccountID(_ context.Context, accountID string) (*profile.Profile, error) {
	if stored, ok := store.profiles[accountID]; ok {
		copied := *stored
		return &copied, nil
	}
	return nil, apperr.NotFound("Profile")
}

func (store *fakeStore) Upsert(_ context.Context, submitted *profile.Profile) (bool, error) {
	if store.failWith != nil {
		return false, store.failWith
	}
	_, existed := store.profiles[submitted.AccountID]
	copied := *submitted
	store.profiles[submitted.AccountID] = &copied
	return !existed, nil
}

// capturingSink records audit events for assertions.
type capturingSink struct {
	events []audit.Event
}

func (sink *capturingSink) Record(_ context.Context, event audit.Event) {
	sink.events = append(sink.events, event)
}

func validInput(accountID string) profile.UpsertInput {
	return profile.UpsertInput{
		AccountID:           accountID,
		ProgrammingLevel:    "beginner",
		RoboticsFamiliarity: "hobbyist",
		HardwareExperience:  "arduino",
		LearningGoal:        "career_change",
	}
}

/*
TestService_Upsert_CreateThenReplace verifies the wholesale-replace lifecycle
and the created/updated audit event split.
*/
func TestService_Upsert_CreateThenReplace(t *testing.T) {
	store := newFakeStore()
	sink := &capturingSink{}
	service := profile.NewService(store, sink)

	// 1. First submission creates the profile.
	created, err := service.Upsert(context.Background(), validInput("acct-1"))
	require.NoError(t, err)
	assert.Equal(t, profile.ProgrammingBeginner, created.ProgrammingLevel)

	// 2. Second submission replaces every field wholesale.
	replacement := validInput("acct-1")
	replacement.ProgrammingLevel = "advanced"
	replacement.RoboticsFamiliarity = "professional"
	replacement.HardwareExperience = "industrial"
	replacement.LearningGoal = "professional_dev"

	updated, err := service.Upsert(context.Background(), replacement)
	require.NoError(t, err)
	assert.Equal(t, profile.ProgrammingAdvanced, updated.ProgrammingLevel)
	assert.Equal(t, profile.RoboticsProfessional, updated.RoboticsFamiliarity)

	// 3. Exactly one profile exists, with the replacement values.
	stored, err := service.FindByAccountID(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, profile.HardwareIndustrial, stored.HardwareExperience)

	require.Len(t, sink.events, 2)
	assert.Equal(t, audit.KindProfileCreated, sink.events[0].Kind)
	assert.Equal(t, audit.KindProfileUpdated, sink.events[1].Kind)
}

/*
TestService_Upsert_RejectsUnknownValues verifies that each enum field is a
closed set: anything outside the four allowed values fails validation, and a
partial submission (missing field) fails the same way.
*/
func TestService_Upsert_RejectsUnknownValues(t *testing.T) {
	store := newFakeStore()
	service := profile.NewService(store, &capturingSink{})

	testCases := []struct {
		name   string
		mutate func(*profile.UpsertInput)
	}{
		{"unknown programming level", func(input *profile.UpsertInput) { input.ProgrammingLevel = "wizard" }},
		{"unknown robotics familiarity", func(input *profile.UpsertInput) { input.RoboticsFamiliarity = "expert" }},
		{"unknown hardware experience", func(input *profile.UpsertInput) { input.HardwareExperience = "raspberry" }},
		{"unknown learning goal", func(input *profile.UpsertInput) { input.LearningGoal = "fun" }},
		{"missing field", func(input *profile.UpsertInput) { input.LearningGoal = "" }},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			input := validInput("acct-1")
			testCase.mutate(&input)

			_, err := service.Upsert(context.Background(), input)
			require.Error(t, err)
			assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
		})
	}

	// Nothing was persisted by any rejected submission.
	_, err := service.FindByAccountID(context.Background(), "acct-1")
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestService_Upsert_StoreFailure verifies that an infrastructure failure
surfaces as STORAGE_ERROR and emits no audit event.
*/
func TestService_Upsert_StoreFailure(t *testing.T) {
	store := newFakeStore()
	sink := &capturingSink{}
	service := profile.NewService(store, sink)

	store.failWith = errors.New("connection reset by peer")

	_, err := service.Upsert(context.Background(), validInput("acct-1"))
	require.Error(t, err)
	assert.Equal(t, "STORAGE_ERROR", apperr.As(err).Code)
	assert.Empty(t, sink.events)
}
