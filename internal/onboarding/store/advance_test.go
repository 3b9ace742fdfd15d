// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/onboard/internal/onboarding/model"
	"github.com/ManuGH/onboard/internal/onboarding/validate"
)

// driveToHome runs the advance protocol for every step in order.
func driveToHome(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	adv, err := s.SubmitProfile(ctx, validProfile())
	require.NoError(t, err)
	require.True(t, adv.OK(), "profile: %v", adv.Errors)

	adv, err = s.SubmitSongs(ctx, []string{"Imagine - John Lennon"})
	require.NoError(t, err)
	require.True(t, adv.OK(), "songs: %v", adv.Errors)

	adv, err = s.SubmitPayment(ctx, validPayment())
	require.NoError(t, err)
	require.True(t, adv.OK(), "payment: %v", adv.Errors)

	adv, err = s.Finish(ctx)
	require.NoError(t, err)
	require.True(t, adv.OK())
}

func TestAdvance_CompletionOrdering(t *testing.T) {
	s, _ := loggedIn(t)
	ctx := context.Background()

	adv, err := s.SubmitProfile(ctx, validProfile())
	require.NoError(t, err)
	assert.Equal(t, "/onboarding/step-2", adv.Redirect)
	assert.Equal(t, []model.StepID{model.StepProfile}, adv.Progression.CompletedSteps.Steps())
	assert.Equal(t, model.StepSongs, adv.Progression.CurrentStep)

	adv, err = s.SubmitSongs(ctx, []string{"A", "a", "A", "B", " "})
	require.NoError(t, err)
	assert.Equal(t, "/onboarding/step-3", adv.Redirect)
	assert.Equal(t, []string{"A", "a", "B"}, adv.Progression.Songs)
	assert.Equal(t, []model.StepID{model.StepProfile, model.StepSongs}, adv.Progression.CompletedSteps.Steps())

	adv, err = s.SubmitPayment(ctx, validPayment())
	require.NoError(t, err)
	assert.Equal(t, "/onboarding/step-4", adv.Redirect)
	assert.Equal(t, model.PaymentDetails{CardNumber: "4111 1111 1111 1111", ExpiryDate: "06/26", CVV: "123"}, adv.Progression.Payment)
	assert.False(t, adv.Progression.IsComplete)

	adv, err = s.Finish(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/home", adv.Redirect)
	assert.True(t, adv.Progression.IsComplete)
	assert.Equal(t, model.AllSteps(), adv.Progression.CompletedSteps.Steps())
	assert.Equal(t, model.StepSuccess, adv.Progression.CurrentStep)
}

func TestAdvance_ValidationFailureTakesNoAction(t *testing.T) {
	s, rec := loggedIn(t)
	before := s.Snapshot()

	adv, err := s.SubmitPayment(context.Background(), model.PaymentDetails{CardNumber: "4111 1111 1111", ExpiryDate: "13/25"})

	require.NoError(t, err)
	assert.False(t, adv.OK())
	assert.Empty(t, adv.Redirect)
	assert.Equal(t, map[string]string{
		validate.FieldCardNumber: "Enter a 16-digit card number.",
		validate.FieldExpiryDate: "Use MM/YY format.",
		validate.FieldCVV:        "Security code is required.",
	}, map[string]string(adv.Errors))
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, 1, rec.count(), "only the login was written")
}

func TestAdvance_ProfileErrors(t *testing.T) {
	s, _ := loggedIn(t)

	adv, err := s.SubmitProfile(context.Background(), model.Profile{Name: "  ", Age: "9", Email: "nope"})

	require.NoError(t, err)
	assert.Len(t, adv.Errors, 3)
	assert.Equal(t, model.StepProfile, s.Progression().CurrentStep)
}

func TestAdvance_SongsRequired(t *testing.T) {
	s, _ := loggedIn(t)
	_, err := s.SubmitProfile(context.Background(), validProfile())
	require.NoError(t, err)

	adv, err := s.SubmitSongs(context.Background(), []string{" ", ""})

	require.NoError(t, err)
	assert.Equal(t, "Pick at least one song to continue.", adv.Errors[validate.FieldSongs])
}

func TestAdvance_RequiresAuthentication(t *testing.T) {
	s, rec := newStore(t)

	_, err := s.SubmitProfile(context.Background(), validProfile())

	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Zero(t, rec.count())
}

func TestAdvance_CannotSkipAhead(t *testing.T) {
	s, _ := loggedIn(t)

	_, err := s.SubmitPayment(context.Background(), validPayment())

	assert.ErrorIs(t, err, ErrStepUnreachable)
	assert.Zero(t, s.Progression().CompletedSteps.Len())
}

func TestAdvance_FinishNeedsEarlierSteps(t *testing.T) {
	s, _ := loggedIn(t)
	ctx := context.Background()
	_, err := s.GoToStep(ctx, model.StepSuccess)
	require.NoError(t, err)

	_, err = s.Finish(ctx)

	assert.ErrorIs(t, err, ErrStepsIncomplete)
	assert.False(t, s.Progression().IsComplete)
}

func TestAdvance_RejectedAfterCompletion(t *testing.T) {
	s, _ := loggedIn(t)
	driveToHome(t, s)

	_, err := s.SubmitProfile(context.Background(), validProfile())

	assert.ErrorIs(t, err, ErrOnboardingComplete)
}

func TestAdvance_RevisitingEarlierStep(t *testing.T) {
	s, _ := loggedIn(t)
	ctx := context.Background()
	_, err := s.SubmitProfile(ctx, validProfile())
	require.NoError(t, err)
	_, err = s.SubmitSongs(ctx, []string{"Mine"})
	require.NoError(t, err)

	updated := validProfile()
	updated.Name = "Grace Hopper"
	adv, err := s.SubmitProfile(ctx, updated)

	require.NoError(t, err)
	assert.Equal(t, "/onboarding/step-2", adv.Redirect)
	assert.Equal(t, "Grace Hopper", adv.Progression.Profile.Name)
	assert.Equal(t, model.StepSetOf(model.StepProfile, model.StepSongs), adv.Progression.CompletedSteps)
}

func TestAdvance_ExpiredCard(t *testing.T) {
	s, _ := loggedIn(t)
	ctx := context.Background()
	_, _ = s.SubmitProfile(ctx, validProfile())
	_, _ = s.SubmitSongs(ctx, []string{"Mine"})

	p := validPayment()
	p.ExpiryDate = "05/24"
	adv, err := s.SubmitPayment(ctx, p)

	require.NoError(t, err)
	assert.Equal(t, "This card is expired.", adv.Errors[validate.FieldExpiryDate])

	p.ExpiryDate = "06/24"
	adv, err = s.SubmitPayment(ctx, p)
	require.NoError(t, err)
	assert.True(t, adv.OK())
}
