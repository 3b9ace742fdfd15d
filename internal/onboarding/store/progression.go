// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"fmt"
	"slices"

	xglog "github.com/ManuGH/onboard/internal/log"
	"github.com/ManuGH/onboard/internal/onboarding/model"
)

// GoToStep moves the navigation pointer. It does not check access; callers
// consult the guards first.
func (s *Store) GoToStep(ctx context.Context, step model.StepID) (model.ProgressionState, error) {
	if !step.Valid() {
		return s.Progression(), fmt.Errorf("%w: %d", model.ErrInvalidStep, step)
	}
	snap, err := s.apply(ctx, "go_to_step", step, func(st *model.Snapshot) error {
		st.Progression.CurrentStep = step
		return nil
	})
	return snap.Progression, err
}

// CompleteStep marks step complete. Repeating it is a no-op on the set.
// Completing the final step latches IsComplete.
func (s *Store) CompleteStep(ctx context.Context, step model.StepID) (model.ProgressionState, error) {
	if !step.Valid() {
		return s.Progression(), fmt.Errorf("%w: %d", model.ErrInvalidStep, step)
	}
	snap, err := s.apply(ctx, "complete_step", step, func(st *model.Snapshot) error {
		completeStep(&st.Progression, step)
		return nil
	})
	return snap.Progression, err
}

func completeStep(p *model.ProgressionState, step model.StepID) {
	p.CompletedSteps = p.CompletedSteps.With(step)
	if step == model.FinalStep {
		p.IsComplete = true
	}
}

// SetProfile replaces the profile slot.
func (s *Store) SetProfile(ctx context.Context, p model.Profile) model.ProgressionState {
	snap, _ := s.apply(ctx, "set_profile", 0, func(st *model.Snapshot) error {
		st.Progression.Profile = p.Clone()
		return nil
	})
	return snap.Progression
}

// SetSongs replaces the song list.
func (s *Store) SetSongs(ctx context.Context, songs []string) model.ProgressionState {
	snap, _ := s.apply(ctx, "set_songs", 0, func(st *model.Snapshot) error {
		st.Progression.Songs = cloneSongs(songs)
		return nil
	})
	return snap.Progression
}

// SetPayment replaces the payment slot.
func (s *Store) SetPayment(ctx context.Context, p model.PaymentDetails) model.ProgressionState {
	snap, _ := s.apply(ctx, "set_payment", 0, func(st *model.Snapshot) error {
		st.Progression.Payment = p
		return nil
	})
	return snap.Progression
}

// Reset restores the initial progression, including the completion latch.
// The session is untouched.
func (s *Store) Reset(ctx context.Context) model.ProgressionState {
	snap, _ := s.apply(ctx, "reset", 0, func(st *model.Snapshot) error {
		st.Progression = model.DefaultProgression()
		return nil
	})
	logger := xglog.WithContext(ctx, s.logger)
	logger.Info().Str(xglog.FieldEvent, "onboarding.reset").Msg("progression reset")
	return snap.Progression
}

func cloneSongs(songs []string) []string {
	out := slices.Clone(songs)
	if out == nil {
		out = []string{}
	}
	return out
}
