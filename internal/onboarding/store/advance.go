// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"fmt"

	xglog "github.com/ManuGH/onboard/internal/log"
	"github.com/ManuGH/onboard/internal/metrics"
	"github.com/ManuGH/onboard/internal/onboarding/guard"
	"github.com/ManuGH/onboard/internal/onboarding/model"
	"github.com/ManuGH/onboard/internal/onboarding/validate"
)

// Advance is the outcome of a step submission. When Errors is non-empty the
// state was not touched and Redirect is empty.
type Advance struct {
	Errors      validate.FieldErrors
	Redirect    string
	Progression model.ProgressionState
}

// OK reports whether the step advanced.
func (a Advance) OK() bool { return a.Errors.OK() }

// SubmitProfile validates and stores step 1, then moves to step 2.
func (s *Store) SubmitProfile(ctx context.Context, p model.Profile) (Advance, error) {
	errs := validate.Profile(p)
	return s.advance(ctx, model.StepProfile, errs, func(st *model.ProgressionState) {
		st.Profile = p.Clone()
	})
}

// SubmitSongs normalizes and stores the custom song entries of step 2, then
// moves to step 3.
func (s *Store) SubmitSongs(ctx context.Context, entries []string) (Advance, error) {
	songs, errs := validate.Songs(entries)
	return s.advance(ctx, model.StepSongs, errs, func(st *model.ProgressionState) {
		st.Songs = cloneSongs(songs)
	})
}

// SubmitPayment formats, validates and stores step 3, then moves to step 4.
// The stored values keep their display formatting.
func (s *Store) SubmitPayment(ctx context.Context, raw model.PaymentDetails) (Advance, error) {
	p := validate.FormatPayment(raw)
	errs := validate.Payment(p, s.now())
	return s.advance(ctx, model.StepPayment, errs, func(st *model.ProgressionState) {
		st.Payment = p
	})
}

// Finish completes the success step once every earlier step is done and
// sends the user home.
func (s *Store) Finish(ctx context.Context) (Advance, error) {
	return s.advance(ctx, model.FinalStep, validate.FieldErrors{}, nil)
}

// advance runs the step protocol: validate, set the payload, complete the
// step, move the pointer to the next step, persist. Validation errors leave
// the state untouched.
func (s *Store) advance(ctx context.Context, step model.StepID, errs validate.FieldErrors, set func(*model.ProgressionState)) (Advance, error) {
	logger := xglog.WithContext(ctx, s.logger).With().Int(xglog.FieldStep, int(step)).Logger()

	if !errs.OK() {
		metrics.RecordValidationFailure(step.String())
		fields := make([]string, 0, len(errs))
		for f := range errs {
			fields = append(fields, f)
		}
		logger.Debug().Str(xglog.FieldEvent, "onboarding.validation_failed").Strs("fields", fields).Msg("step rejected")
		return Advance{Errors: errs, Progression: s.Progression()}, nil
	}

	snap, err := s.apply(ctx, "advance", step, func(st *model.Snapshot) error {
		if !st.Session.IsAuthenticated {
			return ErrUnauthenticated
		}
		p := &st.Progression
		if p.IsComplete {
			return ErrOnboardingComplete
		}
		if !guard.CanJumpToStep(*p, step) {
			return fmt.Errorf("%w: step %d, current %d", ErrStepUnreachable, step, p.CurrentStep)
		}
		if step == model.FinalStep {
			for _, prev := range model.AllSteps()[:model.FinalStep-1] {
				if !p.CompletedSteps.Has(prev) {
					return fmt.Errorf("%w: step %d", ErrStepsIncomplete, prev)
				}
			}
		}

		if set != nil {
			set(p)
		}
		completeStep(p, step)
		if next, ok := step.Next(); ok {
			p.CurrentStep = next
		}
		return nil
	})
	if err != nil {
		logger.Warn().Err(err).Str(xglog.FieldEvent, "onboarding.advance_rejected").Msg("step not advanced")
		return Advance{Errors: validate.FieldErrors{}, Progression: snap.Progression}, err
	}

	logger.Info().Str(xglog.FieldEvent, "onboarding.step_completed").Msg("step completed")
	return Advance{
		Errors:      validate.FieldErrors{},
		Redirect:    guard.PostLoginTarget(snap.Progression),
		Progression: snap.Progression,
	}, nil
}
