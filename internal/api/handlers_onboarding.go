// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/onboard/internal/api/problem"
	xglog "github.com/ManuGH/onboard/internal/log"
	"github.com/ManuGH/onboard/internal/onboarding/guard"
	"github.com/ManuGH/onboard/internal/onboarding/model"
	"github.com/ManuGH/onboard/internal/onboarding/store"
)

// flexString accepts a JSON string or a bare number and keeps the text as
// entered, so "abc" and 25 both reach the age rule unchanged.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		*f = flexString(b)
	}
	return nil
}

type profileRequest struct {
	Name  string     `json:"name"`
	Age   flexString `json:"age"`
	Email string     `json:"email"`
	Photo *string    `json:"profilePicture"`
}

// profile maps the request to the payload. An empty photo removes it.
func (req profileRequest) profile() model.Profile {
	p := model.Profile{
		Name:  req.Name,
		Age:   string(req.Age),
		Email: req.Email,
	}
	if req.Photo != nil && *req.Photo != "" {
		photo := *req.Photo
		p.Photo = &photo
	}
	return p
}

type songsRequest struct {
	Songs []string `json:"songs"`
}

// handleNavigate serves the routes that only ever redirect: the root, the
// onboarding index and every unknown path.
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	if !s.enforce(w, r, guard.Resolve(r.URL.Path, s.store.View())) {
		return
	}
	redirect(w, guard.PathLogin)
}

// handleStepView renders a wizard step. Opening an allowed step moves the
// navigation pointer there.
func (s *Server) handleStepView(w http.ResponseWriter, r *http.Request) {
	if !s.enforce(w, r, guard.Resolve(r.URL.Path, s.store.View())) {
		return
	}
	_, step := guard.ParseRoute(r.URL.Path)

	p := s.store.Progression()
	if p.CurrentStep != step {
		var err error
		if p, err = s.store.GoToStep(r.Context(), step); err != nil {
			s.writeTransitionError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.newStepView(step, p))
}

// guardStep runs the guard chain of a step view for a submission to it.
func (s *Server) guardStep(w http.ResponseWriter, r *http.Request, step model.StepID) bool {
	return s.enforce(w, r, guard.Resolve(step.Path(), s.store.View()))
}

func (s *Server) handleSubmitProfile(w http.ResponseWriter, r *http.Request) {
	if !s.guardStep(w, r, model.StepProfile) {
		return
	}
	if s.photos.Pending() > 0 {
		problem.Write(w, r, http.StatusConflict, problem.TypePhotoPending, "Photo Pending", "PHOTO_PENDING",
			"Wait for the photo upload to finish before continuing.", nil)
		return
	}
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		problem.BadRequest(w, r, err.Error())
		return
	}
	adv, err := s.store.SubmitProfile(r.Context(), req.profile())
	s.writeAdvance(w, r, adv, err)
}

func (s *Server) handleSubmitSongs(w http.ResponseWriter, r *http.Request) {
	if !s.guardStep(w, r, model.StepSongs) {
		return
	}
	var req songsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		problem.BadRequest(w, r, err.Error())
		return
	}
	adv, err := s.store.SubmitSongs(r.Context(), req.Songs)
	s.writeAdvance(w, r, adv, err)
}

func (s *Server) handleSubmitPayment(w http.ResponseWriter, r *http.Request) {
	if !s.guardStep(w, r, model.StepPayment) {
		return
	}
	var req model.PaymentDetails
	if err := decodeJSON(w, r, &req); err != nil {
		problem.BadRequest(w, r, err.Error())
		return
	}
	adv, err := s.store.SubmitPayment(r.Context(), req)
	s.writeAdvance(w, r, adv, err)
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	if !s.guardStep(w, r, model.StepSuccess) {
		return
	}
	adv, err := s.store.Finish(r.Context())
	s.writeAdvance(w, r, adv, err)
}

// handleReset discards the progression and restarts the wizard.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if !s.enforce(w, r, guard.RequireAuth(s.store.Session(), "")) {
		return
	}
	s.store.Reset(r.Context())
	redirect(w, model.FirstStep.Path())
}

func (s *Server) writeAdvance(w http.ResponseWriter, r *http.Request, adv store.Advance, err error) {
	if err != nil {
		s.writeTransitionError(w, r, err)
		return
	}
	if !adv.OK() {
		problem.Validation(w, r, adv.Errors)
		return
	}
	redirect(w, adv.Redirect)
}

// writeTransitionError maps a refused transition. The guards normally catch
// these first; they surface when the state changed between check and apply.
func (s *Server) writeTransitionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrUnauthenticated):
		redirect(w, guard.PathLogin)
	case errors.Is(err, store.ErrOnboardingComplete):
		redirect(w, guard.PathHome)
	case errors.Is(err, store.ErrStepUnreachable):
		problem.Conflict(w, r, "STEP_UNREACHABLE", "Finish the current step first.")
	case errors.Is(err, store.ErrStepsIncomplete):
		problem.Conflict(w, r, "STEPS_INCOMPLETE", "Complete every earlier step before finishing.")
	default:
		logger := xglog.WithContext(r.Context(), s.logger)
		logger.Error().Err(err).
			Str(xglog.FieldEvent, "onboarding.transition_failed").
			Str(xglog.FieldPath, r.URL.Path).
			Msg("transition failed")
		problem.Internal(w, r)
	}
}
