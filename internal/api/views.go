// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"github.com/ManuGH/onboard/internal/onboarding/guard"
	"github.com/ManuGH/onboard/internal/onboarding/model"
	"github.com/ManuGH/onboard/internal/onboarding/validate"
)

// View names.
const (
	viewLogin = "login"
	viewStep  = "step"
	viewHome  = "home"
)

type loginView struct {
	View  string  `json:"view"`
	Error *string `json:"error"`
	From  string  `json:"from,omitempty"`
}

// stepIndicator is one entry of the wizard's step indicator.
type stepIndicator struct {
	Step      model.StepID `json:"step"`
	Title     string       `json:"title"`
	Path      string       `json:"path"`
	Active    bool         `json:"active"`
	Completed bool         `json:"completed"`
	Reachable bool         `json:"reachable"`
}

type progressView struct {
	CurrentStep    model.StepID    `json:"currentStep"`
	TotalSteps     int             `json:"totalSteps"`
	CompletedSteps model.StepSet   `json:"completedSteps"`
	IsComplete     bool            `json:"isComplete"`
	Steps          []stepIndicator `json:"steps"`
}

type stepView struct {
	View     string       `json:"view"`
	Step     model.StepID `json:"step"`
	Title    string       `json:"title"`
	Progress progressView `json:"progress"`
	Form     any          `json:"form"`
}

type profileForm struct {
	Profile      model.Profile `json:"profile"`
	PhotoPending int64         `json:"photoPending"`
	MaxPhotoSize int           `json:"maxPhotoBytes"`
}

type songsForm struct {
	TopSongs       []string `json:"topSongs"`
	FavoriteSongs  []string `json:"favoriteSongs"`
	CustomSongs    []string `json:"customSongs"`
	MaxCustomSongs int      `json:"maxCustomSongs"`
}

type paymentForm struct {
	Payment model.PaymentDetails `json:"payment"`
}

type successForm struct {
	Message string `json:"message"`
}

type homeView struct {
	View     string `json:"view"`
	Username string `json:"username,omitempty"`
	Message  string `json:"message"`
}

func newProgressView(p model.ProgressionState) progressView {
	steps := make([]stepIndicator, 0, model.TotalSteps)
	for _, s := range model.AllSteps() {
		steps = append(steps, stepIndicator{
			Step:      s,
			Title:     s.Title(),
			Path:      s.Path(),
			Active:    s == p.CurrentStep,
			Completed: p.CompletedSteps.Has(s),
			Reachable: guard.CanJumpToStep(p, s),
		})
	}
	return progressView{
		CurrentStep:    p.CurrentStep,
		TotalSteps:     model.TotalSteps,
		CompletedSteps: p.CompletedSteps,
		IsComplete:     p.IsComplete,
		Steps:          steps,
	}
}

func (s *Server) newStepView(step model.StepID, p model.ProgressionState) stepView {
	v := stepView{
		View:     viewStep,
		Step:     step,
		Title:    step.Title(),
		Progress: newProgressView(p),
	}
	switch step {
	case model.StepProfile:
		v.Form = profileForm{
			Profile:      p.Profile,
			PhotoPending: s.photos.Pending(),
			MaxPhotoSize: validate.MaxPhotoBytes,
		}
	case model.StepSongs:
		v.Form = songsForm{
			TopSongs:       validate.TopSongs,
			FavoriteSongs:  p.Songs,
			CustomSongs:    validate.CustomSongPrefill(p.Songs),
			MaxCustomSongs: validate.MaxCustomSongs,
		}
	case model.StepPayment:
		v.Form = paymentForm{Payment: p.Payment}
	case model.StepSuccess:
		v.Form = successForm{Message: "You're almost done. Finish onboarding to start exploring."}
	}
	return v
}

func homeMessage(username string) string {
	if username == "" {
		return "You are all set. Explore the app and personalize your experience."
	}
	return "You're all set, " + username + ". Explore the app and personalize your experience."
}
