// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package guard decides whether a view may be entered given the session and
// progression trees. Every function is pure: it reads a View and returns a
// Decision, and the router acts on it before anything is rendered.
package guard

import (
	"github.com/ManuGH/onboard/internal/onboarding/model"
)

// Guard names, reported with redirect decisions.
const (
	NameAuth                 = "auth"
	NameOnboardingIncomplete = "onboarding_incomplete"
	NameOnboardingCompleted  = "onboarding_completed"
	NameStepIndex            = "step_index"
	NameStepClick            = "step_click"
	NameLogin                = "login"
	NameRoot                 = "root"
	NameUnknown              = "unknown"
)

// View is the derived read path combining both state trees.
// It does not own either tree.
type View struct {
	Session     model.SessionState
	Progression model.ProgressionState
}

// Decision is either Allow or a redirect to Redirect.
// From is the location that was requested when AuthGuard redirected; honoring
// it after login is best-effort.
type Decision struct {
	Allow    bool
	Redirect string
	From     string
	Guard    string
}

// Allowed is the allow decision.
func Allowed() Decision {
	return Decision{Allow: true}
}

// RedirectTo builds a redirect decision attributed to guard.
func RedirectTo(path, guard string) Decision {
	return Decision{Redirect: path, Guard: guard}
}

// Chain evaluates guards in order and returns the first redirect.
// Later guards may assume the postconditions of earlier ones.
func Chain(guards ...func() Decision) Decision {
	for _, g := range guards {
		if d := g(); !d.Allow {
			return d
		}
	}
	return Allowed()
}

// RequireAuth allows iff the session is authenticated.
func RequireAuth(s model.SessionState, from string) Decision {
	if s.IsAuthenticated {
		return Allowed()
	}
	d := RedirectTo(PathLogin, NameAuth)
	d.From = from
	return d
}

// RequireOnboardingIncomplete keeps completed users out of the wizard.
func RequireOnboardingIncomplete(p model.ProgressionState) Decision {
	if p.IsComplete {
		return RedirectTo(PathHome, NameOnboardingIncomplete)
	}
	return Allowed()
}

// RequireOnboardingCompleted keeps users out of home until the wizard is done.
func RequireOnboardingCompleted(p model.ProgressionState) Decision {
	if !p.IsComplete {
		return RedirectTo(PathOnboarding, NameOnboardingCompleted)
	}
	return Allowed()
}

// ResolveStepIndex sends the bare onboarding root to the current step.
func ResolveStepIndex(p model.ProgressionState) Decision {
	return RedirectTo(p.CurrentStep.Path(), NameStepIndex)
}

// CanJumpToStep reports whether wizard-internal navigation to s is allowed:
// any step up to the current one, or any completed step.
func CanJumpToStep(p model.ProgressionState, s model.StepID) bool {
	if !s.Valid() {
		return false
	}
	return s <= p.CurrentStep || p.CompletedSteps.Has(s)
}

// StepClick allows a jump to s or redirects to the current step.
func StepClick(p model.ProgressionState, s model.StepID) Decision {
	if CanJumpToStep(p, s) {
		return Allowed()
	}
	return RedirectTo(p.CurrentStep.Path(), NameStepClick)
}

// PostLoginTarget is where an authenticated user lands from the login view.
func PostLoginTarget(p model.ProgressionState) string {
	if p.IsComplete {
		return PathHome
	}
	return p.CurrentStep.Path()
}
