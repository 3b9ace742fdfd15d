// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuGH/onboard/internal/onboarding/model"
)

func authed() model.SessionState {
	return model.SessionState{IsAuthenticated: true, Identity: &model.Identity{Username: "user123"}}
}

func progression(current model.StepID, done ...model.StepID) model.ProgressionState {
	p := model.DefaultProgression()
	p.CurrentStep = current
	p.CompletedSteps = model.StepSetOf(done...)
	p.IsComplete = p.CompletedSteps.Has(model.StepSuccess)
	return p
}

func TestResolve_AnonymousAlwaysGoesToLogin(t *testing.T) {
	progressions := []model.ProgressionState{
		model.DefaultProgression(),
		progression(model.StepPayment, model.StepProfile, model.StepSongs),
		progression(model.StepSuccess, model.StepProfile, model.StepSongs, model.StepPayment, model.StepSuccess),
	}
	paths := []string{"/onboarding", "/onboarding/step-1", "/onboarding/step-2", "/onboarding/step-4", "/home"}

	for _, p := range progressions {
		for _, path := range paths {
			d := Resolve(path, View{Session: model.DefaultSession(), Progression: p})
			assert.False(t, d.Allow, path)
			assert.Equal(t, PathLogin, d.Redirect, path)
			assert.Equal(t, NameAuth, d.Guard, path)
			assert.Equal(t, path, d.From, path)
		}
	}
}

func TestResolve_CompletedUserCannotReenterWizard(t *testing.T) {
	v := View{Session: authed(), Progression: progression(model.StepSuccess,
		model.StepProfile, model.StepSongs, model.StepPayment, model.StepSuccess)}

	d := Resolve("/onboarding/step-2", v)
	assert.Equal(t, PathHome, d.Redirect)
	assert.Equal(t, NameOnboardingIncomplete, d.Guard)

	assert.Equal(t, PathHome, Resolve("/onboarding", v).Redirect)
	assert.True(t, Resolve("/home", v).Allow)
}

func TestResolve_HomeRequiresCompletion(t *testing.T) {
	v := View{Session: authed(), Progression: progression(model.StepSongs, model.StepProfile)}
	d := Resolve("/home", v)
	assert.Equal(t, PathOnboarding, d.Redirect)
	assert.Equal(t, NameOnboardingCompleted, d.Guard)
}

func TestResolve_StepIndexResumesCurrentStep(t *testing.T) {
	v := View{Session: authed(), Progression: progression(model.StepPayment, model.StepProfile, model.StepSongs)}
	d := Resolve("/onboarding", v)
	assert.Equal(t, "/onboarding/step-3", d.Redirect)
	assert.Equal(t, NameStepIndex, d.Guard)

	assert.Equal(t, "/onboarding/step-3", Resolve("/onboarding/", v).Redirect)
}

func TestResolve_StepClick(t *testing.T) {
	v := View{Session: authed(), Progression: progression(model.StepSongs, model.StepProfile)}

	assert.True(t, Resolve("/onboarding/step-1", v).Allow)
	assert.True(t, Resolve("/onboarding/step-2", v).Allow)

	d := Resolve("/onboarding/step-4", v)
	assert.Equal(t, "/onboarding/step-2", d.Redirect)
	assert.Equal(t, NameStepClick, d.Guard)
}

func TestCanJumpToStep(t *testing.T) {
	// user went back to step 1 after completing 1..3
	p := progression(model.StepProfile, model.StepProfile, model.StepSongs, model.StepPayment)
	assert.True(t, CanJumpToStep(p, model.StepProfile))
	assert.True(t, CanJumpToStep(p, model.StepSongs))
	assert.True(t, CanJumpToStep(p, model.StepPayment))
	assert.False(t, CanJumpToStep(p, model.StepSuccess))
	assert.False(t, CanJumpToStep(p, 0))
	assert.False(t, CanJumpToStep(p, 5))
}

func TestResolve_LoginAndUnknown(t *testing.T) {
	anon := View{Session: model.DefaultSession(), Progression: model.DefaultProgression()}
	assert.True(t, Resolve("/login", anon).Allow)
	assert.Equal(t, PathLogin, Resolve("/", anon).Redirect)
	assert.Equal(t, PathLogin, Resolve("/nope", anon).Redirect)
	assert.Equal(t, PathLogin, Resolve("/onboarding/step-9", anon).Redirect)
	assert.Equal(t, NameUnknown, Resolve("/onboarding/step-9", anon).Guard)

	in := View{Session: authed(), Progression: progression(model.StepSongs, model.StepProfile)}
	assert.Equal(t, "/onboarding/step-2", Resolve("/login", in).Redirect)

	done := View{Session: authed(), Progression: progression(model.StepSuccess,
		model.StepProfile, model.StepSongs, model.StepPayment, model.StepSuccess)}
	assert.Equal(t, PathHome, Resolve("/login", done).Redirect)
}

func TestDecision_Location(t *testing.T) {
	d := RequireAuth(model.DefaultSession(), "/onboarding/step-2")
	assert.Equal(t, "/login?from=%2Fonboarding%2Fstep-2", d.Location())
	assert.Equal(t, "", Allowed().Location())
	assert.Equal(t, PathHome, RedirectTo(PathHome, NameLogin).Location())
}

func TestSafeReturnPath(t *testing.T) {
	for from, ok := range map[string]bool{
		"/onboarding/step-2": true,
		"/home":              true,
		"/onboarding":        true,
		"/login":             false,
		"//evil.example":     false,
		"https://x.example":  false,
		"":                   false,
		"/unknown":           false,
	} {
		_, got := SafeReturnPath(from)
		assert.Equal(t, ok, got, from)
	}
}

func TestChain_StopsAtFirstRedirect(t *testing.T) {
	calls := 0
	d := Chain(
		func() Decision { calls++; return Allowed() },
		func() Decision { calls++; return RedirectTo("/x", "first") },
		func() Decision { calls++; return RedirectTo("/y", "second") },
	)
	assert.Equal(t, "/x", d.Redirect)
	assert.Equal(t, 2, calls)
}
