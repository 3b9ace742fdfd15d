// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepSet_WithIsIdempotent(t *testing.T) {
	once := StepSet(0).With(StepSongs)
	twice := once.With(StepSongs)

	assert.Equal(t, once, twice)
	assert.Equal(t, 1, twice.Len())
	assert.True(t, twice.Has(StepSongs))
	assert.False(t, twice.Has(StepProfile))
}

func TestStepSet_IgnoresInvalidSteps(t *testing.T) {
	set := StepSetOf(0, 5, StepPayment)
	assert.Equal(t, []StepID{StepPayment}, set.Steps())
	assert.False(t, set.Has(0))
}

func TestStepSet_JSONRoundTrip(t *testing.T) {
	set := StepSetOf(StepPayment, StepProfile)

	raw, err := json.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `[1,3]`, string(raw))

	var back StepSet
	require.NoError(t, json.Unmarshal([]byte(`[3,1,3]`), &back))
	assert.Equal(t, set, back)
}

func TestStepSet_UnmarshalRejectsUnknownStep(t *testing.T) {
	var set StepSet
	err := json.Unmarshal([]byte(`[1,7]`), &set)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidStep))
}

func TestParseStepID(t *testing.T) {
	s, err := ParseStepID("3")
	require.NoError(t, err)
	assert.Equal(t, StepPayment, s)
	assert.Equal(t, "/onboarding/step-3", s.Path())
	assert.Equal(t, "Payment Information", s.Title())

	for _, raw := range []string{"0", "5", "x", ""} {
		_, err := ParseStepID(raw)
		assert.ErrorIs(t, err, ErrInvalidStep, raw)
	}
}

func TestStepID_Next(t *testing.T) {
	next, ok := StepProfile.Next()
	assert.True(t, ok)
	assert.Equal(t, StepSongs, next)

	_, ok = StepSuccess.Next()
	assert.False(t, ok)
}

func TestDefaultSnapshot_SatisfiesInvariants(t *testing.T) {
	snap := DefaultSnapshot()
	require.NoError(t, snap.Check())
	assert.Equal(t, StepProfile, snap.Progression.CurrentStep)
	assert.Zero(t, snap.Progression.CompletedSteps.Len())
	assert.NotNil(t, snap.Progression.Songs)
}

func TestCheck_DetectsViolations(t *testing.T) {
	s := DefaultSnapshot()
	s.Session.IsAuthenticated = true
	assert.ErrorIs(t, s.Check(), ErrInvariantViolation)

	p := DefaultProgression()
	p.IsComplete = true
	assert.ErrorIs(t, p.Check(), ErrInvariantViolation)

	p = DefaultProgression()
	p.CurrentStep = 9
	assert.ErrorIs(t, p.Check(), ErrInvariantViolation)
}

func TestSnapshot_CloneIsDeep(t *testing.T) {
	photo := "data:image/png;base64,AAAA"
	msg := "boom"
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	orig := Snapshot{
		Session: SessionState{
			IsAuthenticated: true,
			Identity:        &Identity{Username: "user123"},
			LastError:       &msg,
			LastLoginAt:     &now,
		},
		Progression: ProgressionState{
			CurrentStep: StepSongs,
			Profile:     Profile{Name: "Ada", Photo: &photo},
			Songs:       []string{"A"},
		},
	}

	cp := orig.Clone()
	require.Empty(t, cmp.Diff(orig, cp))

	cp.Session.Identity.Username = "other"
	*cp.Progression.Profile.Photo = "changed"
	cp.Progression.Songs[0] = "B"

	assert.Equal(t, "user123", orig.Session.Identity.Username)
	assert.Equal(t, photo, *orig.Progression.Profile.Photo)
	assert.Equal(t, "A", orig.Progression.Songs[0])
}

func TestSnapshot_JSONShape(t *testing.T) {
	snap := DefaultSnapshot()
	snap.Progression.CompletedSteps = StepSetOf(StepProfile)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	var generic map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Contains(t, generic, "session")
	assert.Contains(t, generic, "progression")
	assert.Equal(t, false, generic["session"]["isAuthenticated"])
	assert.Nil(t, generic["session"]["user"])
	assert.EqualValues(t, 1, generic["progression"]["currentStep"])
	assert.Equal(t, []any{float64(1)}, generic["progression"]["completedSteps"])

	var back Snapshot
	require.NoError(t, json.Unmarshal(raw, &back))
	if diff := cmp.Diff(snap, back); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}
