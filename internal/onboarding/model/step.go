// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrInvalidStep        = errors.New("invalid step")
	ErrInvariantViolation = errors.New("invariant violation")
)

// StepID identifies one of the four ordered onboarding steps.
type StepID int

const (
	StepProfile StepID = iota + 1
	StepSongs
	StepPayment
	StepSuccess
)

const (
	FirstStep  = StepProfile
	FinalStep  = StepSuccess
	TotalSteps = int(FinalStep)
)

var stepTitles = [...]string{
	StepProfile: "Personal Profile",
	StepSongs:   "Favorite Songs",
	StepPayment: "Payment Information",
	StepSuccess: "Success",
}

// AllSteps returns the steps in order.
func AllSteps() []StepID {
	return []StepID{StepProfile, StepSongs, StepPayment, StepSuccess}
}

// Valid reports whether s is one of the defined steps.
func (s StepID) Valid() bool {
	return s >= FirstStep && s <= FinalStep
}

// Title is the human-readable label used by the step indicator.
func (s StepID) Title() string {
	if !s.Valid() {
		return ""
	}
	return stepTitles[s]
}

// Next returns the following step and false for the final step.
func (s StepID) Next() (StepID, bool) {
	if !s.Valid() || s == FinalStep {
		return s, false
	}
	return s + 1, true
}

// Path is the view route of the step.
func (s StepID) Path() string {
	return "/onboarding/step-" + strconv.Itoa(int(s))
}

func (s StepID) String() string {
	return "step-" + strconv.Itoa(int(s))
}

// ParseStepID parses "1".."4".
func ParseStepID(raw string) (StepID, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStep, raw)
	}
	s := StepID(n)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidStep, n)
	}
	return s, nil
}

// UnmarshalJSON rejects numbers outside the defined steps.
func (s *StepID) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if !StepID(n).Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStep, n)
	}
	*s = StepID(n)
	return nil
}

// StepSet is the set of completed steps. Bit i is step i.
// Membership is all that matters; insertion order is not kept.
type StepSet uint8

// Has reports membership.
func (set StepSet) Has(s StepID) bool {
	if !s.Valid() {
		return false
	}
	return set&(1<<uint(s)) != 0
}

// With returns the set including s. Adding a present step is a no-op.
func (set StepSet) With(s StepID) StepSet {
	if !s.Valid() {
		return set
	}
	return set | 1<<uint(s)
}

// Len returns the number of members.
func (set StepSet) Len() int {
	n := 0
	for _, s := range AllSteps() {
		if set.Has(s) {
			n++
		}
	}
	return n
}

// Steps returns the members in ascending order.
func (set StepSet) Steps() []StepID {
	out := make([]StepID, 0, TotalSteps)
	for _, s := range AllSteps() {
		if set.Has(s) {
			out = append(out, s)
		}
	}
	return out
}

// Contains reports whether every member of other is in set.
func (set StepSet) Contains(other StepSet) bool {
	return set&other == other
}

// StepSetOf builds a set from the given steps, ignoring invalid ones.
func StepSetOf(steps ...StepID) StepSet {
	var set StepSet
	for _, s := range steps {
		set = set.With(s)
	}
	return set
}

// MarshalJSON encodes the set as an ascending array of step numbers.
func (set StepSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(set.Steps())
}

// UnmarshalJSON accepts an array of step numbers. Duplicates collapse.
func (set *StepSet) UnmarshalJSON(b []byte) error {
	var steps []StepID
	if err := json.Unmarshal(b, &steps); err != nil {
		return err
	}
	*set = StepSetOf(steps...)
	return nil
}
