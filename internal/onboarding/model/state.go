// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import (
	"fmt"
	"slices"
	"time"
)

// Identity is the authenticated user.
type Identity struct {
	Username string `json:"username"`
}

// SessionState is the authentication tree.
// Identity is present iff IsAuthenticated.
type SessionState struct {
	IsAuthenticated bool       `json:"isAuthenticated"`
	Identity        *Identity  `json:"user"`
	LastError       *string    `json:"error"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
}

// Profile is the step-1 payload. Age is kept as entered (numeric text).
// Photo is nil until a photo was accepted; an empty string is never stored.
type Profile struct {
	Name  string  `json:"name"`
	Age   string  `json:"age"`
	Email string  `json:"email"`
	Photo *string `json:"profilePicture,omitempty"`
}

// PaymentDetails is the step-3 payload in its display formatting
// ("4111 1111 1111 1111", "06/24"). Redisplay depends on that formatting.
// Empty strings mean "not yet provided".
type PaymentDetails struct {
	CardNumber string `json:"cardNumber"`
	ExpiryDate string `json:"expiryDate"`
	CVV        string `json:"cvv"`
}

// ProgressionState is the onboarding tree.
type ProgressionState struct {
	CurrentStep    StepID         `json:"currentStep"`
	CompletedSteps StepSet        `json:"completedSteps"`
	IsComplete     bool           `json:"isComplete"`
	Profile        Profile        `json:"profile"`
	Songs          []string       `json:"favoriteSongs"`
	Payment        PaymentDetails `json:"payment"`
}

// Snapshot is the persisted projection of both trees.
type Snapshot struct {
	Session     SessionState     `json:"session"`
	Progression ProgressionState `json:"progression"`
}

// DefaultSession returns the anonymous session.
func DefaultSession() SessionState {
	return SessionState{}
}

// DefaultProgression returns the initial progression: step 1, nothing completed.
func DefaultProgression() ProgressionState {
	return ProgressionState{
		CurrentStep: FirstStep,
		Songs:       []string{},
	}
}

// DefaultSnapshot returns the state a fresh process starts with.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Session:     DefaultSession(),
		Progression: DefaultProgression(),
	}
}

// Clone returns a deep copy.
func (s SessionState) Clone() SessionState {
	out := s
	if s.Identity != nil {
		id := *s.Identity
		out.Identity = &id
	}
	if s.LastError != nil {
		msg := *s.LastError
		out.LastError = &msg
	}
	if s.LastLoginAt != nil {
		ts := *s.LastLoginAt
		out.LastLoginAt = &ts
	}
	return out
}

// Username returns the identity's username or "".
func (s SessionState) Username() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Username
}

// Clone returns a deep copy.
func (p Profile) Clone() Profile {
	out := p
	if p.Photo != nil {
		photo := *p.Photo
		out.Photo = &photo
	}
	return out
}

// Clone returns a deep copy.
func (p ProgressionState) Clone() ProgressionState {
	out := p
	out.Profile = p.Profile.Clone()
	out.Songs = slices.Clone(p.Songs)
	if out.Songs == nil {
		out.Songs = []string{}
	}
	return out
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Session:     s.Session.Clone(),
		Progression: s.Progression.Clone(),
	}
}

// Check verifies the structural invariants of both trees.
func (s Snapshot) Check() error {
	if err := s.Session.Check(); err != nil {
		return err
	}
	return s.Progression.Check()
}

// Check verifies identity is present iff authenticated.
func (s SessionState) Check() error {
	if s.IsAuthenticated != (s.Identity != nil) {
		return fmt.Errorf("%w: authenticated=%t identity=%t", ErrInvariantViolation, s.IsAuthenticated, s.Identity != nil)
	}
	return nil
}

// Check verifies the step pointer is defined and the completion latch matches
// the completion set.
func (p ProgressionState) Check() error {
	if !p.CurrentStep.Valid() {
		return fmt.Errorf("%w: current step %d", ErrInvariantViolation, p.CurrentStep)
	}
	if p.IsComplete != p.CompletedSteps.Has(FinalStep) {
		return fmt.Errorf("%w: isComplete=%t completed=%v", ErrInvariantViolation, p.IsComplete, p.CompletedSteps.Steps())
	}
	return nil
}
