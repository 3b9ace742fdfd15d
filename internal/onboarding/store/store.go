// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package store owns the session and progression trees.
//
// Every mutation goes through one entry point that holds the store lock,
// applies the change, and writes the full snapshot through the persister
// before the lock is released. Writes therefore happen in mutation order.
// Reads return deep copies.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/onboard/internal/auth"
	xglog "github.com/ManuGH/onboard/internal/log"
	"github.com/ManuGH/onboard/internal/metrics"
	"github.com/ManuGH/onboard/internal/onboarding/guard"
	"github.com/ManuGH/onboard/internal/onboarding/model"
	"github.com/ManuGH/onboard/internal/telemetry"
)

var (
	// ErrUnauthenticated rejects wizard transitions without a session.
	ErrUnauthenticated = errors.New("store: not authenticated")
	// ErrOnboardingComplete rejects wizard transitions after completion.
	ErrOnboardingComplete = errors.New("store: onboarding already complete")
	// ErrStepUnreachable rejects advancing a step the user may not open yet.
	ErrStepUnreachable = errors.New("store: step not reachable")
	// ErrStepsIncomplete rejects finishing before every earlier step is done.
	ErrStepsIncomplete = errors.New("store: earlier steps incomplete")
)

// Storage loads the initial snapshot and receives one save per mutation.
type Storage interface {
	Load(ctx context.Context) (model.Snapshot, bool)
	Save(ctx context.Context, snap model.Snapshot)
}

// Verifier checks a login attempt.
type Verifier interface {
	Verify(username, password string) bool
	FailureMessage() string
}

// Store is the state container.
type Store struct {
	mu    sync.Mutex
	state model.Snapshot

	storage Storage
	creds   Verifier
	now     func() time.Time
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces time.Now, used for login timestamps and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCredentials replaces the default credential pair.
func WithCredentials(v Verifier) Option {
	return func(s *Store) {
		if v != nil {
			s.creds = v
		}
	}
}

// Open seeds a store from storage, falling back to defaults when nothing
// usable is stored.
func Open(ctx context.Context, storage Storage, opts ...Option) *Store {
	s := &Store{
		state:   model.DefaultSnapshot(),
		storage: storage,
		creds:   auth.Default(),
		now:     time.Now,
		tracer:  telemetry.Tracer("onboard/store"),
		logger:  xglog.WithComponent("store"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if snap, ok := storage.Load(ctx); ok {
		s.state = snap
		s.logger.Info().
			Str(xglog.FieldEvent, "store.restored").
			Bool("authenticated", snap.Session.IsAuthenticated).
			Int(xglog.FieldStep, int(snap.Progression.CurrentStep)).
			Msg("restored persisted state")
	} else {
		s.logger.Info().Str(xglog.FieldEvent, "store.defaults").Msg("starting from default state")
	}
	publishProgress(s.state.Progression)
	return s
}

// Snapshot returns a copy of both trees.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Session returns a copy of the session tree.
func (s *Store) Session() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Session.Clone()
}

// Progression returns a copy of the progression tree.
func (s *Store) Progression() model.ProgressionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Progression.Clone()
}

// View returns the state the guards decide on.
func (s *Store) View() guard.View {
	snap := s.Snapshot()
	return guard.View{Session: snap.Session, Progression: snap.Progression}
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// apply is the single mutation entry point. fn runs under the store lock on
// a working copy; if it returns an error nothing changes and nothing is
// written. Otherwise the copy becomes the state and is persisted.
func (s *Store) apply(ctx context.Context, op string, step model.StepID, fn func(*model.Snapshot) error) (model.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "store."+op)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if err := fn(&next); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return s.state.Clone(), err
	}
	if err := next.Check(); err != nil {
		// A transition that breaks an invariant is a bug; keep the old state.
		s.logger.Error().Err(err).Str(xglog.FieldOperation, op).Msg("transition rejected")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return s.state.Clone(), err
	}

	latched := !s.state.Progression.IsComplete && next.Progression.IsComplete
	s.state = next
	s.storage.Save(ctx, next.Clone())

	p := next.Progression
	span.SetAttributes(telemetry.TransitionAttributes(op, int(step), p.CompletedSteps.Len(), p.IsComplete)...)
	metrics.RecordTransition(op)
	publishProgress(p)
	if latched {
		metrics.RecordOnboardingCompleted()
		logger := xglog.WithContext(ctx, s.logger)
		logger.Info().
			Str(xglog.FieldEvent, "onboarding.completed").
			Str(xglog.FieldOperation, op).
			Msg("onboarding complete")
	}

	return next.Clone(), nil
}

func publishProgress(p model.ProgressionState) {
	metrics.SetProgress(int(p.CurrentStep), p.CompletedSteps.Len())
}
