// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"

	xglog "github.com/ManuGH/onboard/internal/log"
	"github.com/ManuGH/onboard/internal/metrics"
	"github.com/ManuGH/onboard/internal/onboarding/model"
)

// Login checks the credentials and replaces the session. It is allowed in any
// session state; a successful login while authenticated overwrites identity
// and timestamp. A mismatch drops the identity and records the failure message.
func (s *Store) Login(ctx context.Context, username, password string) model.SessionState {
	ok := s.creds.Verify(username, password)

	snap, _ := s.apply(ctx, "login", 0, func(st *model.Snapshot) error {
		if ok {
			now := s.now().UTC()
			st.Session = model.SessionState{
				IsAuthenticated: true,
				Identity:        &model.Identity{Username: username},
				LastLoginAt:     &now,
			}
			return nil
		}
		msg := s.creds.FailureMessage()
		st.Session.IsAuthenticated = false
		st.Session.Identity = nil
		st.Session.LastError = &msg
		return nil
	})

	logger := xglog.WithContext(ctx, s.logger)
	if ok {
		metrics.RecordLogin("success")
		logger.Info().Str(xglog.FieldEvent, "auth.login_succeeded").Str(xglog.FieldUsername, username).Msg("login succeeded")
	} else {
		metrics.RecordLogin("failure")
		logger.Warn().Str(xglog.FieldEvent, "auth.login_failed").Msg("login failed")
	}
	return snap.Session
}

// Logout returns to the anonymous session. Progression is kept.
func (s *Store) Logout(ctx context.Context) model.SessionState {
	snap, _ := s.apply(ctx, "logout", 0, func(st *model.Snapshot) error {
		st.Session = model.DefaultSession()
		return nil
	})
	logger := xglog.WithContext(ctx, s.logger)
	logger.Info().Str(xglog.FieldEvent, "auth.logout").Msg("logged out")
	return snap.Session
}

// ClearError drops the login error without touching authentication.
func (s *Store) ClearError(ctx context.Context) model.SessionState {
	snap, _ := s.apply(ctx, "clear_error", 0, func(st *model.Snapshot) error {
		st.Session.LastError = nil
		return nil
	})
	return snap.Session
}
