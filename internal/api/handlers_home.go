// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"

	"github.com/ManuGH/onboard/internal/onboarding/guard"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	view := s.store.View()
	if !s.enforce(w, r, guard.Resolve(guard.PathHome, view)) {
		return
	}
	username := view.Session.Username()
	writeJSON(w, http.StatusOK, homeView{
		View:     viewHome,
		Username: username,
		Message:  homeMessage(username),
	})
}

// handleProgress feeds the step indicator.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	view := s.store.View()
	if !s.enforce(w, r, guard.RequireAuth(view.Session, "")) {
		return
	}
	writeJSON(w, http.StatusOK, newProgressView(view.Progression))
}
