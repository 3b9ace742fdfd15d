// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"

	"github.com/ManuGH/onboard/internal/api/problem"
	"github.com/ManuGH/onboard/internal/onboarding/guard"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLoginView renders the login form, or sends an authenticated user to
// where they left off.
func (s *Server) handleLoginView(w http.ResponseWriter, r *http.Request) {
	view := s.store.View()
	if !s.enforce(w, r, guard.Resolve(guard.PathLogin, view)) {
		return
	}
	from, _ := guard.SafeReturnPath(r.URL.Query().Get("from"))
	writeJSON(w, http.StatusOK, loginView{
		View:  viewLogin,
		Error: view.Session.LastError,
		From:  from,
	})
}

// handleLogin checks the credentials. A failure re-renders the login view
// with the error; success redirects to the post-login target. A from
// location is honored only when the guards would let the user in.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		problem.BadRequest(w, r, err.Error())
		return
	}

	from, hasFrom := guard.SafeReturnPath(r.URL.Query().Get("from"))
	session := s.store.Login(r.Context(), req.Username, req.Password)
	if !session.IsAuthenticated {
		writeJSON(w, http.StatusUnauthorized, loginView{
			View:  viewLogin,
			Error: session.LastError,
			From:  from,
		})
		return
	}

	view := s.store.View()
	target := guard.PostLoginTarget(view.Progression)
	if hasFrom && guard.Resolve(from, view).Allow {
		target = from
	}
	redirect(w, target)
}

func (s *Server) handleClearError(w http.ResponseWriter, r *http.Request) {
	s.store.ClearError(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.store.Logout(r.Context())
	redirect(w, guard.PathLogin)
}
