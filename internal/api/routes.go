// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/onboard/internal/api/middleware"
	"github.com/ManuGH/onboard/internal/api/problem"
	"github.com/ManuGH/onboard/internal/metrics"
	"github.com/ManuGH/onboard/internal/onboarding/guard"
)

// Non-view routes.
const (
	PathLoginClearError = guard.PathLogin + "/clear-error"
	PathLogout          = "/logout"
	PathReset           = guard.PathOnboarding + "/reset"
	PathPhoto           = guard.PathOnboarding + "/step-1/photo"
	PathProgress        = "/api/v1/progress"
	PathHealth          = "/healthz"
	PathReady           = "/readyz"
	PathMetrics         = "/metrics"
)

func (s *Server) routes() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        s.cfg.TracingService,
		EnableLogging:         true,
	})
	r.Use(chimw.StripSlashes)

	// Probes and scrape stay outside the API rate limit.
	r.Get(PathHealth, s.health.ServeHealth)
	r.Get(PathReady, s.health.ServeReady)
	r.Handle(PathMetrics, promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.PerMinute(s.cfg.APIPerMinute, nil))

		r.Get(guard.PathRoot, s.handleNavigate)
		r.Get(guard.PathLogin, s.handleLoginView)
		r.With(
			middleware.PerMinute(s.cfg.LoginPerMinute, recordLoginLimited),
			s.logins.Middleware("login", s.rejectLogin),
		).Post(guard.PathLogin, s.handleLogin)
		r.Post(PathLoginClearError, s.handleClearError)
		r.Post(PathLogout, s.handleLogout)

		r.Get(guard.PathOnboarding, s.handleNavigate)
		r.Get(guard.PathOnboarding+"/step-{step}", s.handleStepView)
		r.Post(guard.PathOnboarding+"/step-1", s.handleSubmitProfile)
		r.Post(PathPhoto, s.handleUploadPhoto)
		r.Post(guard.PathOnboarding+"/step-2", s.handleSubmitSongs)
		r.Post(guard.PathOnboarding+"/step-3", s.handleSubmitPayment)
		r.Post(guard.PathOnboarding+"/step-4", s.handleFinish)
		r.Post(PathReset, s.handleReset)

		r.Get(guard.PathHome, s.handleHome)
		r.Get(PathProgress, s.handleProgress)
	})

	r.NotFound(s.handleNavigate)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, http.StatusMethodNotAllowed, problem.TypeMethodNotAllow, "Method Not Allowed",
			"METHOD_NOT_ALLOWED", r.Method+" is not supported on "+r.URL.Path, nil)
	})

	return r
}

func recordLoginLimited(*http.Request) {
	metrics.RecordLogin("rate_limited")
}

func (s *Server) rejectLogin(w http.ResponseWriter, r *http.Request) {
	recordLoginLimited(r)
	problem.Write(w, r, http.StatusTooManyRequests, problem.TypeRateLimited, "Too Many Requests",
		"LOGIN_RATE_LIMITED", "Too many login attempts. Please wait a minute and try again.", nil)
}
