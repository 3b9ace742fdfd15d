// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api provides the HTTP surface of the onboarding service.
//
// Every view route consults the guard layer before it renders: a redirect
// decision is answered with 303 See Other and the view payload is never
// produced. Views are JSON documents.
package api

import (
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ManuGH/onboard/internal/health"
	xglog "github.com/ManuGH/onboard/internal/log"
	"github.com/ManuGH/onboard/internal/onboarding/store"
	"github.com/ManuGH/onboard/internal/onboarding/validate"
	"github.com/ManuGH/onboard/internal/ratelimit"
)

// maxJSONBody bounds step and login submissions. Profile bodies carry the
// encoded photo, so the bound leaves room for a 2 MiB image in base64.
const maxJSONBody = 4 << 20

// Config holds the HTTP-level settings.
type Config struct {
	Version        string
	LoginPerMinute int
	APIPerMinute   int
	// TracingService names the HTTP tracer; empty disables request spans.
	TracingService string
}

// Server serves the onboarding views on top of a Store.
type Server struct {
	cfg    Config
	store  *store.Store
	health *health.Manager
	photos *validate.PhotoReader
	logins *ratelimit.Limiter
	logger zerolog.Logger

	once    sync.Once
	handler http.Handler
}

// New creates a server. A nil health manager gets an empty one.
func New(cfg Config, st *store.Store, hm *health.Manager) *Server {
	if hm == nil {
		hm = health.NewManager(cfg.Version)
	}
	loginCfg := ratelimit.DefaultConfig()
	if cfg.LoginPerMinute > 0 {
		loginCfg = ratelimit.PerMinute(cfg.LoginPerMinute)
	}
	return &Server{
		cfg:    cfg,
		store:  st,
		health: hm,
		photos: &validate.PhotoReader{},
		logins: ratelimit.New(loginCfg),
		logger: xglog.WithComponent("api"),
	}
}

// Handler returns the router. It is built once.
func (s *Server) Handler() http.Handler {
	s.once.Do(func() {
		s.handler = s.routes()
	})
	return s.handler
}

// PhotosPending reports photo reads still in flight.
func (s *Server) PhotosPending() int64 {
	return s.photos.Pending()
}
