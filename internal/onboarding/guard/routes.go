// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package guard

import (
	"net/url"
	"strings"

	"github.com/ManuGH/onboard/internal/onboarding/model"
)

// View routes.
const (
	PathRoot       = "/"
	PathLogin      = "/login"
	PathOnboarding = "/onboarding"
	PathHome       = "/home"

	stepPrefix = PathOnboarding + "/step-"
)

// Route classifies a logical path.
type Route int

const (
	RouteUnknown Route = iota
	RouteRoot
	RouteLogin
	RouteOnboardingIndex
	RouteStep
	RouteHome
)

// ParseRoute maps a path to its route and, for step routes, the step.
// A trailing slash is ignored.
func ParseRoute(path string) (Route, model.StepID) {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	switch path {
	case PathRoot:
		return RouteRoot, 0
	case PathLogin:
		return RouteLogin, 0
	case PathOnboarding:
		return RouteOnboardingIndex, 0
	case PathHome:
		return RouteHome, 0
	}
	if raw, ok := strings.CutPrefix(path, stepPrefix); ok {
		if s, err := model.ParseStepID(raw); err == nil {
			return RouteStep, s
		}
	}
	return RouteUnknown, 0
}

// Resolve runs the guard composition for a navigation request to path.
// Nesting order: Auth, then onboarding-incomplete, then step-specific.
func Resolve(path string, v View) Decision {
	route, step := ParseRoute(path)
	switch route {
	case RouteRoot:
		return RedirectTo(PathLogin, NameRoot)
	case RouteLogin:
		if v.Session.IsAuthenticated {
			return RedirectTo(PostLoginTarget(v.Progression), NameLogin)
		}
		return Allowed()
	case RouteOnboardingIndex:
		return Chain(
			func() Decision { return RequireAuth(v.Session, path) },
			func() Decision { return RequireOnboardingIncomplete(v.Progression) },
			func() Decision { return ResolveStepIndex(v.Progression) },
		)
	case RouteStep:
		return Chain(
			func() Decision { return RequireAuth(v.Session, path) },
			func() Decision { return RequireOnboardingIncomplete(v.Progression) },
			func() Decision { return StepClick(v.Progression, step) },
		)
	case RouteHome:
		return Chain(
			func() Decision { return RequireAuth(v.Session, path) },
			func() Decision { return RequireOnboardingCompleted(v.Progression) },
		)
	default:
		return RedirectTo(PathLogin, NameUnknown)
	}
}

// Location renders the Location header for a redirect decision.
// AuthGuard redirects carry the originating path as ?from=.
func (d Decision) Location() string {
	if d.Allow {
		return ""
	}
	if d.Redirect == PathLogin && d.From != "" {
		return PathLogin + "?from=" + url.QueryEscape(d.From)
	}
	return d.Redirect
}

// SafeReturnPath accepts a post-login return location only if it is a local
// view route other than the login view itself.
func SafeReturnPath(from string) (string, bool) {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") {
		return "", false
	}
	route, _ := ParseRoute(from)
	switch route {
	case RouteOnboardingIndex, RouteStep, RouteHome:
		return from, true
	default:
		return "", false
	}
}
