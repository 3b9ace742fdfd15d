// SPDX-License-Identifier: MIT

// Package metrics holds the Prometheus collectors of the onboarding service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// State machine metrics
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onboard_transitions_total",
		Help: "State transitions applied by operation",
	}, []string{"op"}) // op=login|logout|clear_error|go_to_step|complete_step|set_profile|set_songs|set_payment|reset

	loginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onboard_login_attempts_total",
		Help: "Login attempts by outcome",
	}, []string{"outcome"}) // outcome=success|failure|rate_limited

	stepValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onboard_step_validation_failures_total",
		Help: "Step submissions rejected by validation",
	}, []string{"step"})

	onboardingCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "onboard_completed_total",
		Help: "Number of times the final step latched completion",
	})

	currentStep = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "onboard_current_step",
		Help: "Current wizard step pointer (1-4)",
	})

	completedSteps = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "onboard_completed_steps",
		Help: "Number of completed wizard steps",
	})

	// Routing metrics
	guardRedirectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onboard_guard_redirects_total",
		Help: "Navigation requests redirected by guard",
	}, []string{"guard"})

	// Persistence metrics
	persistenceOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onboard_persistence_ops_total",
		Help: "Snapshot persistence operations by outcome",
	}, []string{"op", "outcome"}) // op=load|save outcome=ok|absent|corrupt|error
)

// RecordTransition counts one applied state transition.
func RecordTransition(op string) {
	transitionsTotal.WithLabelValues(op).Inc()
}

// RecordLogin counts a login attempt.
func RecordLogin(outcome string) {
	loginAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordValidationFailure counts a rejected step submission.
func RecordValidationFailure(step string) {
	stepValidationFailures.WithLabelValues(step).Inc()
}

// RecordOnboardingCompleted counts the completion latch being set.
func RecordOnboardingCompleted() {
	onboardingCompleted.Inc()
}

// SetProgress publishes the step pointer and completion count.
func SetProgress(step, completed int) {
	currentStep.Set(float64(step))
	completedSteps.Set(float64(completed))
}

// RecordGuardRedirect counts a navigation redirect.
func RecordGuardRedirect(guard string) {
	guardRedirectsTotal.WithLabelValues(guard).Inc()
}

// RecordPersistence counts a snapshot load or save.
func RecordPersistence(op, outcome string) {
	persistenceOpsTotal.WithLabelValues(op, outcome).Inc()
}
