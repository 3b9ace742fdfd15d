// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the service.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"
	HTTPUserAgentKey  = "http.user_agent"

	// Onboarding attributes
	OnboardingOpKey         = "onboarding.op"
	OnboardingStepKey       = "onboarding.step"
	OnboardingCompletedKey  = "onboarding.completed_steps"
	OnboardingIsCompleteKey = "onboarding.is_complete"

	// Guard attributes
	GuardNameKey     = "guard.name"
	GuardRedirectKey = "guard.redirect"

	// Persistence attributes
	PersistenceBackendKey = "persistence.backend"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// TransitionAttributes describes a state transition and the progression it produced.
// step is omitted when zero.
func TransitionAttributes(op string, step, completed int, isComplete bool) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	attrs = append(attrs, attribute.String(OnboardingOpKey, op))
	if step > 0 {
		attrs = append(attrs, attribute.Int(OnboardingStepKey, step))
	}
	attrs = append(attrs,
		attribute.Int(OnboardingCompletedKey, completed),
		attribute.Bool(OnboardingIsCompleteKey, isComplete),
	)
	return attrs
}

// GuardAttributes describes a navigation decision. redirect is empty when allowed.
func GuardAttributes(guard, redirect string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(GuardNameKey, guard)}
	if redirect != "" {
		attrs = append(attrs, attribute.String(GuardRedirectKey, redirect))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
