// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package problem writes RFC 7807 problem details responses.
package problem

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/onboard/internal/log"
)

const (
	// HeaderRequestID carries the correlation id on every response.
	HeaderRequestID = "X-Request-ID"
	// JSONKeyRequestID is the problem body field holding the correlation id.
	JSONKeyRequestID = "requestId"
	// ContentType is the media type of problem responses.
	ContentType = "application/problem+json"
)

// Problem types used by the onboarding API.
const (
	TypeValidation     = "onboarding/validation"
	TypeInvalidCreds   = "auth/invalid_credentials"
	TypeConflict       = "onboarding/conflict"
	TypeBadRequest     = "request/invalid"
	TypeRateLimited    = "request/rate_limited"
	TypeInternal       = "system/internal"
	TypePhotoPending   = "onboarding/photo_pending"
	TypeMethodNotAllow = "request/method_not_allowed"
)

// Write writes an RFC 7807 problem details response.
//
// Semantics:
//   - type: canonical machine identifier (e.g. "onboarding/validation").
//   - title: human-readable short label.
//   - code: stable machine-readable short code (e.g. "VALIDATION_FAILED").
//   - detail: explanation of this occurrence.
//
// Extensions are added at the top level; reserved keys are ignored.
func Write(w http.ResponseWriter, r *http.Request, status int, problemType, title, code, detail string, extra map[string]any) {
	instance := ""
	reqID := ""
	if r != nil {
		instance = r.URL.EscapedPath()
		reqID = log.RequestIDFromContext(r.Context())
	}
	if reqID == "" {
		reqID = w.Header().Get(HeaderRequestID)
	}

	res := map[string]any{
		"type":   problemType,
		"title":  title,
		"status": status,
		"code":   code,
	}
	if reqID != "" {
		res[JSONKeyRequestID] = reqID
	}
	if detail != "" {
		res["detail"] = detail
	}
	if instance != "" {
		res["instance"] = instance
	}

	for k, v := range extra {
		switch k {
		case "type", "title", "status", "detail", "instance", "code", JSONKeyRequestID:
			log.L().Warn().Str("key", k).Str("problem_type", problemType).Msg("ignoring reserved key in problem extras")
			continue
		}
		res[k] = v
	}

	if reqID != "" {
		w.Header().Set(HeaderRequestID, reqID)
	}
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.L().Error().
			Err(err).
			Str("type", problemType).
			Int("status", status).
			Msg("failed to encode problem response")
	}
}

// Validation writes a 422 carrying field-keyed messages in the fields extension.
func Validation(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	Write(w, r, http.StatusUnprocessableEntity, TypeValidation, "Validation Failed", "VALIDATION_FAILED",
		"one or more fields are invalid", map[string]any{"fields": fields})
}

// BadRequest writes a 400 for a body that could not be decoded.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	Write(w, r, http.StatusBadRequest, TypeBadRequest, "Bad Request", "INVALID_REQUEST", detail, nil)
}

// Conflict writes a 409 for a transition the current state does not permit.
func Conflict(w http.ResponseWriter, r *http.Request, code, detail string) {
	Write(w, r, http.StatusConflict, TypeConflict, "Conflict", code, detail, nil)
}

// Internal writes a 500 without leaking the cause.
func Internal(w http.ResponseWriter, r *http.Request) {
	Write(w, r, http.StatusInternalServerError, TypeInternal, "Internal Server Error", "INTERNAL",
		"An unexpected error occurred. Please try again later.", nil)
}
