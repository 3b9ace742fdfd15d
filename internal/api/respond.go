// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	xglog "github.com/ManuGH/onboard/internal/log"
	"github.com/ManuGH/onboard/internal/metrics"
	"github.com/ManuGH/onboard/internal/onboarding/guard"
	"github.com/ManuGH/onboard/internal/telemetry"
)

// redirectBody is the JSON body that accompanies every 303.
type redirectBody struct {
	Redirect string `json:"redirect"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// redirect answers with 303 See Other.
func redirect(w http.ResponseWriter, location string) {
	w.Header().Set("Location", location)
	writeJSON(w, http.StatusSeeOther, redirectBody{Redirect: location})
}

// enforce acts on a guard decision. It returns true when the request may
// proceed; otherwise the redirect has been written.
func (s *Server) enforce(w http.ResponseWriter, r *http.Request, d guard.Decision) bool {
	if d.Allow {
		return true
	}
	location := d.Location()
	metrics.RecordGuardRedirect(d.Guard)
	trace.SpanFromContext(r.Context()).SetAttributes(telemetry.GuardAttributes(d.Guard, d.Redirect)...)
	logger := xglog.WithContext(r.Context(), s.logger)
	logger.Debug().
		Str(xglog.FieldEvent, "guard.redirect").
		Str("guard", d.Guard).
		Str(xglog.FieldPath, r.URL.Path).
		Str(xglog.FieldRedirect, location).
		Msg("navigation redirected")
	redirect(w, location)
	return false
}

// decodeJSON reads a bounded JSON body into v. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		default:
			return fmt.Errorf("invalid JSON body: %w", err)
		}
	}
	return nil
}
