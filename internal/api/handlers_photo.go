// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/ManuGH/onboard/internal/api/problem"
	xglog "github.com/ManuGH/onboard/internal/log"
	"github.com/ManuGH/onboard/internal/onboarding/guard"
	"github.com/ManuGH/onboard/internal/onboarding/model"
	"github.com/ManuGH/onboard/internal/onboarding/validate"
)

// photoFormField is the multipart field carrying the image.
const photoFormField = "photo"

// multipartOverhead is the allowance for boundaries and part headers.
const multipartOverhead = 64 << 10

type photoResponse struct {
	Photo string `json:"photo"`
}

// handleUploadPhoto reads one image and returns its encoded form. The
// profile slot is not touched; the client submits the value with step 1.
// Rejected files never replace an existing photo.
func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	view := s.store.View()
	d := guard.Chain(
		func() guard.Decision { return guard.RequireAuth(view.Session, model.StepProfile.Path()) },
		func() guard.Decision { return guard.RequireOnboardingIncomplete(view.Progression) },
	)
	if !s.enforce(w, r, d) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, validate.MaxPhotoBytes+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		problem.BadRequest(w, r, "expected a multipart/form-data body")
		return
	}

	logger := xglog.WithContext(r.Context(), s.logger)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				photoRejected(w, r, validate.ErrPhotoTooLarge)
				return
			}
			photoRejected(w, r, validate.ErrPhotoUnreadable)
			return
		}
		if part.FormName() != photoFormField {
			_ = part.Close()
			continue
		}

		value, err := s.photos.Read(r.Context(), part.Header.Get("Content-Type"), -1, part)
		if ctxErr := r.Context().Err(); ctxErr != nil {
			// The rest of the body is left unread.
			logger.Debug().Err(ctxErr).Str(xglog.FieldEvent, "photo.abandoned").Msg("photo read abandoned")
			return
		}
		_ = part.Close()
		if err != nil {
			logger.Info().Err(err).Str(xglog.FieldEvent, "photo.rejected").Msg("photo rejected")
			photoRejected(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, photoResponse{Photo: value})
		return
	}

	photoRejected(w, r, validate.ErrPhotoType)
}

func photoRejected(w http.ResponseWriter, r *http.Request, err error) {
	problem.Validation(w, r, map[string]string{validate.FieldPhoto: validate.PhotoMessage(err)})
}
