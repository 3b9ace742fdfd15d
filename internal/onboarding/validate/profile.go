// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ManuGH/onboard/internal/onboarding/model"
)

const (
	MinAge = 13
	MaxAge = 120
)

const (
	MsgNameRequired  = "Your name is required."
	MsgAgeRequired   = "Please tell us your age."
	MsgAgeNotNumber  = "Age must be a number."
	MsgAgeOutOfRange = "Age should be between 13 and 120."
	MsgEmailRequired = "We need your email address."
	MsgEmailInvalid  = "Enter a valid email address."
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Profile validates the step-1 payload.
// A present photo must be an image data URL within the size limit.
func Profile(p model.Profile) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(p.Name) == "" {
		errs.set(FieldName, MsgNameRequired)
	}

	age := strings.TrimSpace(p.Age)
	if age == "" {
		errs.set(FieldAge, MsgAgeRequired)
	} else {
		n, err := strconv.ParseFloat(age, 64)
		switch {
		case err != nil || math.IsNaN(n) || math.IsInf(n, 0):
			errs.set(FieldAge, MsgAgeNotNumber)
		case n < MinAge || n > MaxAge:
			errs.set(FieldAge, MsgAgeOutOfRange)
		}
	}

	if strings.TrimSpace(p.Email) == "" {
		errs.set(FieldEmail, MsgEmailRequired)
	} else if !emailPattern.MatchString(p.Email) {
		errs.set(FieldEmail, MsgEmailInvalid)
	}

	if p.Photo != nil {
		if err := CheckPhotoDataURL(*p.Photo); err != nil {
			errs.set(FieldPhoto, PhotoMessage(err))
		}
	}

	return errs
}
