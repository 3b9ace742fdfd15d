// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/onboard/internal/onboarding/model"
)

const (
	CardDigits   = 16
	MaxCVVDigits = 4
	MinCVVDigits = 3
)

const (
	MsgCardRequired   = "Card number is required."
	MsgCardLength     = "Enter a 16-digit card number."
	MsgExpiryRequired = "Expiry date is required."
	MsgExpiryFormat   = "Use MM/YY format."
	MsgExpiryExpired  = "This card is expired."
	MsgCVVRequired    = "Security code is required."
	MsgCVVLength      = "Security code must be 3 or 4 digits."
)

var (
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cardPattern   = regexp.MustCompile(`^\d{16}$`)
	cvvPattern    = regexp.MustCompile(`^\d{3,4}$`)
)

func digitsOnly(s string, limit int) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() >= limit {
			break
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatCardNumber keeps up to 16 digits and groups them by four.
func FormatCardNumber(input string) string {
	digits := digitsOnly(input, CardDigits)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatExpiryDate keeps up to four digits and inserts the slash after the month.
func FormatExpiryDate(input string) string {
	digits := digitsOnly(input, 4)
	if len(digits) <= 2 {
		return digits
	}
	return digits[:2] + "/" + digits[2:]
}

// SanitizeCVV keeps up to four digits.
func SanitizeCVV(input string) string {
	return digitsOnly(input, MaxCVVDigits)
}

// FormatPayment applies the display formatters to raw input.
func FormatPayment(p model.PaymentDetails) model.PaymentDetails {
	return model.PaymentDetails{
		CardNumber: FormatCardNumber(p.CardNumber),
		ExpiryDate: FormatExpiryDate(p.ExpiryDate),
		CVV:        SanitizeCVV(p.CVV),
	}
}

// Payment validates the step-3 payload. All three fields are checked
// independently; now supplies the current month for the expiry check.
func Payment(p model.PaymentDetails, now time.Time) FieldErrors {
	errs := FieldErrors{}

	card := strings.Join(strings.Fields(p.CardNumber), "")
	switch {
	case card == "":
		errs.set(FieldCardNumber, MsgCardRequired)
	case !cardPattern.MatchString(card):
		errs.set(FieldCardNumber, MsgCardLength)
	}

	switch {
	case p.ExpiryDate == "":
		errs.set(FieldExpiryDate, MsgExpiryRequired)
	case !expiryPattern.MatchString(p.ExpiryDate):
		errs.set(FieldExpiryDate, MsgExpiryFormat)
	case expired(p.ExpiryDate, now):
		errs.set(FieldExpiryDate, MsgExpiryExpired)
	}

	switch {
	case p.CVV == "":
		errs.set(FieldCVV, MsgCVVRequired)
	case !cvvPattern.MatchString(p.CVV):
		errs.set(FieldCVV, MsgCVVLength)
	}

	return errs
}

// expired compares MM/YY against the two-digit current year and month.
func expired(expiry string, now time.Time) bool {
	month, _ := strconv.Atoi(expiry[:2])
	year, _ := strconv.Atoi(expiry[3:])
	currentYear := now.Year() % 100
	currentMonth := int(now.Month())
	return year < currentYear || (year == currentYear && month < currentMonth)
}
