// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ManuGH/onboard/internal/onboarding/model"
)

var june2024 = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func validPayment() model.PaymentDetails {
	return model.PaymentDetails{CardNumber: "4111 1111 1111 1111", ExpiryDate: "06/24", CVV: "123"}
}

func TestPayment_CardNumber(t *testing.T) {
	tests := []struct {
		name string
		card string
		want string
	}{
		{"grouped 16 digits", "4111 1111 1111 1111", ""},
		{"plain 16 digits", "4111111111111111", ""},
		{"12 digits", "4111 1111 1111", MsgCardLength},
		{"empty", "", MsgCardRequired},
		{"letters", "4111 1111 1111 111x", MsgCardLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayment()
			p.CardNumber = tt.card
			errs := Payment(p, june2024)
			assert.Equal(t, tt.want, errs[FieldCardNumber])
		})
	}
}

func TestPayment_Expiry(t *testing.T) {
	tests := []struct {
		expiry string
		want   string
	}{
		{"05/24", MsgExpiryExpired},
		{"06/24", ""},
		{"07/24", ""},
		{"01/25", ""},
		{"12/23", MsgExpiryExpired},
		{"13/25", MsgExpiryFormat},
		{"00/25", MsgExpiryFormat},
		{"6/24", MsgExpiryFormat},
		{"", MsgExpiryRequired},
	}
	for _, tt := range tests {
		t.Run(tt.expiry, func(t *testing.T) {
			p := validPayment()
			p.ExpiryDate = tt.expiry
			errs := Payment(p, june2024)
			assert.Equal(t, tt.want, errs[FieldExpiryDate])
		})
	}
}

func TestPayment_CVV(t *testing.T) {
	for cvv, want := range map[string]string{
		"123":   "",
		"1234":  "",
		"12":    MsgCVVLength,
		"12345": MsgCVVLength,
		"12a":   MsgCVVLength,
		"":      MsgCVVRequired,
	} {
		p := validPayment()
		p.CVV = cvv
		assert.Equal(t, want, Payment(p, june2024)[FieldCVV], "cvv %q", cvv)
	}
}

func TestPayment_FieldsFailIndependently(t *testing.T) {
	errs := Payment(model.PaymentDetails{CardNumber: "4111", ExpiryDate: "13/25", CVV: "1"}, june2024)
	assert.Len(t, errs, 3)
	assert.Equal(t, MsgCardLength, errs[FieldCardNumber])
	assert.Equal(t, MsgExpiryFormat, errs[FieldExpiryDate])
	assert.Equal(t, MsgCVVLength, errs[FieldCVV])

	assert.True(t, Payment(validPayment(), june2024).OK())
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "4111 1111 1111 1111", FormatCardNumber("4111111111111111"))
	assert.Equal(t, "4111 1111 1111 1111", FormatCardNumber("4111-1111-1111-1111-9999"))
	assert.Equal(t, "4111 1", FormatCardNumber("41111"))
	assert.Equal(t, "", FormatCardNumber("abcd"))

	assert.Equal(t, "06/24", FormatExpiryDate("0624"))
	assert.Equal(t, "06/24", FormatExpiryDate("06/245"))
	assert.Equal(t, "06", FormatExpiryDate("06"))
	assert.Equal(t, "06/2", FormatExpiryDate("062"))

	assert.Equal(t, "1234", SanitizeCVV("12 345"))

	got := FormatPayment(model.PaymentDetails{CardNumber: "4111111111111111", ExpiryDate: "0624", CVV: "123"})
	assert.Equal(t, validPayment(), got)
}
