// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

// Field keys used in FieldErrors.
const (
	FieldName       = "name"
	FieldAge        = "age"
	FieldEmail      = "email"
	FieldPhoto      = "profilePicture"
	FieldSongs      = "songs"
	FieldCardNumber = "cardNumber"
	FieldExpiryDate = "expiryDate"
	FieldCVV        = "cvv"
)

// FieldErrors maps a field key to a user-visible message.
type FieldErrors map[string]string

// OK reports whether there are no errors.
func (fe FieldErrors) OK() bool { return len(fe) == 0 }

func (fe FieldErrors) set(field, msg string) {
	if _, exists := fe[field]; !exists {
		fe[field] = msg
	}
}
