// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package validate holds the per-step validation rules and the input
// formatters applied to payment fields before they are stored.
//
// Validation never fails with an error value: problems are reported as
// FieldErrors keyed by the form field name, ready to be rendered next to
// the offending input.
package validate
