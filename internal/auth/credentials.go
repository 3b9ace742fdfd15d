// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package auth is the credential oracle: it answers whether a username and
// password match the one configured pair.
package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"
)

// Default credential pair.
const (
	DefaultUsername = "user123"
	DefaultPassword = "password123"
)

// Credentials is the single valid username/password pair.
type Credentials struct {
	Username string
	Password string
}

// Default returns the built-in pair.
func Default() Credentials {
	return Credentials{Username: DefaultUsername, Password: DefaultPassword}
}

// Verify reports whether username and password both match.
// Both comparisons always run so timing does not reveal which field differed.
// Empty configured values never match.
func (c Credentials) Verify(username, password string) bool {
	if strings.TrimSpace(c.Username) == "" || c.Password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password))
	return userOK&passOK == 1
}

// FailureMessage is shown after a mismatched login.
func (c Credentials) FailureMessage() string {
	return fmt.Sprintf("Invalid credentials. Try %s / %s.", c.Username, c.Password)
}
