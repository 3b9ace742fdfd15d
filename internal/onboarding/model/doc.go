// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package model defines the two sibling state trees of the onboarding service
// (session and progression) and the snapshot persisted for them.
//
// The types are plain values. Mutation rules live in package store; access
// rules live in package guard.
package model
