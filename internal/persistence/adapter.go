// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package persistence loads and saves the onboarding snapshot.
//
// The adapter is best effort in both directions. Load reports "absent" for a
// missing, unreadable or malformed slot and Save drops the write on failure.
// Neither returns an error; failures are logged at warn level and counted.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/onboard/internal/log"
	"github.com/ManuGH/onboard/internal/metrics"
	"github.com/ManuGH/onboard/internal/onboarding/model"
	"github.com/ManuGH/onboard/internal/persistence/kv"
)

// DefaultKey is the storage slot holding the snapshot.
const DefaultKey = "user_onboarding_app_state"

const defaultOpTimeout = 3 * time.Second

// Outcome labels for persistence metrics.
const (
	outcomeOK      = "ok"
	outcomeAbsent  = "absent"
	outcomeCorrupt = "corrupt"
	outcomeError   = "error"
)

// Adapter reads and writes the snapshot under a single fixed key.
type Adapter struct {
	backend kv.Backend
	key     string
	timeout time.Duration
	marshal func(any) ([]byte, error)
	logger  zerolog.Logger
}

// Option customizes an Adapter.
type Option func(*Adapter)

// WithKey overrides the storage slot name.
func WithKey(key string) Option {
	return func(a *Adapter) {
		if key != "" {
			a.key = key
		}
	}
}

// WithTimeout bounds each backend call.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAdapter wraps backend.
func NewAdapter(backend kv.Backend, opts ...Option) *Adapter {
	a := &Adapter{
		backend: backend,
		key:     DefaultKey,
		timeout: defaultOpTimeout,
		marshal: json.Marshal,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = xglog.WithComponent("persistence").With().
		Str(xglog.FieldBackend, backend.Name()).
		Str(xglog.FieldStoreKey, a.key).
		Logger()
	return a
}

// Key returns the storage slot name.
func (a *Adapter) Key() string { return a.key }

// Backend returns the underlying backend.
func (a *Adapter) Backend() kv.Backend { return a.backend }

// Load returns the stored snapshot and true, or a zero Snapshot and false when
// the slot is missing, unavailable, malformed or violates a state invariant.
func (a *Adapter) Load(ctx context.Context) (model.Snapshot, bool) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.backend.Get(ctx, a.key)
	if errors.Is(err, kv.ErrNotFound) {
		metrics.RecordPersistence("load", outcomeAbsent)
		a.logger.Debug().Str(xglog.FieldEvent, "persistence.load_absent").Msg("no stored snapshot")
		return model.Snapshot{}, false
	}
	if err != nil {
		metrics.RecordPersistence("load", outcomeError)
		a.logger.Warn().Err(err).Str(xglog.FieldEvent, "persistence.load_failed").Msg("storage unavailable, using defaults")
		return model.Snapshot{}, false
	}

	snap, err := Decode(raw)
	if err != nil {
		metrics.RecordPersistence("load", outcomeCorrupt)
		a.logger.Warn().Err(err).Str(xglog.FieldEvent, "persistence.load_corrupt").Msg("stored snapshot unusable, using defaults")
		return model.Snapshot{}, false
	}

	metrics.RecordPersistence("load", outcomeOK)
	return snap, true
}

// Save writes snap. Failures are logged and dropped.
func (a *Adapter) Save(ctx context.Context, snap model.Snapshot) {
	raw, err := a.marshal(snap)
	if err != nil {
		metrics.RecordPersistence("save", outcomeError)
		a.logger.Warn().Err(err).Str(xglog.FieldEvent, "persistence.encode_failed").Msg("snapshot not saved")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.backend.Set(ctx, a.key, raw); err != nil {
		metrics.RecordPersistence("save", outcomeError)
		a.logger.Warn().Err(err).Str(xglog.FieldEvent, "persistence.save_failed").Msg("snapshot not saved")
		return
	}
	metrics.RecordPersistence("save", outcomeOK)
}

// Clear removes the stored snapshot. Failures are logged and dropped.
func (a *Adapter) Clear(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.backend.Delete(ctx, a.key); err != nil {
		metrics.RecordPersistence("clear", outcomeError)
		a.logger.Warn().Err(err).Str(xglog.FieldEvent, "persistence.clear_failed").Msg("snapshot not cleared")
		return
	}
	metrics.RecordPersistence("clear", outcomeOK)
}

// Decode parses a stored snapshot. Fields missing from raw keep their default
// values; the result must satisfy the state invariants.
func Decode(raw []byte) (model.Snapshot, error) {
	snap := model.DefaultSnapshot()
	if err := json.Unmarshal(raw, &snap); err != nil {
		return model.Snapshot{}, err
	}
	if snap.Progression.Songs == nil {
		snap.Progression.Songs = []string{}
	}
	if err := snap.Check(); err != nil {
		return model.Snapshot{}, err
	}
	return snap, nil
}
