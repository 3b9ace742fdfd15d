// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package kv

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// Backends lists every supported backend name.
var Backends = []string{BackendMemory, BackendFile, BackendSQLite, BackendRedis, BackendBadger}

// Config selects and configures a backend.
type Config struct {
	Backend string
	// Path is the data directory for file and badger, and the parent
	// directory of state.sqlite for sqlite.
	Path  string
	Redis RedisConfig
}

// SQLiteFile is the database file name used under Config.Path.
const SQLiteFile = "state.sqlite"

// Open creates a Backend based on the configuration.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = BackendFile
	}

	switch backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendFile:
		return NewFile(cfg.Path)
	case BackendSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite backend: path required")
		}
		return NewSQLite(filepath.Join(cfg.Path, SQLiteFile))
	case BackendRedis:
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("redis backend: address required")
		}
		return NewRedis(ctx, cfg.Redis)
	case BackendBadger:
		if cfg.Path == "" {
			return nil, fmt.Errorf("badger backend: path required")
		}
		return NewBadger(filepath.Join(cfg.Path, "badger"))
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}
