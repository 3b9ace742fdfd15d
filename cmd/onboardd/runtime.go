// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/onboard/internal/api"
	"github.com/ManuGH/onboard/internal/config"
	"github.com/ManuGH/onboard/internal/daemon"
	"github.com/ManuGH/onboard/internal/health"
	xglog "github.com/ManuGH/onboard/internal/log"
	"github.com/ManuGH/onboard/internal/onboarding/store"
	"github.com/ManuGH/onboard/internal/persistence"
	"github.com/ManuGH/onboard/internal/persistence/kv"
	"github.com/ManuGH/onboard/internal/resilience"
	"github.com/ManuGH/onboard/internal/telemetry"
)

const defaultConfigName = "config.yaml"

// resolveConfigPath prefers an explicit path, then ${ONBOARD_DATA}/config.yaml
// if it exists. An empty result means defaults and environment only.
func resolveConfigPath(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	dataDir := strings.TrimSpace(os.Getenv(config.EnvDataDir))
	if dataDir == "" {
		return ""
	}
	autoPath := filepath.Join(dataDir, defaultConfigName)
	if _, err := os.Stat(autoPath); err == nil {
		return autoPath
	}
	return ""
}

// onDisk reports whether the backend keeps its data under StorePath.
func onDisk(backend string) bool {
	switch backend {
	case kv.BackendFile, kv.BackendSQLite, kv.BackendBadger:
		return true
	}
	return false
}

// openBackend opens the configured backend, checking the data directory first
// for the on-disk ones.
func openBackend(ctx context.Context, cfg config.AppConfig) (kv.Backend, error) {
	if onDisk(cfg.Store.Backend) {
		dir := cfg.StorePath()
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		if err := health.CheckDataDir(dir); err != nil {
			return nil, fmt.Errorf("data dir: %w", err)
		}
	}
	backend, err := kv.Open(ctx, cfg.KV())
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Store.Backend, err)
	}
	return backend, nil
}

// runtime is everything the serve command builds before listening.
type runtime struct {
	backend   kv.Backend
	store     *store.Store
	health    *health.Manager
	server    *api.Server
	telemetry *telemetry.Provider
}

func buildRuntime(ctx context.Context, cfg config.AppConfig) (*runtime, error) {
	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	if cfg.Store.Backend != kv.BackendMemory {
		backend = kv.Guard(backend, resilience.DefaultThreshold)
	}

	adapter := persistence.NewAdapter(backend, persistence.WithKey(cfg.Store.Key))
	st := store.Open(ctx, adapter, store.WithCredentials(cfg.Credentials()))

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewStorageChecker(backend, 0))

	tracingService := ""
	if cfg.Telemetry.Enabled {
		tracingService = cfg.LogService
	}
	srv := api.New(api.Config{
		Version:        cfg.Version,
		LoginPerMinute: cfg.RateLimit.LoginPerMinute,
		APIPerMinute:   cfg.RateLimit.APIPerMinute,
		TracingService: tracingService,
	}, st, hm)

	hm.RegisterChecker(health.NewFuncChecker("photos", func(context.Context) health.CheckResult {
		return health.CheckResult{
			Status:  health.StatusHealthy,
			Message: fmt.Sprintf("%d photo reads pending", srv.PhotosPending()),
		}
	}))

	logger := xglog.WithComponent("daemon")
	logger.Info().
		Str(xglog.FieldEvent, "runtime.ready").
		Str(xglog.FieldBackend, backend.Name()).
		Str(xglog.FieldStoreKey, adapter.Key()).
		Msg("state store opened")

	return &runtime{
		backend:   backend,
		store:     st,
		health:    hm,
		server:    srv,
		telemetry: tp,
	}, nil
}

// registerShutdownHooks closes the backend after the server drains, then
// flushes traces.
func (r *runtime) registerShutdownHooks(mgr daemon.Manager) {
	mgr.RegisterShutdownHook("telemetry", r.telemetry.Shutdown)
	mgr.RegisterShutdownHook("state-backend", func(context.Context) error {
		return r.backend.Close()
	})
}
