// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"

	"github.com/ManuGH/onboard/internal/persistence/kv"
	"github.com/ManuGH/onboard/internal/telemetry"
	"github.com/ManuGH/onboard/internal/validate"
)

// Validate checks a resolved configuration. Errors wrap ErrInvalidConfig.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.ListenAddr("listenAddr", cfg.ListenAddr)
	if _, err := validate.ParseLogLevel(cfg.LogLevel); err != nil {
		v.AddError("logLevel", "must be one of trace, debug, info, warn, error", cfg.LogLevel)
	}
	v.NotEmpty("logService", cfg.LogService)
	v.NotEmpty("dataDir", cfg.DataDir)

	v.OneOf("store.backend", cfg.Store.Backend, kv.Backends)
	if err := kv.ValidateKey(cfg.Store.Key); err != nil {
		v.AddError("store.key", "must be 1-128 characters of letters, digits, '_', '.', '-'", cfg.Store.Key)
	}
	if cfg.Store.Backend == kv.BackendRedis {
		v.HostPort("store.redis.addr", cfg.Store.Redis.Addr)
		v.Range("store.redis.db", cfg.Store.Redis.DB, 0, 15)
	}

	v.NotEmpty("auth.username", cfg.Auth.Username)
	v.NotEmpty("auth.password", cfg.Auth.Password)

	v.Positive("rateLimit.loginPerMinute", cfg.RateLimit.LoginPerMinute)
	v.Positive("rateLimit.apiPerMinute", cfg.RateLimit.APIPerMinute)

	v.Positive("server.maxConnections", cfg.Server.MaxConnections)
	v.PositiveDuration("server.shutdownTimeout", cfg.Server.ShutdownTimeout)

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{telemetry.ExporterGRPC, telemetry.ExporterHTTP})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
	}
	v.Fraction("telemetry.samplingRate", cfg.Telemetry.SamplingRate)

	if err := v.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
