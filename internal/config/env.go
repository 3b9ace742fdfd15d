// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/onboard/internal/log"
)

// Environment keys.
const (
	EnvListenAddr       = "ONBOARD_LISTEN"
	EnvLogLevel         = "ONBOARD_LOG_LEVEL"
	EnvLogLevelFallback = "LOG_LEVEL"
	EnvLogService       = "ONBOARD_LOG_SERVICE"
	EnvDataDir          = "ONBOARD_DATA"
	EnvStoreBackend     = "ONBOARD_STORE_BACKEND"
	EnvStorePath        = "ONBOARD_STORE_PATH"
	EnvStoreKey         = "ONBOARD_STORE_KEY"
	EnvRedisAddr        = "ONBOARD_REDIS_ADDR"
	EnvRedisPassword    = "ONBOARD_REDIS_PASSWORD"
	EnvRedisDB          = "ONBOARD_REDIS_DB"
	EnvAuthUsername     = "ONBOARD_AUTH_USERNAME"
	EnvAuthPassword     = "ONBOARD_AUTH_PASSWORD"
	EnvLoginRate        = "ONBOARD_LOGIN_RATE_PER_MIN"
	EnvAPIRate          = "ONBOARD_API_RATE_PER_MIN"
	EnvMaxConnections   = "ONBOARD_MAX_CONNECTIONS"
	EnvShutdownTimeout  = "ONBOARD_SHUTDOWN_TIMEOUT"
	EnvOTelEnabled      = "ONBOARD_OTEL_ENABLED"
	EnvOTelExporter     = "ONBOARD_OTEL_EXPORTER"
	EnvOTelEndpoint     = "ONBOARD_OTEL_ENDPOINT"
	EnvOTelEnvironment  = "ONBOARD_OTEL_ENVIRONMENT"
	EnvOTelSampling     = "ONBOARD_OTEL_SAMPLING_RATE"
)

func isSensitive(key string) bool {
	lower := strings.ToLower(key)
	return strings.Contains(lower, "token") || strings.Contains(lower, "password")
}

// lookup returns the value of key when it is set and non-empty.
func lookup(logger zerolog.Logger, key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	ev := logger.Debug().Str("key", key).Str("source", "environment")
	if isSensitive(key) {
		ev = ev.Bool("sensitive", true)
	} else {
		ev = ev.Str("value", v)
	}
	ev.Msg("using environment variable")
	return v, true
}

// ParseString reads a string from environment variable or returns default value.
func ParseString(key, defaultValue string) string {
	if v, ok := lookup(log.WithComponent("config"), key); ok {
		return v
	}
	return defaultValue
}

// ParseInt reads an integer from environment variable or returns default value.
// Unparseable values fall back to the default with a warning.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Int("default", defaultValue).
			Msg("invalid integer in environment variable, using default")
		return defaultValue
	}
	return i
}

// ParseFloat reads a float from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Float64("default", defaultValue).
			Msg("invalid float in environment variable, using default")
		return defaultValue
	}
	return f
}

// ParseDuration reads a duration such as "10s" from environment variable or
// returns default value.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Dur("default", defaultValue).
			Msg("invalid duration in environment variable, using default")
		return defaultValue
	}
	return d
}

// ParseBool reads a boolean from environment variable or returns default value.
// It accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	logger.Warn().Str("key", key).Str("value", v).Bool("default", defaultValue).
		Msg("invalid boolean in environment variable, using default")
	return defaultValue
}
