// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"time"

	"github.com/ManuGH/onboard/internal/auth"
	"github.com/ManuGH/onboard/internal/persistence"
	"github.com/ManuGH/onboard/internal/persistence/kv"
)

// Defaults.
const (
	DefaultListenAddr      = ":8080"
	DefaultLogLevel        = "info"
	DefaultLogService      = "onboard"
	DefaultDataDir         = "/tmp/onboard"
	DefaultRedisAddr       = "localhost:6379"
	DefaultLoginPerMinute  = 10
	DefaultAPIPerMinute    = 600
	DefaultMaxConnections  = 256
	DefaultShutdownTimeout = 10 * time.Second
)

// AppConfig is the resolved configuration.
type AppConfig struct {
	Version    string
	ListenAddr string
	LogLevel   string
	LogService string
	DataDir    string

	Store     StoreConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Server    ServerConfig
	Telemetry TelemetryConfig
}

// StoreConfig selects the snapshot backend.
type StoreConfig struct {
	Backend string
	// Path is the backend's data directory. Empty means DataDir.
	Path  string
	Key   string
	Redis RedisConfig
}

// RedisConfig is used by the redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig is the single valid credential pair.
type AuthConfig struct {
	Username string
	Password string
}

// RateLimitConfig bounds request rates per client.
type RateLimitConfig struct {
	LoginPerMinute int
	APIPerMinute   int
}

// ServerConfig tunes the HTTP server.
type ServerConfig struct {
	MaxConnections  int
	ShutdownTimeout time.Duration
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	Environment  string
	SamplingRate float64
}

// Default returns the configuration used when nothing is set.
func Default() AppConfig {
	creds := auth.Default()
	return AppConfig{
		ListenAddr: DefaultListenAddr,
		LogLevel:   DefaultLogLevel,
		LogService: DefaultLogService,
		DataDir:    DefaultDataDir,
		Store: StoreConfig{
			Backend: kv.BackendFile,
			Key:     persistence.DefaultKey,
			Redis:   RedisConfig{Addr: DefaultRedisAddr},
		},
		Auth: AuthConfig{Username: creds.Username, Password: creds.Password},
		RateLimit: RateLimitConfig{
			LoginPerMinute: DefaultLoginPerMinute,
			APIPerMinute:   DefaultAPIPerMinute,
		},
		Server: ServerConfig{
			MaxConnections:  DefaultMaxConnections,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			Environment:  "development",
			SamplingRate: 1.0,
		},
	}
}

// StorePath returns the backend directory, defaulting to DataDir.
func (c AppConfig) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return c.DataDir
}

// KV returns the backend configuration.
func (c AppConfig) KV() kv.Config {
	return kv.Config{
		Backend: c.Store.Backend,
		Path:    c.StorePath(),
		Redis: kv.RedisConfig{
			Addr:     c.Store.Redis.Addr,
			Password: c.Store.Redis.Password,
			DB:       c.Store.Redis.DB,
		},
	}
}

// Credentials returns the configured pair.
func (c AppConfig) Credentials() auth.Credentials {
	return auth.Credentials{Username: c.Auth.Username, Password: c.Auth.Password}
}

// FileConfig mirrors the YAML file. Pointer fields distinguish unset from zero.
type FileConfig struct {
	ListenAddr *string `yaml:"listenAddr"`
	LogLevel   *string `yaml:"logLevel"`
	LogService *string `yaml:"logService"`
	DataDir    *string `yaml:"dataDir"`

	Store     *FileStore     `yaml:"store"`
	Auth      *FileAuth      `yaml:"auth"`
	RateLimit *FileRateLimit `yaml:"rateLimit"`
	Server    *FileServer    `yaml:"server"`
	Telemetry *FileTelemetry `yaml:"telemetry"`
}

// FileStore is the store section.
type FileStore struct {
	Backend *string    `yaml:"backend"`
	Path    *string    `yaml:"path"`
	Key     *string    `yaml:"key"`
	Redis   *FileRedis `yaml:"redis"`
}

// FileRedis is the store.redis section.
type FileRedis struct {
	Addr     *string `yaml:"addr"`
	Password *string `yaml:"password"`
	DB       *int    `yaml:"db"`
}

// FileAuth is the auth section.
type FileAuth struct {
	Username *string `yaml:"username"`
	Password *string `yaml:"password"`
}

// FileRateLimit is the rateLimit section.
type FileRateLimit struct {
	LoginPerMinute *int `yaml:"loginPerMinute"`
	APIPerMinute   *int `yaml:"apiPerMinute"`
}

// FileServer is the server section.
type FileServer struct {
	MaxConnections  *int           `yaml:"maxConnections"`
	ShutdownTimeout *time.Duration `yaml:"shutdownTimeout"`
}

// FileTelemetry is the telemetry section.
type FileTelemetry struct {
	Enabled      *bool    `yaml:"enabled"`
	Exporter     *string  `yaml:"exporter"`
	Endpoint     *string  `yaml:"endpoint"`
	Environment  *string  `yaml:"environment"`
	SamplingRate *float64 `yaml:"samplingRate"`
}
