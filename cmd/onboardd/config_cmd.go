// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/onboard/internal/config"
	"github.com/ManuGH/onboard/internal/version"
)

const redacted = "***"

func runConfigCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stdout)
		return 0
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:], stdout, stderr)
	case "dump":
		return runConfigDump(args[1:], stdout, stderr)
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  onboardd config validate [--file|-f config.yaml]")
	_, _ = fmt.Fprintln(w, "  onboardd config dump [--file|-f config.yaml] [--format=yaml|json]")
}

// loadConfig resolves the config file the way the daemon does and loads it.
func loadConfig(file string) (config.AppConfig, string, error) {
	path := resolveConfigPath(file)
	cfg, err := config.NewLoader(path, version.Version).Load()
	return cfg, path, err
}

func describeSource(path string) string {
	if path == "" {
		return "environment and defaults"
	}
	return path
}

func runConfigValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("onboardd config validate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var file string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, path, err := loadConfig(file)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", describeSource(path), err)
		return 1
	}

	_, _ = fmt.Fprintf(stdout, "✓ %s is valid (store: %s, listen: %s)\n", describeSource(path), cfg.Store.Backend, cfg.ListenAddr)
	return 0
}

func runConfigDump(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("onboardd config dump", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var file string
	var format string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	fs.StringVar(&format, "format", "yaml", "output format: yaml or json")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, path, err := loadConfig(file)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", describeSource(path), err)
		return 1
	}

	fileCfg := fileConfigFromAppConfig(cfg)
	redactFileConfigSecrets(&fileCfg)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(fileCfg); err != nil {
			_, _ = fmt.Fprintf(stderr, "Failed to encode YAML: %v\n", err)
			return 1
		}
		_ = enc.Close()
		return 0
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(fileCfg); err != nil {
			_, _ = fmt.Fprintf(stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unsupported format: %s (use yaml or json)\n", format)
		return 2
	}
}

func ptr[T any](v T) *T { return &v }

func fileConfigFromAppConfig(cfg config.AppConfig) config.FileConfig {
	return config.FileConfig{
		ListenAddr: ptr(cfg.ListenAddr),
		LogLevel:   ptr(cfg.LogLevel),
		LogService: ptr(cfg.LogService),
		DataDir:    ptr(cfg.DataDir),
		Store: &config.FileStore{
			Backend: ptr(cfg.Store.Backend),
			Path:    ptr(cfg.StorePath()),
			Key:     ptr(cfg.Store.Key),
			Redis: &config.FileRedis{
				Addr:     ptr(cfg.Store.Redis.Addr),
				Password: ptr(cfg.Store.Redis.Password),
				DB:       ptr(cfg.Store.Redis.DB),
			},
		},
		Auth: &config.FileAuth{
			Username: ptr(cfg.Auth.Username),
			Password: ptr(cfg.Auth.Password),
		},
		RateLimit: &config.FileRateLimit{
			LoginPerMinute: ptr(cfg.RateLimit.LoginPerMinute),
			APIPerMinute:   ptr(cfg.RateLimit.APIPerMinute),
		},
		Server: &config.FileServer{
			MaxConnections:  ptr(cfg.Server.MaxConnections),
			ShutdownTimeout: ptr(cfg.Server.ShutdownTimeout),
		},
		Telemetry: &config.FileTelemetry{
			Enabled:      ptr(cfg.Telemetry.Enabled),
			Exporter:     ptr(cfg.Telemetry.Exporter),
			Endpoint:     ptr(cfg.Telemetry.Endpoint),
			Environment:  ptr(cfg.Telemetry.Environment),
			SamplingRate: ptr(cfg.Telemetry.SamplingRate),
		},
	}
}

func redactFileConfigSecrets(cfg *config.FileConfig) {
	redact := func(s *string) {
		if s != nil && *s != "" {
			*s = redacted
		}
	}
	if cfg.Auth != nil {
		redact(cfg.Auth.Password)
	}
	if cfg.Store != nil && cfg.Store.Redis != nil {
		redact(cfg.Store.Redis.Password)
	}
}
