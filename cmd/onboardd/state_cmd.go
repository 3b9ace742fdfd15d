// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/onboard/internal/config"
	xglog "github.com/ManuGH/onboard/internal/log"
	"github.com/ManuGH/onboard/internal/onboarding/model"
	"github.com/ManuGH/onboard/internal/persistence"
	"github.com/ManuGH/onboard/internal/persistence/kv"
	"github.com/ManuGH/onboard/internal/persistence/sqlite"
	"github.com/ManuGH/onboard/internal/version"
)

const stateCommandTimeout = 10 * time.Second

func runStateCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printStateUsage(stdout)
		return 0
	}

	// Adapter warnings go to stderr so stdout stays machine-readable.
	xglog.Configure(xglog.Config{Level: "warn", Output: stderr, Service: config.DefaultLogService, Version: version.Version})

	switch args[0] {
	case "show":
		return runStateShow(args[1:], stdout, stderr)
	case "reset":
		return runStateReset(args[1:], stdout, stderr)
	case "verify":
		return runStateVerify(args[1:], stdout, stderr)
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printStateUsage(stderr)
		return 2
	}
}

func printStateUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  onboardd state show [--file|-f config.yaml] [--format=json|yaml] [--reveal]")
	_, _ = fmt.Fprintln(w, "  onboardd state reset [--file|-f config.yaml]")
	_, _ = fmt.Fprintln(w, "  onboardd state verify [--file|-f config.yaml] [--mode quick|full]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Subcommands:")
	_, _ = fmt.Fprintln(w, "  show      Print the persisted snapshot, or the defaults when none is stored")
	_, _ = fmt.Fprintln(w, "  reset     Overwrite the persisted snapshot with the defaults")
	_, _ = fmt.Fprintln(w, "  verify    Check that the stored snapshot decodes and satisfies the state rules")
}

// stateFlags are shared by every state subcommand.
type stateFlags struct {
	fs   *flag.FlagSet
	file string
}

func newStateFlags(name string, stderr io.Writer) *stateFlags {
	sf := &stateFlags{fs: flag.NewFlagSet("onboardd state "+name, flag.ContinueOnError)}
	sf.fs.SetOutput(stderr)
	sf.fs.StringVar(&sf.file, "file", "", "path to YAML configuration file")
	sf.fs.StringVar(&sf.file, "f", "", "path to YAML configuration file (shorthand)")
	return sf
}

// openState loads the configuration and opens the configured backend.
func openState(ctx context.Context, file string, stderr io.Writer) (config.AppConfig, kv.Backend, bool) {
	cfg, path, err := loadConfig(file)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", describeSource(path), err)
		return cfg, nil, false
	}
	if cfg.Store.Backend == kv.BackendMemory {
		_, _ = fmt.Fprintln(stderr, "Error: the memory backend keeps no state outside the running daemon")
		return cfg, nil, false
	}
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return cfg, nil, false
	}
	return cfg, backend, true
}

func runStateShow(args []string, stdout, stderr io.Writer) int {
	sf := newStateFlags("show", stderr)
	var format string
	var reveal bool
	sf.fs.StringVar(&format, "format", "json", "output format: json or yaml")
	sf.fs.BoolVar(&reveal, "reveal", false, "print photo and payment fields unmasked")
	if err := sf.fs.Parse(args); err != nil {
		return 2
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "json" && format != "yaml" && format != "yml" {
		_, _ = fmt.Fprintf(stderr, "Unsupported format: %s (use json or yaml)\n", format)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), stateCommandTimeout)
	defer cancel()

	cfg, backend, ok := openState(ctx, sf.file, stderr)
	if !ok {
		return 1
	}
	defer func() { _ = backend.Close() }()

	adapter := persistence.NewAdapter(backend, persistence.WithKey(cfg.Store.Key))
	snap, found := adapter.Load(ctx)
	source := "stored"
	if !found {
		snap = model.DefaultSnapshot()
		source = "defaults"
	}
	if !reveal {
		snap = maskSnapshot(snap)
	}

	out := stateReport{
		Backend: backend.Name(),
		Key:     adapter.Key(),
		Source:  source,
		State:   snap,
	}
	if err := encodeReport(stdout, format, out); err != nil {
		_, _ = fmt.Fprintf(stderr, "Failed to encode state: %v\n", err)
		return 1
	}
	return 0
}

type stateReport struct {
	Backend string         `json:"backend"`
	Key     string         `json:"key"`
	Source  string         `json:"source"`
	State   model.Snapshot `json:"state"`
}

// encodeReport writes v as indented JSON, or as YAML with the JSON field names.
func encodeReport(w io.Writer, format string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if format == "json" {
		_, err = fmt.Fprintf(w, "%s\n", raw)
		return err
	}

	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

// maskSnapshot hides the photo payload and all but the last four card digits.
func maskSnapshot(snap model.Snapshot) model.Snapshot {
	out := snap.Clone()
	if p := out.Progression.Profile.Photo; p != nil {
		masked := maskPhoto(*p)
		out.Progression.Profile.Photo = &masked
	}
	pay := &out.Progression.Payment
	pay.CardNumber = maskDigits(pay.CardNumber, 4)
	if pay.CVV != "" {
		pay.CVV = redacted
	}
	return out
}

func maskPhoto(dataURL string) string {
	head, payload, ok := strings.Cut(dataURL, ",")
	if !ok {
		return fmt.Sprintf("<%d bytes>", len(dataURL))
	}
	return fmt.Sprintf("%s,<%d bytes>", head, len(payload))
}

func maskDigits(s string, keep int) string {
	total := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			total++
		}
	}
	var b strings.Builder
	seen := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			seen++
			if seen <= total-keep {
				b.WriteByte('*')
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func runStateReset(args []string, stdout, stderr io.Writer) int {
	sf := newStateFlags("reset", stderr)
	if err := sf.fs.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), stateCommandTimeout)
	defer cancel()

	cfg, backend, ok := openState(ctx, sf.file, stderr)
	if !ok {
		return 1
	}
	defer func() { _ = backend.Close() }()

	if err := backend.Ping(ctx); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %s backend unreachable: %v\n", backend.Name(), err)
		return 1
	}

	adapter := persistence.NewAdapter(backend, persistence.WithKey(cfg.Store.Key))
	want := model.DefaultSnapshot()
	adapter.Save(ctx, want)

	// Save is best-effort, so read the slot back to report the outcome.
	got, found := adapter.Load(ctx)
	if !found {
		_, _ = fmt.Fprintln(stderr, "Error: default snapshot was not written")
		return 1
	}
	if diff := cmp.Diff(want, got); diff != "" {
		_, _ = fmt.Fprintf(stderr, "Error: stored snapshot differs from defaults (-want +got):\n%s", diff)
		return 1
	}

	_, _ = fmt.Fprintf(stdout, "✓ state reset (%s, key %s)\n", backend.Name(), adapter.Key())
	return 0
}

func runStateVerify(args []string, stdout, stderr io.Writer) int {
	sf := newStateFlags("verify", stderr)
	var mode string
	sf.fs.StringVar(&mode, "mode", "quick", "SQLite verification mode: quick or full")
	if err := sf.fs.Parse(args); err != nil {
		return 2
	}
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode != "quick" && mode != "full" {
		_, _ = fmt.Fprintf(stderr, "Error: invalid mode %q. Use 'quick' or 'full'.\n", mode)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), stateCommandTimeout)
	defer cancel()

	cfg, backend, ok := openState(ctx, sf.file, stderr)
	if !ok {
		return 1
	}
	defer func() { _ = backend.Close() }()

	if cfg.Store.Backend == kv.BackendSQLite {
		dbPath := filepath.Join(cfg.StorePath(), kv.SQLiteFile)
		issues, err := sqlite.VerifyIntegrity(dbPath, mode)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "FAILED: %s: %v\n", dbPath, err)
			return 1
		}
		if len(issues) > 0 {
			_, _ = fmt.Fprintf(stderr, "FAILED: %s: integrity check reported %d issues:\n", dbPath, len(issues))
			for _, issue := range issues {
				_, _ = fmt.Fprintf(stderr, "  - %s\n", issue)
			}
			return 1
		}
	}

	raw, err := backend.Get(ctx, cfg.Store.Key)
	if errors.Is(err, kv.ErrNotFound) {
		_, _ = fmt.Fprintf(stdout, "✓ no snapshot stored under %s (%s); the daemon starts from defaults\n", cfg.Store.Key, backend.Name())
		return 0
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "FAILED: read %s: %v\n", cfg.Store.Key, err)
		return 1
	}

	snap, err := persistence.Decode(raw)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "FAILED: snapshot under %s is unusable and would be ignored: %v\n", cfg.Store.Key, err)
		return 1
	}

	_, _ = fmt.Fprintf(stdout, "✓ snapshot under %s is valid (%s, step %d, %d/%d completed)\n",
		cfg.Store.Key, backend.Name(), int(snap.Progression.CurrentStep),
		snap.Progression.CompletedSteps.Len(), model.TotalSteps)
	return 0
}
