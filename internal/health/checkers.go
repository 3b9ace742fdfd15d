// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultPingTimeout bounds a single storage probe.
const DefaultPingTimeout = 2 * time.Second

// Pinger is the subset of a storage backend the probe needs.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// StorageChecker probes the state backend. Persistence is best-effort, so an
// unreachable backend degrades the service instead of failing readiness.
type StorageChecker struct {
	backend Pinger
	timeout time.Duration
}

// NewStorageChecker wraps backend. A non-positive timeout uses DefaultPingTimeout.
func NewStorageChecker(backend Pinger, timeout time.Duration) *StorageChecker {
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	return &StorageChecker{backend: backend, timeout: timeout}
}

func (c *StorageChecker) Name() string {
	return "storage"
}

func (c *StorageChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.backend.Ping(ctx); err != nil {
		return CheckResult{
			Status:  StatusDegraded,
			Message: c.backend.Name() + " unreachable; state changes are kept in memory only",
			Error:   err.Error(),
		}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: c.backend.Name() + " reachable",
	}
}

// FuncChecker adapts a plain function into a Checker.
type FuncChecker struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

// NewFuncChecker creates a named checker backed by fn.
func NewFuncChecker(name string, fn func(ctx context.Context) CheckResult) *FuncChecker {
	return &FuncChecker{name: name, fn: fn}
}

func (c *FuncChecker) Name() string {
	return c.name
}

func (c *FuncChecker) Check(ctx context.Context) CheckResult {
	return c.fn(ctx)
}

// CheckDataDir verifies that path is an existing, writable directory.
// It runs once at startup for the on-disk backends.
func CheckDataDir(path string) error {
	if path == "" {
		return errors.New("data directory not configured")
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s: %w", path, err)
	}
	_ = os.Remove(testFile)
	return nil
}
