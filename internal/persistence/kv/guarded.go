// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package kv

import (
	"context"
	"errors"

	"github.com/ManuGH/onboard/internal/resilience"
)

// GuardedBackend routes reads and writes through a circuit breaker, so an
// unreachable store fails fast instead of costing every transition a timeout.
// Ping bypasses the breaker and always reports the real backend state.
type GuardedBackend struct {
	Backend
	breaker *resilience.CircuitBreaker
}

// Guard wraps b with a breaker named "storage.<backend>". Missing keys and
// invalid keys do not count as failures.
func Guard(b Backend, threshold int, opts ...resilience.Option) *GuardedBackend {
	opts = append([]resilience.Option{resilience.WithIgnoredErrors(func(err error) bool {
		return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidKey)
	})}, opts...)
	return &GuardedBackend{
		Backend: b,
		breaker: resilience.NewCircuitBreaker("storage."+b.Name(), threshold, resilience.DefaultResetTimeout, opts...),
	}
}

// Breaker exposes the breaker state.
func (g *GuardedBackend) Breaker() *resilience.CircuitBreaker { return g.breaker }

func (g *GuardedBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := g.breaker.Execute(func() error {
		var err error
		out, err = g.Backend.Get(ctx, key)
		return err
	})
	return out, err
}

func (g *GuardedBackend) Set(ctx context.Context, key string, value []byte) error {
	return g.breaker.Execute(func() error {
		return g.Backend.Set(ctx, key, value)
	})
}

func (g *GuardedBackend) Delete(ctx context.Context, key string) error {
	return g.breaker.Execute(func() error {
		return g.Backend.Delete(ctx, key)
	})
}
