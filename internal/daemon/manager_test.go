// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/onboard/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testDeps() Deps {
	return Deps{
		Logger: zerolog.New(io.Discard),
		APIHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "ok")
		}),
		ListenAddr:      "127.0.0.1:0",
		ShutdownTimeout: time.Second,
	}
}

func waitForAddr(t *testing.T, m Manager) string {
	t.Helper()
	var addr string
	require.Eventually(t, func() bool {
		if a := m.Addr(); a != nil {
			addr = a.String()
			return true
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
	return addr
}

func TestDeps_Validate(t *testing.T) {
	d := testDeps()
	require.NoError(t, d.Validate())

	noLogger := testDeps()
	noLogger.Logger = zerolog.Nop()
	assert.ErrorIs(t, noLogger.Validate(), ErrMissingLogger)

	noHandler := testDeps()
	noHandler.APIHandler = nil
	assert.ErrorIs(t, noHandler.Validate(), ErrMissingAPIHandler)

	_, err := NewManager(noHandler)
	assert.ErrorIs(t, err, ErrMissingAPIHandler)
}

func TestManager_ServesUntilCancelled(t *testing.T) {
	m, err := NewManager(testDeps())
	require.NoError(t, err)
	assert.Nil(t, m.Addr())

	var (
		mu    sync.Mutex
		order []string
	)
	for _, name := range []string{"first", "second"} {
		m.RegisterShutdownHook(name, func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	addr := waitForAddr(t, m)
	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get(fmt.Sprintf("http://%s/", addr))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestManager_StartTwice(t *testing.T) {
	m, err := NewManager(testDeps())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()
	waitForAddr(t, m)

	assert.Error(t, m.Start(ctx))

	cancel()
	require.NoError(t, <-done)
}

func TestManager_ShutdownHookErrorsJoined(t *testing.T) {
	m, err := NewManager(testDeps())
	require.NoError(t, err)

	hookErr := errors.New("close failed")
	m.RegisterShutdownHook("broken", func(context.Context) error { return hookErr })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()
	waitForAddr(t, m)

	cancel()
	assert.ErrorIs(t, <-done, hookErr)
}

func TestManager_ListenFailure(t *testing.T) {
	d := testDeps()
	d.ListenAddr = "127.0.0.1:-1"
	m, err := NewManager(d)
	require.NoError(t, err)

	assert.Error(t, m.Start(context.Background()))
}

func TestManager_ShutdownBeforeStart(t *testing.T) {
	m, err := NewManager(testDeps())
	require.NoError(t, err)
	assert.ErrorIs(t, m.Shutdown(context.Background()), ErrManagerNotStarted)
}

func TestApp_RunRequiresManager(t *testing.T) {
	app := NewApp(zerolog.New(io.Discard), nil, nil)
	assert.ErrorIs(t, app.Run(context.Background()), ErrMissingManager)
}

func TestApp_RunStopsWithContext(t *testing.T) {
	m, err := NewManager(testDeps())
	require.NoError(t, err)

	holder := config.NewHolder(config.Default(), config.NewLoader("", "test"))
	app := NewApp(zerolog.New(io.Discard), m, holder)
	app.reloadSignal = nil

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	waitForAddr(t, m)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
