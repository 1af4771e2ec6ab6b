// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/feedpool/internal/config"
	"github.com/ManuGH/feedpool/internal/coordinator"
	"github.com/ManuGH/feedpool/internal/snapshot"
)

func testConfig(t *testing.T) config.AppConfig {
	t.Helper()
	cfg := config.Defaults()
	cfg.Version = "test"
	cfg.LogLevel = "error"
	cfg.Diagnostics.ListenAddr = "127.0.0.1:0"
	cfg.Snapshot.Path = filepath.Join(t.TempDir(), "state.json")
	cfg.Snapshot.Interval = 100 * time.Millisecond
	cfg.Simulation.Tick = 5 * time.Millisecond
	cfg.Simulation.Latency = time.Millisecond
	require.NoError(t, config.Validate(cfg))
	return cfg
}

func TestNewAppRequiresConfig(t *testing.T) {
	_, err := NewApp(context.Background(), nil)
	assert.ErrorIs(t, err, ErrMissingConfig)
}

func TestNewAppRejectsBadSnapshotDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Snapshot.Path = filepath.Join(t.TempDir(), "missing", "state.json")
	_, err := NewApp(context.Background(), config.NewConfigHolder(cfg, config.NewLoader("", "test")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "startup checks")
}

func TestApp_Run(t *testing.T) {
	cfg := testConfig(t)
	holder := config.NewConfigHolder(cfg, config.NewLoader("", "test"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app, err := NewApp(ctx, holder)
	require.NoError(t, err)
	addr := app.DiagnosticsAddr()
	require.NotEmpty(t, addr)

	errc := make(chan error, 1)
	go func() { errc <- app.Run(ctx) }()

	client := &http.Client{Timeout: time.Second}
	require.Eventually(t, func() bool {
		resp, err := client.Get("http://" + addr + "/debug/coordinator")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return false
		}
		var snap coordinator.Snapshot
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			return false
		}
		return snap.Stats.Tracked > 0 && snap.Stats.Pool.Active > 0
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := client.Get("http://" + addr + "/readyz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool {
		doc, err := snapshot.Read(cfg.Snapshot.Path)
		return err == nil && doc.Version == "test"
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.False(t, app.Coordinator().Running())
}

func TestApp_ApplyReloadedConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Diagnostics.ListenAddr = ""
	cfg.Simulation.Items = 0
	app, err := NewApp(context.Background(), config.NewConfigHolder(cfg, config.NewLoader("", "test")))
	require.NoError(t, err)
	assert.Empty(t, app.DiagnosticsAddr())
	assert.Nil(t, app.scroller)

	reloaded := cfg
	reloaded.Visibility.DefaultProfile = "missing"
	app.apply(reloaded)

	reloaded = cfg
	reloaded.Visibility.Throttle = 0
	app.apply(reloaded)
	assert.Equal(t, time.Duration(0), app.feeder.throttle)
}
