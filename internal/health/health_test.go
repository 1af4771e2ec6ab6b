// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/feedpool/internal/config"
	"github.com/ManuGH/feedpool/internal/coordinator"
	"github.com/ManuGH/feedpool/internal/pool"
)

type mockChecker struct {
	name   string
	status Status
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(context.Context) CheckResult {
	return CheckResult{Status: m.status}
}

type fakeSource struct {
	running bool
	stats   coordinator.Stats
	err     error
}

func (f fakeSource) Running() bool { return f.running }

func (f fakeSource) Stats(context.Context) (coordinator.Stats, error) { return f.stats, f.err }

func TestManager_Health(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "healthy", status: StatusHealthy})
	m.RegisterChecker(&mockChecker{name: "degraded", status: StatusDegraded})

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "v1.0.0", resp.Version)
	assert.GreaterOrEqual(t, resp.Uptime, int64(0))
	assert.Nil(t, resp.Checks)

	resp = m.Health(context.Background(), true)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Len(t, resp.Checks, 2)
}

func TestManager_Ready(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []Status
		wantReady bool
		want      Status
	}{
		{"no checkers", nil, true, StatusHealthy},
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, true, StatusHealthy},
		{"degraded is ready", []Status{StatusHealthy, StatusDegraded}, true, StatusDegraded},
		{"unhealthy wins", []Status{StatusUnhealthy, StatusDegraded}, false, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("")
			for i, s := range tt.statuses {
				m.RegisterChecker(&mockChecker{name: string(rune('a' + i)), status: s})
			}
			resp := m.Ready(context.Background())
			assert.Equal(t, tt.wantReady, resp.Ready)
			assert.Equal(t, tt.want, resp.Status)
		})
	}
}

func TestManager_ServeReady(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "coordinator", status: StatusUnhealthy})

	rec := httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ReadinessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Ready)
	assert.Equal(t, StatusUnhealthy, resp.Checks["coordinator"].Status)
}

func TestManager_ServeHealthAlways200(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "coordinator", status: StatusUnhealthy})

	rec := httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz?verbose=true", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusUnhealthy, resp.Status)
}

func TestPoolChecker(t *testing.T) {
	c := NewPoolChecker(fakeSource{stats: coordinator.Stats{
		Pool: pool.Stats{Available: 1, Active: 4, Max: 5, Utilization: 80},
	}})
	res := c.Check(context.Background())
	assert.Equal(t, StatusHealthy, res.Status)
	assert.Contains(t, res.Message, "4/5")

	c = NewPoolChecker(fakeSource{stats: coordinator.Stats{
		Pool: pool.Stats{Active: 5, Max: 5, Utilization: 100},
	}})
	assert.Equal(t, StatusDegraded, c.Check(context.Background()).Status)

	c = NewPoolChecker(fakeSource{err: coordinator.ErrStopped})
	res = c.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.Equal(t, coordinator.ErrStopped.Error(), res.Error)
}

func TestCoordinatorChecker(t *testing.T) {
	tests := []struct {
		name string
		src  fakeSource
		want Status
	}{
		{"not running", fakeSource{}, StatusUnhealthy},
		{"not answering", fakeSource{running: true, err: errors.New("deadline exceeded")}, StatusUnhealthy},
		{"demoted items", fakeSource{running: true, stats: coordinator.Stats{Tracked: 3, NeedsEvent: 1}}, StatusDegraded},
		{"healthy", fakeSource{running: true, stats: coordinator.Stats{Tracked: 3, Playing: 1}}, StatusHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewCoordinatorChecker(tt.src).Check(context.Background()).Status)
		})
	}
}

func TestSnapshotChecker(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	assert.Equal(t, StatusHealthy, NewSnapshotChecker("", time.Minute).Check(context.Background()).Status)
	assert.Equal(t, StatusDegraded, NewSnapshotChecker(path, time.Minute).Check(context.Background()).Status)
	assert.Equal(t, StatusUnhealthy, NewSnapshotChecker(dir, time.Minute).Check(context.Background()).Status)

	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	c := NewSnapshotChecker(path, time.Minute)
	assert.Equal(t, StatusHealthy, c.Check(context.Background()).Status)

	c.now = func() time.Time { return time.Now().Add(time.Hour) }
	res := c.Check(context.Background())
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Contains(t, res.Message, "old")
}

func TestPerformStartupChecks(t *testing.T) {
	cfg := config.Defaults()
	cfg.Snapshot.Path = filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, PerformStartupChecks(cfg))

	cfg.Snapshot.Path = filepath.Join(t.TempDir(), "missing", "state.json")
	err := PerformStartupChecks(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
