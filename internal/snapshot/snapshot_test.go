// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/feedpool/internal/coordinator"
	"github.com/ManuGH/feedpool/internal/pool"
)

type fakeSource struct {
	calls atomic.Int32
	err   error
}

func (f *fakeSource) Snapshot(context.Context) (coordinator.Snapshot, error) {
	f.calls.Add(1)
	if f.err != nil {
		return coordinator.Snapshot{}, f.err
	}
	h := pool.Handle(1)
	return coordinator.Snapshot{
		Items: []coordinator.ItemSnapshot{{ItemID: "a", Phase: coordinator.PhasePaused, Handle: &h}},
		Pool: pool.Snapshot{Capacity: 2, Free: 1, Bound: []pool.HandleRef{
			{Handle: 1, ItemID: "a", Status: pool.StatusPaused},
		}},
	}, nil
}

func TestWriteOnceAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	w := NewWriter(path, time.Second, "v1.0.0", &fakeSource{})
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	require.NoError(t, w.WriteOnce(context.Background()))

	doc, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, doc.FormatVersion)
	assert.Equal(t, "v1.0.0", doc.Version)
	assert.True(t, fixed.Equal(doc.WrittenAt))
	require.Len(t, doc.State.Items, 1)
	assert.Equal(t, coordinator.PhasePaused, doc.State.Items[0].Phase)
	assert.Equal(t, pool.StatusPaused, doc.State.Pool.Bound[0].Status)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteOnce_SourceError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	w := NewWriter(path, time.Second, "", &fakeSource{err: coordinator.ErrStopped})

	err := w.WriteOnce(context.Background())
	assert.ErrorIs(t, err, coordinator.ErrStopped)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRead_Rejects(t *testing.T) {
	dir := t.TempDir()
	_, err := Read(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"formatVersion": 99}`), 0o600))
	_, err = Read(bad)
	assert.ErrorContains(t, err, "unsupported snapshot format")

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte(`{`), 0o600))
	_, err = Read(garbage)
	assert.ErrorContains(t, err, "decode snapshot")
}

func TestRun_WritesPeriodically(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	path := filepath.Join(t.TempDir(), "state.json")
	src := &fakeSource{}
	w := NewWriter(path, 10*time.Millisecond, "", src)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return src.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	_, err := Read(path)
	require.NoError(t, err)
}

func TestRun_StopsWhenCoordinatorStops(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "state.json"), 5*time.Millisecond, "",
		&fakeSource{err: coordinator.ErrStopped})

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("writer kept running after the coordinator stopped")
	}
}
