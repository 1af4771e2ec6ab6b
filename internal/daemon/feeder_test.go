// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/feedpool/internal/config"
	"github.com/ManuGH/feedpool/internal/coordinator"
	"github.com/ManuGH/feedpool/internal/feedsim"
	"github.com/ManuGH/feedpool/internal/log"
	"github.com/ManuGH/feedpool/internal/viewability"
)

type recordingCoordinator struct {
	entered  []coordinator.Item
	left     []string
	events   []viewability.Event
	enterErr error
}

func (r *recordingCoordinator) Enter(_ context.Context, item coordinator.Item) error {
	if r.enterErr != nil {
		return r.enterErr
	}
	r.entered = append(r.entered, item)
	return nil
}

func (r *recordingCoordinator) Leave(_ context.Context, id string) error {
	r.left = append(r.left, id)
	return nil
}

func (r *recordingCoordinator) Submit(_ context.Context, ev viewability.Event) error {
	r.events = append(r.events, ev)
	return nil
}

func defaultLadders(t *testing.T) *config.Ladders {
	t.Helper()
	l, err := config.Defaults().Ladders()
	require.NoError(t, err)
	return l
}

func TestNewFeederRequiresCoordinator(t *testing.T) {
	_, err := NewFeeder(nil, defaultLadders(t), 0)
	assert.ErrorIs(t, err, ErrMissingCoordinator)
}

func TestFeeder_HandleFrame(t *testing.T) {
	rc := &recordingCoordinator{}
	ladders := defaultLadders(t)
	f, err := NewFeeder(rc, ladders, 0)
	require.NoError(t, err)

	at := time.Unix(1000, 0)
	err = f.HandleFrame(context.Background(), feedsim.Frame{
		At: at,
		Entered: []feedsim.Item{
			{ID: "a", Category: "short"},
			{ID: "b", Category: "carousel"},
		},
		Samples: []viewability.Sample{
			{ItemID: "a", Fraction: 0.6, At: at},
			{ItemID: "b", Fraction: 0.6, At: at},
		},
	})
	require.NoError(t, err)

	require.Len(t, rc.entered, 2)
	assert.Same(t, ladders.Default(), rc.entered[0].Ladder)
	carousel, ok := ladders.Profile("carousel")
	require.True(t, ok)
	assert.Same(t, carousel, rc.entered[1].Ladder)

	require.Len(t, rc.events, 2)
	assert.Equal(t, viewability.Band(3), rc.events[0].To)
	assert.Equal(t, viewability.Band(1), rc.events[1].To)
	assert.Equal(t, uint64(1), rc.events[0].Seq)
	assert.Equal(t, 2, f.Tracked())

	// Unchanged fractions emit nothing.
	err = f.HandleFrame(context.Background(), feedsim.Frame{
		Samples: []viewability.Sample{{ItemID: "a", Fraction: 0.6, At: at.Add(time.Second)}},
		Left:    []string{"b"},
	})
	require.NoError(t, err)
	assert.Len(t, rc.events, 2)
	assert.Equal(t, []string{"b"}, rc.left)
	assert.Equal(t, 1, f.Tracked())
}

func TestFeeder_ReenteredItemRestartsSeq(t *testing.T) {
	rc := &recordingCoordinator{}
	f, err := NewFeeder(rc, defaultLadders(t), 0)
	require.NoError(t, err)
	ctx := context.Background()
	at := time.Unix(1000, 0)

	require.NoError(t, f.HandleFrame(ctx, feedsim.Frame{
		Entered: []feedsim.Item{{ID: "a", Category: "short"}},
		Samples: []viewability.Sample{{ItemID: "a", Fraction: 1, At: at}},
	}))
	require.NoError(t, f.HandleFrame(ctx, feedsim.Frame{Left: []string{"a"}}))
	require.NoError(t, f.HandleFrame(ctx, feedsim.Frame{
		Entered: []feedsim.Item{{ID: "a", Category: "short"}},
		Samples: []viewability.Sample{{ItemID: "a", Fraction: 1, At: at.Add(time.Second)}},
	}))

	require.Len(t, rc.events, 2)
	assert.Equal(t, uint64(1), rc.events[1].Seq)
}

func TestFeeder_EnterErrorStopsFrame(t *testing.T) {
	rc := &recordingCoordinator{enterErr: coordinator.ErrStopped}
	f, err := NewFeeder(rc, defaultLadders(t), 0)
	require.NoError(t, err)

	err = f.HandleFrame(context.Background(), feedsim.Frame{
		Entered: []feedsim.Item{{ID: "a"}},
		Samples: []viewability.Sample{{ItemID: "a", Fraction: 1, At: time.Now()}},
	})
	assert.ErrorIs(t, err, coordinator.ErrStopped)
	assert.Empty(t, rc.events)
}

func TestFeeder_ApplySwapsThrottle(t *testing.T) {
	rc := &recordingCoordinator{}
	f, err := NewFeeder(rc, defaultLadders(t), time.Hour)
	require.NoError(t, err)
	ctx := context.Background()
	at := time.Unix(1000, 0)

	require.NoError(t, f.HandleFrame(ctx, feedsim.Frame{
		Entered: []feedsim.Item{{ID: "a", Category: "short"}},
		Samples: []viewability.Sample{{ItemID: "a", Fraction: 1, At: at}},
	}))
	require.Len(t, rc.events, 1)

	f.Apply(defaultLadders(t), 0)
	require.NoError(t, f.HandleFrame(ctx, feedsim.Frame{
		Entered: []feedsim.Item{{ID: "b", Category: "short"}},
		Samples: []viewability.Sample{
			{ItemID: "b", Fraction: 1, At: at},
			{ItemID: "b", Fraction: 0, At: at.Add(time.Millisecond)},
		},
	}))
	assert.Len(t, rc.events, 3)
}

func TestFeeder_LogsCategoryAndProfile(t *testing.T) {
	var buf bytes.Buffer
	log.Reconfigure(log.Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { log.Reconfigure(log.Config{Level: "info"}) })

	f, err := NewFeeder(&recordingCoordinator{}, defaultLadders(t), 0)
	require.NoError(t, err)
	require.NoError(t, f.HandleFrame(context.Background(), feedsim.Frame{
		Entered: []feedsim.Item{{ID: "a", Category: "short"}, {ID: "b", Category: "carousel"}},
	}))

	got := map[string][2]string{}
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &entry))
		if entry[log.FieldEvent] != "feeder.entered" {
			continue
		}
		id, _ := entry[log.FieldItemID].(string)
		cat, _ := entry[log.FieldCategory].(string)
		profile, _ := entry[log.FieldProfile].(string)
		got[id] = [2]string{cat, profile}
	}
	assert.Equal(t, map[string][2]string{
		"a": {"short", config.DefaultProfile},
		"b": {"carousel", "carousel"},
	}, got)
}
