// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package viewability

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_Throttle(t *testing.T) {
	cfg := MustTransitionConfig([]float64{0.5, 0.9}, []float64{0.1, 0.4})
	tr := NewTracker("a", cfg, 100*time.Millisecond)

	ev, ok := tr.Observe(0.6, t0)
	require.True(t, ok)
	assert.Equal(t, Band(1), ev.To)

	_, ok = tr.Observe(0.95, t0.Add(50*time.Millisecond))
	assert.False(t, ok, "band change inside the throttle window is suppressed")
	st := tr.State()
	assert.Equal(t, Band(1), st.Band)
	assert.Equal(t, 0.6, st.Fraction, "fraction stays at the last applied sample")
	assert.Equal(t, uint64(1), st.Seq)

	ev, ok = tr.Observe(0.97, t0.Add(120*time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, Band(2), ev.To)
	assert.Equal(t, uint64(2), ev.Seq)
}

func TestTracker_ThrottledChangeAppliesOnStationarySample(t *testing.T) {
	cfg := MustTransitionConfig([]float64{0.5, 0.9}, []float64{0.1, 0.4})

	t.Run("rising", func(t *testing.T) {
		tr := NewTracker("a", cfg, 100*time.Millisecond)
		_, ok := tr.Observe(0.6, t0)
		require.True(t, ok)
		_, ok = tr.Observe(0.95, t0.Add(10*time.Millisecond))
		require.False(t, ok)

		ev, ok := tr.Observe(0.95, t0.Add(time.Second))
		require.True(t, ok)
		assert.Equal(t, Band(1), ev.From)
		assert.Equal(t, Band(2), ev.To)
		assert.Equal(t, 0.95, tr.State().Fraction)

		for i := 2; i <= 5; i++ {
			_, ok = tr.Observe(0.95, t0.Add(time.Duration(i)*time.Second))
			assert.False(t, ok)
		}
		assert.Equal(t, Band(2), tr.State().Band)
	})

	t.Run("falling", func(t *testing.T) {
		tr := NewTracker("a", cfg, 100*time.Millisecond)
		_, ok := tr.Observe(0.95, t0)
		require.True(t, ok)
		_, ok = tr.Observe(0.05, t0.Add(10*time.Millisecond))
		require.False(t, ok)
		assert.Equal(t, Band(2), tr.State().Band)

		ev, ok := tr.Observe(0.05, t0.Add(time.Second))
		require.True(t, ok)
		assert.Equal(t, Hidden, ev.To)
		assert.Equal(t, uint64(2), ev.Seq)
	})
}

func TestTracker_NoThrottle(t *testing.T) {
	cfg := MustTransitionConfig([]float64{0.5, 0.9}, []float64{0.1, 0.4})
	tr := NewTracker("a", cfg, 0)

	_, ok := tr.Observe(0.6, t0)
	require.True(t, ok)
	_, ok = tr.Observe(0.95, t0)
	require.True(t, ok)
	assert.Equal(t, cfg.TopBand(), tr.State().Band)
}

func TestTrackerSet_DropsOlderSamples(t *testing.T) {
	cfg := MustTransitionConfig([]float64{0.5}, []float64{0.3})
	ts := NewTrackerSet(cfg, 0)

	_, ok := ts.Observe(Sample{ItemID: "a", Fraction: 0.8, At: t0.Add(time.Second)})
	require.True(t, ok)

	_, ok = ts.Observe(Sample{ItemID: "a", Fraction: 0.0, At: t0})
	assert.False(t, ok)
	assert.Equal(t, uint64(1), ts.Stale())

	st, found := ts.State("a")
	require.True(t, found)
	assert.Equal(t, Band(1), st.Band)
	assert.Equal(t, 0.8, st.Fraction)
}

func TestTrackerSet_ForgetAndSetConfig(t *testing.T) {
	first := MustTransitionConfig([]float64{0.5}, []float64{0.3})
	second := MustTransitionConfig([]float64{0.2, 0.7}, []float64{0.1, 0.5})
	ts := NewTrackerSet(first, 0)

	_, ok := ts.Observe(Sample{ItemID: "a", Fraction: 0.6, At: t0})
	require.True(t, ok)

	ts.SetConfig(second, 0)
	ev, ok := ts.Observe(Sample{ItemID: "a", Fraction: 0.8, At: t0.Add(time.Millisecond)})
	assert.False(t, ok, "existing tracker keeps its ladder: %+v", ev)

	assert.True(t, ts.Forget("a"))
	assert.False(t, ts.Forget("a"))
	assert.Equal(t, 0, ts.Len())

	ev, ok = ts.Observe(Sample{ItemID: "a", Fraction: 0.8, At: t0.Add(2 * time.Millisecond)})
	require.True(t, ok)
	assert.Equal(t, Band(2), ev.To)
	assert.Equal(t, uint64(1), ev.Seq)
}

func TestTrackerSet_ParallelProducers(t *testing.T) {
	cfg := MustTransitionConfig([]float64{0.5}, []float64{0.3})
	ts := NewTrackerSet(cfg, 0)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			id := fmt.Sprintf("item-%d", w)
			for i := 0; i < 200; i++ {
				f := 0.0
				if i%2 == 0 {
					f = 1.0
				}
				ts.Observe(Sample{ItemID: id, Fraction: f, At: t0.Add(time.Duration(i) * time.Millisecond)})
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 8, ts.Len())
	for w := 0; w < 8; w++ {
		st, ok := ts.State(fmt.Sprintf("item-%d", w))
		require.True(t, ok)
		assert.Equal(t, uint64(200), st.Seq)
		assert.Equal(t, Hidden, st.Band)
	}
}
