// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package feedsim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testFeed(t *testing.T) *Feed {
	t.Helper()
	f, err := NewFeed(10, 100, 150, 1, []string{"short", "merch"})
	require.NoError(t, err)
	return f
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestNewFeed(t *testing.T) {
	f := testFeed(t)
	assert.Equal(t, 10, f.Len())
	assert.Equal(t, 1000.0, f.Height())
	assert.Equal(t, 850.0, f.MaxOffset())
	assert.Equal(t, "item-003", f.Item(3).ID)
	assert.Equal(t, "merch", f.Item(3).Category)
	assert.Equal(t, "short", f.Item(4).Category)
	assert.Equal(t, 300.0, f.Item(3).Top)

	_, err := NewFeed(3, 0, 100, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidFeed)
	_, err = NewFeed(3, 100, 100, -1, nil)
	assert.ErrorIs(t, err, ErrInvalidFeed)
}

func TestFraction(t *testing.T) {
	f := testFeed(t)
	tests := []struct {
		item   int
		offset float64
		want   float64
	}{
		{0, 0, 1},
		{1, 0, 0.5},
		{2, 0, 0},
		{0, 100, 0},
		{2, 250, 0.5},
		{3, 250, 1},
		{4, 250, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, f.Fraction(tt.item, tt.offset), 1e-9, "item %d at %g", tt.item, tt.offset)
	}

	short, err := NewFeed(1, 400, 100, 0, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, short.Fraction(0, 0), 1e-9)
}

func TestWindow(t *testing.T) {
	f := testFeed(t)

	first, last, ok := f.Visible(0)
	require.True(t, ok)
	assert.Equal(t, []int{0, 1}, []int{first, last})

	first, last, _ = f.Window(0)
	assert.Equal(t, []int{0, 2}, []int{first, last})

	first, last, _ = f.Window(250)
	assert.Equal(t, []int{1, 4}, []int{first, last})

	first, last, _ = f.Window(850)
	assert.Equal(t, []int{7, 9}, []int{first, last})

	empty, err := NewFeed(0, 100, 100, 1, nil)
	require.NoError(t, err)
	_, _, ok = empty.Window(0)
	assert.False(t, ok)
}

func TestScroller_Seek(t *testing.T) {
	s := NewScroller(testFeed(t), 100)
	at := time.Unix(100, 0)

	fr := s.Seek(0, at)
	assert.Equal(t, []string{"item-000", "item-001", "item-002"}, ids(fr.Entered))
	assert.Empty(t, fr.Left)
	require.Len(t, fr.Samples, 3)
	assert.Equal(t, 1.0, fr.Samples[0].Fraction)
	assert.Equal(t, at, fr.Samples[0].At)

	fr = s.Seek(250, at)
	assert.Equal(t, []string{"item-003", "item-004"}, ids(fr.Entered))
	assert.Equal(t, []string{"item-000"}, fr.Left)
	require.Len(t, fr.Samples, 4)
	assert.Equal(t, "item-001", fr.Samples[0].ItemID)
	assert.InDelta(t, 0.5, fr.Samples[1].Fraction, 1e-9)

	fr = s.Seek(250, at)
	assert.Empty(t, fr.Entered)
	assert.Empty(t, fr.Left)
	assert.Len(t, fr.Samples, 4)

	fr = s.Seek(5000, at)
	assert.Equal(t, 850.0, fr.Offset)
}

func TestScroller_AdvanceBounces(t *testing.T) {
	s := NewScroller(testFeed(t), 100)
	at := time.Now()

	var offsets []float64
	for range 10 {
		offsets = append(offsets, s.Advance(at).Offset)
	}
	assert.Equal(t, []float64{100, 200, 300, 400, 500, 600, 700, 800, 850, 750}, offsets)

	for s.Offset() > 0 {
		s.Advance(at)
	}
	assert.Equal(t, 100.0, s.Advance(at).Offset)
}

func TestScroller_Run(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewScroller(testFeed(t), 50)
	ctx, cancel := context.WithCancel(context.Background())

	var frames []Frame
	err := s.Run(ctx, time.Millisecond, func(_ context.Context, fr Frame) error {
		frames = append(frames, fr)
		if len(frames) == 3 {
			cancel()
		}
		return nil
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(frames), 3)
	assert.Equal(t, 0.0, frames[0].Offset)
	assert.Equal(t, 50.0, frames[1].Offset)
	assert.Len(t, frames[0].Entered, 3)

	boom := errors.New("boom")
	err = NewScroller(testFeed(t), 50).Run(context.Background(), time.Millisecond, func(context.Context, Frame) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}
