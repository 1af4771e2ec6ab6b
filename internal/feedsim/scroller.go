// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package feedsim

import (
	"context"
	"math"
	"time"

	"github.com/ManuGH/feedpool/internal/viewability"
)

// Frame is what changed after one scroll step.
type Frame struct {
	At      time.Time
	Offset  float64
	Entered []Item
	Left    []string
	// Samples carry the fraction of every tracked item, entered ones included.
	Samples []viewability.Sample
}

// Scroller moves the viewport over a Feed and reports tracked-window changes.
// It bounces between the top and the bottom of the feed.
type Scroller struct {
	feed    *Feed
	step    float64
	offset  float64
	dir     float64
	tracked map[int]bool
}

func NewScroller(feed *Feed, step float64) *Scroller {
	return &Scroller{feed: feed, step: math.Abs(step), dir: 1, tracked: make(map[int]bool)}
}

func (s *Scroller) Offset() float64 { return s.offset }

// Advance scrolls one step and returns the resulting frame.
func (s *Scroller) Advance(at time.Time) Frame {
	next := s.offset + s.dir*s.step
	maxOff := s.feed.MaxOffset()
	if next > maxOff {
		next, s.dir = maxOff, -1
	}
	if next < 0 {
		next, s.dir = 0, 1
	}
	return s.Seek(next, at)
}

// Seek jumps to offset, clamped to the feed.
func (s *Scroller) Seek(offset float64, at time.Time) Frame {
	s.offset = math.Max(0, math.Min(offset, s.feed.MaxOffset()))
	fr := Frame{At: at, Offset: s.offset}

	first, last, ok := s.feed.Window(s.offset)
	inWindow := func(i int) bool { return ok && i >= first && i <= last }

	for i := 0; i < s.feed.Len(); i++ {
		if s.tracked[i] && !inWindow(i) {
			delete(s.tracked, i)
			fr.Left = append(fr.Left, s.feed.Item(i).ID)
		}
	}
	if !ok {
		return fr
	}
	for i := first; i <= last; i++ {
		if !s.tracked[i] {
			s.tracked[i] = true
			fr.Entered = append(fr.Entered, s.feed.Item(i))
		}
		fr.Samples = append(fr.Samples, viewability.Sample{
			ItemID:   s.feed.Item(i).ID,
			Fraction: s.feed.Fraction(i, s.offset),
			At:       at,
		})
	}
	return fr
}

// Run advances every tick until ctx is done or handle fails.
func (s *Scroller) Run(ctx context.Context, tick time.Duration, handle func(context.Context, Frame) error) error {
	if err := handle(ctx, s.Seek(s.offset, time.Now())); err != nil {
		return err
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-t.C:
			if err := handle(ctx, s.Advance(now)); err != nil {
				return err
			}
		}
	}
}
