// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package feedsim simulates a vertically scrolling feed: item geometry,
// visible fractions, and the tracked window around the viewport.
package feedsim

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidFeed = errors.New("invalid feed geometry")

// Item is one card of the feed.
type Item struct {
	ID       string
	Category string
	Index    int
	Top      float64
	Height   float64
}

// Feed is a fixed list of equally tall items stacked from offset 0.
type Feed struct {
	items    []Item
	viewport float64
	prefetch int
}

// NewFeed lays out n items of the given height. Categories repeat round
// robin; an empty list leaves items uncategorized.
func NewFeed(n int, itemHeight, viewport float64, prefetch int, categories []string) (*Feed, error) {
	if n < 0 || itemHeight <= 0 || viewport <= 0 || prefetch < 0 {
		return nil, fmt.Errorf("%w: items=%d height=%g viewport=%g prefetch=%d",
			ErrInvalidFeed, n, itemHeight, viewport, prefetch)
	}
	f := &Feed{items: make([]Item, n), viewport: viewport, prefetch: prefetch}
	for i := range f.items {
		it := Item{
			ID:     fmt.Sprintf("item-%03d", i),
			Index:  i,
			Top:    float64(i) * itemHeight,
			Height: itemHeight,
		}
		if len(categories) > 0 {
			it.Category = categories[i%len(categories)]
		}
		f.items[i] = it
	}
	return f, nil
}

func (f *Feed) Len() int { return len(f.items) }

func (f *Feed) Item(i int) Item { return f.items[i] }

// Height is the total content height.
func (f *Feed) Height() float64 {
	if len(f.items) == 0 {
		return 0
	}
	last := f.items[len(f.items)-1]
	return last.Top + last.Height
}

// MaxOffset is the largest scroll offset that keeps the viewport filled.
func (f *Feed) MaxOffset() float64 {
	return math.Max(0, f.Height()-f.viewport)
}

// Fraction is the visible share of item i's height at the given offset.
func (f *Feed) Fraction(i int, offset float64) float64 {
	it := f.items[i]
	top := math.Max(it.Top, offset)
	bottom := math.Min(it.Top+it.Height, offset+f.viewport)
	if bottom <= top {
		return 0
	}
	return math.Min(1, (bottom-top)/it.Height)
}

// Visible returns the index range [first, last] of items intersecting the
// viewport, or ok=false for an empty feed.
func (f *Feed) Visible(offset float64) (first, last int, ok bool) {
	if len(f.items) == 0 {
		return 0, 0, false
	}
	h := f.items[0].Height
	first = clampIndex(int(math.Floor(offset/h)), len(f.items))
	// An item ending exactly at the viewport bottom edge is not visible below it.
	last = clampIndex(int(math.Ceil((offset+f.viewport)/h))-1, len(f.items))
	return first, last, true
}

// Window is the tracked range: the visible items plus prefetch items on
// either side.
func (f *Feed) Window(offset float64) (first, last int, ok bool) {
	first, last, ok = f.Visible(offset)
	if !ok {
		return 0, 0, false
	}
	return clampIndex(first-f.prefetch, len(f.items)), clampIndex(last+f.prefetch, len(f.items)), true
}

func clampIndex(i, n int) int {
	return max(0, min(i, n-1))
}
