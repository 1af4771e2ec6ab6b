// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package viewability

import (
	"math"
	"time"
)

// State is the per-item viewability record. It is only advanced through Step.
type State struct {
	ItemID   string    `json:"itemId"`
	Band     Band      `json:"band"`
	Fraction float64   `json:"fraction"`
	Seq      uint64    `json:"seq"`
	At       time.Time `json:"at"`
}

// Event reports a band change for one item. Seq increases by one per emitted
// event of the same item and lets consumers discard reordered deliveries.
type Event struct {
	ItemID   string    `json:"itemId"`
	From     Band      `json:"from"`
	To       Band      `json:"to"`
	Fraction float64   `json:"fraction"`
	Seq      uint64    `json:"seq"`
	At       time.Time `json:"at"`
}

// Rising reports whether the event moved the item to a more visible band.
func (e Event) Rising() bool { return e.To > e.From }

// Sample is one visibility measurement for an item.
type Sample struct {
	ItemID   string    `json:"itemId"`
	Fraction float64   `json:"fraction"`
	At       time.Time `json:"at"`
}

// Clamp maps f into [0,1]; NaN becomes 0.
func Clamp(f float64) float64 {
	switch {
	case math.IsNaN(f), f <= 0:
		return 0
	case f >= 1:
		return 1
	default:
		return f
	}
}

// Step advances cur by one sample. The direction of travel decides which ladder
// applies: a rising fraction can only move the band up against MovingIn, a
// falling fraction can only move it down against MovingOut. A jump across
// several thresholds lands directly on the implied band.
//
// The returned bool is true when the band changed; only then is the Event valid.
func Step(cur State, fraction float64, at time.Time, cfg *TransitionConfig) (State, Event, bool) {
	f := Clamp(fraction)
	next := cur
	next.Fraction = f
	next.At = at

	band := cur.Band
	switch directionOf(cur.Fraction, f) {
	case DirectionIn:
		band = max(cur.Band, cfg.rising(f))
	case DirectionOut:
		band = min(cur.Band, cfg.falling(f))
	}
	if band == cur.Band {
		return next, Event{}, false
	}

	next.Band = band
	next.Seq = cur.Seq + 1
	return next, Event{
		ItemID:   cur.ItemID,
		From:     cur.Band,
		To:       band,
		Fraction: f,
		Seq:      next.Seq,
		At:       at,
	}, true
}
