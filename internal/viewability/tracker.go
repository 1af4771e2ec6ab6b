// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package viewability

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ManuGH/feedpool/internal/metrics"
)

// Tracker holds the state of one item. It is not safe for concurrent use; see
// TrackerSet.
type Tracker struct {
	cfg     *TransitionConfig
	state   State
	limiter *rate.Limiter
}

// NewTracker starts an item in the hidden band. A positive throttle suppresses
// band changes that arrive sooner than throttle after the previous emitted
// event, measured on sample timestamps.
func NewTracker(itemID string, cfg *TransitionConfig, throttle time.Duration) *Tracker {
	t := &Tracker{
		cfg:   cfg,
		state: State{ItemID: itemID, Band: Hidden},
	}
	if throttle > 0 {
		t.limiter = rate.NewLimiter(rate.Every(throttle), 1)
	}
	return t
}

// Observe applies one sample. A suppressed band change only advances the
// timestamp: band, sequence and fraction stay at the last applied sample so the
// same change is retried by the next sample, even a stationary one.
func (t *Tracker) Observe(fraction float64, at time.Time) (Event, bool) {
	next, ev, changed := Step(t.state, fraction, at, t.cfg)
	if !changed {
		t.state = next
		return Event{}, false
	}
	if t.limiter != nil && !t.limiter.AllowN(at, 1) {
		t.state.At = next.At
		metrics.RecordViewabilityThrottled()
		return Event{}, false
	}
	t.state = next
	metrics.RecordViewabilityEvent(ev.Rising())
	return ev, true
}

// State returns a copy of the current record.
func (t *Tracker) State() State { return t.state }

// Config returns the ladder this tracker was created with.
func (t *Tracker) Config() *TransitionConfig { return t.cfg }

// TrackerSet keys trackers by item id. Observe may be called from any goroutine.
type TrackerSet struct {
	mu       sync.Mutex
	cfg      *TransitionConfig
	throttle time.Duration
	trackers map[string]*Tracker
	stale    uint64
}

func NewTrackerSet(cfg *TransitionConfig, throttle time.Duration) *TrackerSet {
	return &TrackerSet{
		cfg:      cfg,
		throttle: throttle,
		trackers: make(map[string]*Tracker),
	}
}

// Observe routes s to the item's tracker, creating it on first sight. Samples
// older than the item's last sample are dropped.
func (ts *TrackerSet) Observe(s Sample) (Event, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	t, ok := ts.trackers[s.ItemID]
	if !ok {
		t = NewTracker(s.ItemID, ts.cfg, ts.throttle)
		ts.trackers[s.ItemID] = t
	} else if s.At.Before(t.state.At) {
		ts.stale++
		return Event{}, false
	}
	return t.Observe(s.Fraction, s.At)
}

// Forget drops the item's record. It reports whether one existed.
func (ts *TrackerSet) Forget(itemID string) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if _, ok := ts.trackers[itemID]; !ok {
		return false
	}
	delete(ts.trackers, itemID)
	return true
}

// SetConfig swaps the ladder and throttle used for trackers created from now on.
// Existing trackers keep their config until forgotten.
func (ts *TrackerSet) SetConfig(cfg *TransitionConfig, throttle time.Duration) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.cfg = cfg
	ts.throttle = throttle
}

// State returns the item's record, if tracked.
func (ts *TrackerSet) State(itemID string) (State, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t, ok := ts.trackers[itemID]
	if !ok {
		return State{}, false
	}
	return t.state, true
}

// Len is the number of tracked items.
func (ts *TrackerSet) Len() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.trackers)
}

// Stale is the number of out-of-order samples dropped so far.
func (ts *TrackerSet) Stale() uint64 {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.stale
}
