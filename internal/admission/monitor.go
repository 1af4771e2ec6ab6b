// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package admission decides which prepared items may play at the same time.
package admission

import (
	"sort"
	"time"

	"github.com/ManuGH/feedpool/internal/metrics"
)

// Reason is the lowercase outcome label of a play admission check.
type Reason string

const (
	ReasonAdmitted     Reason = "admitted"
	ReasonAlready      Reason = "already_playing"
	ReasonPreempt      Reason = "preempt"
	ReasonMaxPlaying   Reason = "max_playing"
	ReasonCategoryFull Reason = "category_full"
	ReasonDisabled     Reason = "disabled"
)

// Limits bounds concurrent playback. A category absent from Categories, or with
// a limit of zero, is bounded only by MaxPlaying.
type Limits struct {
	MaxPlaying int
	Categories map[string]int
}

type Request struct {
	ItemID   string
	Category string
	Priority int
}

// Session is one playing item.
type Session struct {
	ItemID   string    `json:"itemId"`
	Category string    `json:"category"`
	Priority int       `json:"priority"`
	Since    time.Time `json:"since"`
}

// Decision is the outcome of Check. When Victim is set the caller must stop the
// victim before starting the requester.
type Decision struct {
	Allow  bool
	Reason Reason
	Victim string
}

// Monitor tracks playing sessions. It is owned by the coordinator loop and is
// not safe for concurrent use.
type Monitor struct {
	limits  Limits
	playing map[string]Session
}

func NewMonitor(limits Limits) *Monitor {
	if limits.MaxPlaying < 0 {
		limits.MaxPlaying = 0
	}
	return &Monitor{limits: limits, playing: make(map[string]Session)}
}

// Check evaluates req against the current sessions.
//
// Rules, in order:
//  1. MaxPlaying of zero rejects everything.
//  2. An item already playing is admitted without side effects.
//  3. A full category admits only by preempting a strictly lower priority
//     session of the same category.
//  4. A full pool of playing slots admits only by preempting a strictly lower
//     priority session of any category.
func (m *Monitor) Check(req Request) Decision {
	d := m.check(req)
	metrics.RecordAdmission(string(d.Reason))
	return d
}

func (m *Monitor) check(req Request) Decision {
	if m.limits.MaxPlaying == 0 {
		return Decision{Reason: ReasonDisabled}
	}
	if _, ok := m.playing[req.ItemID]; ok {
		return Decision{Allow: true, Reason: ReasonAlready}
	}

	if limit := m.limits.Categories[req.Category]; limit > 0 && m.CountCategory(req.Category) >= limit {
		victim, ok := m.SelectPreemptionTarget(req.Priority, req.Category)
		if !ok {
			return Decision{Reason: ReasonCategoryFull}
		}
		return Decision{Allow: true, Reason: ReasonPreempt, Victim: victim}
	}

	if len(m.playing) >= m.limits.MaxPlaying {
		victim, ok := m.SelectPreemptionTarget(req.Priority, "")
		if !ok {
			return Decision{Reason: ReasonMaxPlaying}
		}
		return Decision{Allow: true, Reason: ReasonPreempt, Victim: victim}
	}

	return Decision{Allow: true, Reason: ReasonAdmitted}
}

// SelectPreemptionTarget returns the lowest priority session below p, the
// oldest one first. An empty category matches every session.
func (m *Monitor) SelectPreemptionTarget(p int, category string) (string, bool) {
	var (
		best  Session
		found bool
	)
	for _, s := range m.playing {
		if s.Priority >= p || (category != "" && s.Category != category) {
			continue
		}
		if !found || lessPreemptible(s, best) {
			best, found = s, true
		}
	}
	return best.ItemID, found
}

func lessPreemptible(a, b Session) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if !a.Since.Equal(b.Since) {
		return a.Since.Before(b.Since)
	}
	return a.ItemID < b.ItemID
}

// TrackStart records a playing session. Starting a playing item refreshes it.
func (m *Monitor) TrackStart(s Session) {
	m.playing[s.ItemID] = s
	metrics.SetPlaying(len(m.playing))
}

// TrackEnd forgets a session. It reports whether the item was playing.
func (m *Monitor) TrackEnd(itemID string) bool {
	if _, ok := m.playing[itemID]; !ok {
		return false
	}
	delete(m.playing, itemID)
	metrics.SetPlaying(len(m.playing))
	return true
}

func (m *Monitor) IsPlaying(itemID string) bool {
	_, ok := m.playing[itemID]
	return ok
}

func (m *Monitor) Count() int { return len(m.playing) }

func (m *Monitor) CountCategory(category string) int {
	n := 0
	for _, s := range m.playing {
		if s.Category == category {
			n++
		}
	}
	return n
}

// Sessions returns the playing sessions sorted by item id.
func (m *Monitor) Sessions() []Session {
	out := make([]Session, 0, len(m.playing))
	for _, s := range m.playing {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

// Reset forgets every session.
func (m *Monitor) Reset() {
	clear(m.playing)
	metrics.SetPlaying(0)
}

// Limits returns the configured limits.
func (m *Monitor) Limits() Limits { return m.limits }
