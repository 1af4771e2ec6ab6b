// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package coordinator

import (
	"time"

	"github.com/samber/lo"

	"github.com/ManuGH/feedpool/internal/admission"
	"github.com/ManuGH/feedpool/internal/player"
	"github.com/ManuGH/feedpool/internal/pool"
)

// NotificationKind classifies a Notification.
type NotificationKind string

const (
	NotifyEvicted  NotificationKind = "evicted"
	NotifyReleased NotificationKind = "released"
	NotifyDemoted  NotificationKind = "demoted"
	NotifyLeft     NotificationKind = "left"
	NotifyReset    NotificationKind = "reset"
)

// Notification is published on TopicNotifications whenever a handle changes
// hands outside of a plain acquire.
type Notification struct {
	Kind   NotificationKind `json:"kind"`
	ItemID string           `json:"itemId,omitempty"`
	Handle pool.Handle      `json:"handle"`
	Reason string           `json:"reason,omitempty"`
	At     time.Time        `json:"at"`
}

// Stats summarizes playback across all tracked items.
type Stats struct {
	Tracked     int        `json:"tracked"`
	Acquiring   int        `json:"acquiring"`
	Paused      int        `json:"paused"`
	Playing     int        `json:"playing"`
	Releasing   int        `json:"releasing"`
	Waiting     int        `json:"waiting"`
	NeedsEvent  int        `json:"needsEvent"`
	StaleEvents uint64     `json:"staleEvents"`
	Failures    uint64     `json:"failures"`
	Evictions   uint64     `json:"evictions"`
	Timeouts    uint64     `json:"timeouts"`
	Pool        pool.Stats `json:"pool"`
}

// ItemSnapshot is the diagnostic view of one record.
type ItemSnapshot struct {
	ItemID       string       `json:"itemId"`
	Category     string       `json:"category,omitempty"`
	Priority     int          `json:"priority"`
	Phase        Phase        `json:"phase"`
	Band         int          `json:"band"`
	BandName     string       `json:"bandName"`
	Fraction     float64      `json:"fraction"`
	Seq          uint64       `json:"seq"`
	Handle       *pool.Handle `json:"handle,omitempty"`
	Waiting      bool         `json:"waiting,omitempty"`
	NeedsEvent   bool         `json:"needsEvent,omitempty"`
	Pending      player.Kind  `json:"pending,omitempty"`
	VisibleSince time.Time    `json:"visibleSince,omitempty"`
	Failures     int          `json:"failures,omitempty"`
}

type Snapshot struct {
	Items   []ItemSnapshot      `json:"items"`
	Playing []admission.Session `json:"playing"`
	Pool    pool.Snapshot       `json:"pool"`
	Stats   Stats               `json:"stats"`
}

func (c *Coordinator) stats() Stats {
	recs := lo.Values(c.items)
	count := func(p Phase) int {
		return lo.CountBy(recs, func(r *record) bool { return r.phase == p })
	}
	return Stats{
		Tracked:     len(recs),
		Acquiring:   count(PhaseAcquiring),
		Paused:      count(PhasePaused),
		Playing:     count(PhasePlaying),
		Releasing:   count(PhaseReleasing),
		Waiting:     lo.CountBy(recs, func(r *record) bool { return r.waiting }),
		NeedsEvent:  lo.CountBy(recs, func(r *record) bool { return r.needsEvent }),
		StaleEvents: c.counters.stale,
		Failures:    c.counters.failures,
		Evictions:   c.counters.evictions,
		Timeouts:    c.counters.timeouts,
		Pool:        c.pool.Stats(),
	}
}

func (c *Coordinator) snapshot() Snapshot {
	recs := lo.Values(c.items)
	items := make([]ItemSnapshot, 0, len(recs))
	for _, id := range sortedIDs(c.items) {
		r := c.items[id]
		is := ItemSnapshot{
			ItemID:       r.id,
			Category:     r.category,
			Priority:     r.priority,
			Phase:        r.phase,
			Band:         int(r.band),
			BandName:     r.ladder.BandName(r.band),
			Fraction:     r.fraction,
			Seq:          r.seq,
			Waiting:      r.waiting,
			NeedsEvent:   r.needsEvent,
			VisibleSince: r.visibleSince,
			Failures:     r.failures,
		}
		if r.bound {
			h := r.handle
			is.Handle = &h
		}
		if r.cmdID != "" {
			is.Pending = r.cmdKind
		}
		items = append(items, is)
	}
	return Snapshot{
		Items:   items,
		Playing: c.admit.Sessions(),
		Pool:    c.pool.Snapshot(),
		Stats:   c.stats(),
	}
}
