// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package coordinator

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/ManuGH/feedpool/internal/log"
	"github.com/ManuGH/feedpool/internal/metrics"
	"github.com/ManuGH/feedpool/internal/player"
	"github.com/ManuGH/feedpool/internal/pool"
	"github.com/ManuGH/feedpool/internal/viewability"
)

type record struct {
	id       string
	category string
	priority int
	ladder   *viewability.TransitionConfig

	phase        Phase
	band         viewability.Band
	seq          uint64
	fraction     float64
	visibleSince time.Time

	bound  bool
	handle pool.Handle

	// waiting: the last acquire found the pool exhausted.
	waiting bool
	// needsEvent: demoted after a failure; only the item's own next event
	// makes it eligible again.
	needsEvent bool

	cmdID   string
	cmdKind player.Kind
	timer   *time.Timer

	failures int
}

func (c *Coordinator) bands(rec *record) (prepare, play viewability.Band) {
	top := rec.ladder.TopBand()
	prepare = bandAt(c.policy.PrepareBand, top)
	play = bandAt(c.policy.PlayBand, top)
	if play < prepare {
		play = prepare
	}
	return prepare, play
}

func (c *Coordinator) track(item Item) *record {
	category, cat := c.policy.category(item.Category)
	ladder := item.Ladder
	if ladder == nil {
		ladder = c.ladder
	}
	rec := &record{
		id:       item.ID,
		category: category,
		priority: cat.Priority,
		ladder:   ladder,
		phase:    PhaseUntracked,
	}
	c.transition(rec, PhaseTracked, TrEnter)
	c.items[item.ID] = rec
	return rec
}

func (c *Coordinator) enter(item Item) {
	rec, ok := c.items[item.ID]
	if !ok {
		c.track(item)
		return
	}
	category, cat := c.policy.category(item.Category)
	rec.category, rec.priority = category, cat.Priority
	if item.Ladder != nil {
		rec.ladder = item.Ladder
	}
}

// transition moves rec along an edge of the lifecycle table. Illegal moves are
// logged, counted and refused.
func (c *Coordinator) transition(rec *record, to Phase, tr Trigger) bool {
	from := rec.phase
	t, ok := TransitionFor(from, tr)
	if !ok || t.To != to {
		metrics.RecordIllegalTransition(string(from), string(to))
		c.logger.Error().
			Str(log.FieldEvent, "coordinator.illegal_transition").
			Str(log.FieldItemID, rec.id).
			Str(log.FieldOldState, string(from)).
			Str(log.FieldNewState, string(to)).
			Str("trigger", string(tr)).
			Msg("illegal item transition refused")
		return false
	}
	rec.phase = to
	c.logger.Debug().
		Str(log.FieldItemID, rec.id).
		Str(log.FieldOldState, string(from)).
		Str(log.FieldNewState, string(to)).
		Str("trigger", string(tr)).
		Msg("item transition")
	return true
}

func (c *Coordinator) cancelTimer(rec *record) {
	if rec.timer != nil {
		rec.timer.Stop()
		rec.timer = nil
	}
}

// ranked returns the records matching keep, highest priority first, then the
// longest visible, then by id.
func (c *Coordinator) ranked(keep func(*record) bool) []*record {
	out := lo.Filter(lo.Values(c.items), func(r *record, _ int) bool { return keep(r) })
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		if !a.visibleSince.Equal(b.visibleSince) {
			return a.visibleSince.Before(b.visibleSince)
		}
		return a.id < b.id
	})
	return out
}

func sortedIDs(items map[string]*record) []string {
	ids := lo.Keys(items)
	sort.Strings(ids)
	return ids
}
