// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package coordinator

import (
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/feedpool/internal/admission"
	"github.com/ManuGH/feedpool/internal/log"
	"github.com/ManuGH/feedpool/internal/metrics"
	"github.com/ManuGH/feedpool/internal/player"
	"github.com/ManuGH/feedpool/internal/pool"
	"github.com/ManuGH/feedpool/internal/telemetry"
	"github.com/ManuGH/feedpool/internal/viewability"
)

const resultNone = "none"

func (c *Coordinator) applyEvent(ev viewability.Event) error {
	rec, ok := c.items[ev.ItemID]
	if !ok {
		if ev.ItemID == "" {
			return pool.ErrEmptyItem
		}
		rec = c.track(Item{ID: ev.ItemID})
	}
	if ev.Seq <= rec.seq {
		c.counters.stale++
		metrics.RecordStaleEvent()
		return fmt.Errorf("%w: item %s seq %d, last applied %d", ErrStaleEvent, ev.ItemID, ev.Seq, rec.seq)
	}

	band := min(ev.To, rec.ladder.TopBand())
	_, span := c.tracer.Start(c.ctx, "coordinator.apply",
		trace.WithAttributes(telemetry.BandAttributes(
			rec.id, rec.ladder.BandName(rec.band), rec.ladder.BandName(band), ev.Seq)...),
	)
	defer span.End()

	if rec.band == viewability.Hidden && band > viewability.Hidden {
		rec.visibleSince = ev.At
	}
	if band == viewability.Hidden {
		rec.visibleSince = time.Time{}
	}
	c.logger.Debug().
		Str(log.FieldItemID, rec.id).
		Str(log.FieldOldBand, rec.ladder.BandName(rec.band)).
		Str(log.FieldNewBand, rec.ladder.BandName(band)).
		Int(log.FieldBand, int(band)).
		Float64(log.FieldFraction, ev.Fraction).
		Uint64(log.FieldSeq, ev.Seq).
		Msg("band applied")
	rec.seq = ev.Seq
	rec.band = band
	rec.fraction = ev.Fraction
	rec.needsEvent = false

	result := c.reconcile(rec)
	handle := -1
	if rec.bound {
		handle = int(rec.handle)
	}
	span.SetAttributes(telemetry.PoolAttributes(result, handle, "")...)
	return nil
}

// reconcile brings rec's phase in line with its band.
func (c *Coordinator) reconcile(rec *record) string {
	prepare, play := c.bands(rec)
	switch rec.phase {
	case PhaseTracked:
		if rec.band < prepare {
			rec.waiting = false
			return resultNone
		}
		if rec.needsEvent {
			return resultNone
		}
		return c.acquire(rec)
	case PhaseReleasing:
		if rec.band >= prepare && !rec.needsEvent {
			return c.acquire(rec)
		}
		if rec.band < prepare {
			rec.waiting = false
		}
	case PhaseAcquiring:
		if rec.band < prepare {
			c.release(rec, "hidden")
			return "released"
		}
	case PhasePaused:
		if rec.band < prepare {
			c.release(rec, "hidden")
			return "released"
		}
		if rec.band >= play {
			c.tryPlay(rec)
		}
	case PhasePlaying:
		if rec.band < prepare {
			c.release(rec, "hidden")
			return "released"
		}
		if rec.band < play {
			if c.pause(rec) {
				c.dirty = true
			}
		}
	}
	return resultNone
}

func (c *Coordinator) acquire(rec *record) string {
	ref, ev, err := c.pool.Acquire(rec.id, rec.priority, rec.visibleSince)
	if err != nil {
		if errors.Is(err, pool.ErrPoolExhausted) {
			rec.waiting = true
			c.logger.Debug().
				Str(log.FieldItemID, rec.id).
				Int(log.FieldPriority, rec.priority).
				Err(err).
				Msg("pool exhausted, item waiting")
			telemetry.RecordDecision(c.ctx, telemetry.DecisionAcquire, metrics.AcquireExhausted)
			return metrics.AcquireExhausted
		}
		c.logger.Error().Err(err).Str(log.FieldItemID, rec.id).Msg("acquire failed")
		return "error"
	}

	result := metrics.AcquireBound
	if ev != nil {
		c.evict(*ev, rec.id)
		result = metrics.AcquireEvicted
	}
	telemetry.RecordDecision(c.ctx, telemetry.DecisionAcquire, result)
	c.cancelTimer(rec)
	c.transition(rec, PhaseAcquiring, TrAcquired)
	rec.bound, rec.handle, rec.waiting = true, ref.Handle, false
	_ = c.pool.SetStatus(rec.id, pool.StatusPreparing)

	c.logger.Debug().
		Str(log.FieldEvent, "pool.acquired").
		Str(log.FieldItemID, rec.id).
		Int(log.FieldHandle, int(ref.Handle)).
		Int(log.FieldFree, c.pool.Free()).
		Str("result", result).
		Msg("handle acquired")

	id, err := c.dispatch(rec.id, player.KindPrepare, ref.Handle)
	if err != nil {
		c.fail(rec, err)
		return result
	}
	rec.cmdID, rec.cmdKind = id, player.KindPrepare
	itemID, timeout := rec.id, c.policy.PrepareTimeout
	rec.timer = time.AfterFunc(timeout, func() {
		c.post(timeoutMsg{itemID: itemID, cmdID: id})
	})
	return result
}

// evict demotes the victim of a reclaimed handle. The victim keeps waiting for a
// free handle.
func (c *Coordinator) evict(ev pool.Eviction, by string) {
	c.counters.evictions++
	v, ok := c.items[ev.ItemID]
	if !ok {
		return
	}
	c.cancelTimer(v)
	if c.admit.TrackEnd(v.id) {
		c.dirty = true
	}
	v.bound = false
	v.cmdID = ""
	c.transition(v, PhaseTracked, TrEvicted)
	v.waiting = true

	c.logger.Info().
		Str(log.FieldEvent, "pool.evicted").
		Str(log.FieldItemID, by).
		Str(log.FieldVictim, v.id).
		Int(log.FieldHandle, int(ev.Handle)).
		Int(log.FieldPriority, ev.Priority).
		Msg("handle reclaimed")

	if _, err := c.dispatch(v.id, player.KindStop, ev.Handle); err != nil {
		c.logger.Warn().Err(err).Str(log.FieldItemID, v.id).Msg("stop after eviction not accepted")
	}
	c.notify(NotifyEvicted, v.id, ev.Handle, "preempted by "+by)
}

// release returns rec's handle because its band fell below the prepare band.
func (c *Coordinator) release(rec *record, reason string) {
	kind := player.KindPause
	if rec.phase == PhaseAcquiring {
		kind = player.KindStop
	}
	c.cancelTimer(rec)
	c.admit.TrackEnd(rec.id)
	h := rec.handle
	c.pool.Release(rec.id)
	rec.bound = false
	rec.cmdID = ""
	c.transition(rec, PhaseReleasing, TrRelease)
	c.dirty = true

	c.logger.Debug().
		Str(log.FieldEvent, "pool.released").
		Str(log.FieldItemID, rec.id).
		Int(log.FieldHandle, int(h)).
		Int(log.FieldFree, c.pool.Free()).
		Msg("handle released")
	c.notify(NotifyReleased, rec.id, h, reason)

	id, err := c.dispatch(rec.id, kind, h)
	if err != nil {
		c.fail(rec, err)
		return
	}
	rec.cmdID, rec.cmdKind = id, kind
}

// tryPlay starts rec if play admission allows it, pausing a strictly lower
// priority item to make room when needed.
func (c *Coordinator) tryPlay(rec *record) {
	d := c.admit.Check(admission.Request{ItemID: rec.id, Category: rec.category, Priority: rec.priority})
	telemetry.RecordDecision(c.ctx, telemetry.DecisionAdmission, string(d.Reason))
	if !d.Allow {
		c.logger.Debug().
			Str(log.FieldItemID, rec.id).
			Str("reason", string(d.Reason)).
			Msg("play deferred")
		return
	}
	if d.Victim != "" {
		if v, ok := c.items[d.Victim]; ok && v.phase == PhasePlaying {
			c.logger.Debug().
				Str(log.FieldItemID, rec.id).
				Str(log.FieldVictim, v.id).
				Msg("pausing lower priority item to make room")
			c.pause(v)
		}
	}

	id, err := c.dispatch(rec.id, player.KindPlay, rec.handle)
	if err != nil {
		c.fail(rec, err)
		return
	}
	rec.cmdID, rec.cmdKind = id, player.KindPlay
	c.transition(rec, PhasePlaying, TrPlay)
	c.admit.TrackStart(admission.Session{
		ItemID:   rec.id,
		Category: rec.category,
		Priority: rec.priority,
		Since:    c.now(),
	})
	_ = c.pool.SetStatus(rec.id, pool.StatusPlaying)
}

// pause stops playback but keeps the handle. It reports whether the item left
// the playing set.
func (c *Coordinator) pause(rec *record) bool {
	id, err := c.dispatch(rec.id, player.KindPause, rec.handle)
	if err != nil {
		c.fail(rec, err)
		return true
	}
	rec.cmdID, rec.cmdKind = id, player.KindPause
	c.admit.TrackEnd(rec.id)
	c.transition(rec, PhasePaused, TrPause)
	_ = c.pool.SetStatus(rec.id, pool.StatusPaused)
	return true
}

// settle retries waiting items and promotes paused ones after a handle or a
// playing slot was freed. Each round that sets dirty again demoted an item
// for good, so the loop ends.
func (c *Coordinator) settle() {
	for c.dirty {
		c.dirty = false
		c.retryWaiting()
		c.promote()
	}
}

func (c *Coordinator) retryWaiting() {
	candidates := c.ranked(func(r *record) bool {
		prepare, _ := c.bands(r)
		return r.waiting && !r.needsEvent && !r.bound && r.band >= prepare &&
			(r.phase == PhaseTracked || r.phase == PhaseReleasing)
	})
	for _, r := range candidates {
		if c.pool.Free() == 0 {
			return
		}
		if !r.waiting || r.bound {
			continue
		}
		c.acquire(r)
	}
}

func (c *Coordinator) promote() {
	candidates := c.ranked(func(r *record) bool {
		_, play := c.bands(r)
		return r.phase == PhasePaused && r.band >= play
	})
	for _, r := range candidates {
		if r.phase == PhasePaused {
			c.tryPlay(r)
		}
	}
}

func (c *Coordinator) leave(itemID string) {
	rec, ok := c.items[itemID]
	if !ok {
		return
	}
	c.cancelTimer(rec)
	if c.admit.TrackEnd(itemID) {
		c.dirty = true
	}
	if rec.bound {
		h := rec.handle
		c.pool.Release(itemID)
		rec.bound = false
		c.dirty = true
		if _, err := c.dispatch(itemID, player.KindStop, h); err != nil {
			c.logger.Warn().Err(err).Str(log.FieldItemID, itemID).Msg("stop on leave not accepted")
		}
		c.notify(NotifyLeft, itemID, h, "left window")
	}
	c.transition(rec, PhaseUntracked, TrLeave)
	delete(c.items, itemID)
}

func (c *Coordinator) reset() int {
	for _, rec := range c.ranked(func(*record) bool { return true }) {
		c.cancelTimer(rec)
		if rec.bound {
			if _, err := c.dispatch(rec.id, player.KindStop, rec.handle); err != nil {
				c.logger.Warn().Err(err).Str(log.FieldItemID, rec.id).Msg("stop on reset not accepted")
			}
		}
		c.transition(rec, PhaseUntracked, TrReset)
	}
	evicted := c.pool.Reset()
	c.admit.Reset()
	clear(c.items)
	c.dirty = false

	c.logger.Info().
		Str(log.FieldEvent, "coordinator.reset").
		Int("released", len(evicted)).
		Msg("all playback cleared")
	c.notify(NotifyReset, "", -1, "reset")
	return len(evicted)
}
