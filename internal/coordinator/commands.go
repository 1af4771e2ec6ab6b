// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package coordinator

import (
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/feedpool/internal/log"
	"github.com/ManuGH/feedpool/internal/metrics"
	"github.com/ManuGH/feedpool/internal/player"
	"github.com/ManuGH/feedpool/internal/pool"
	"github.com/ManuGH/feedpool/internal/telemetry"
)

// dispatch hands one command to the player and returns its id.
func (c *Coordinator) dispatch(itemID string, kind player.Kind, h pool.Handle) (string, error) {
	cmd := player.Command{
		ID:     uuid.NewString(),
		Kind:   kind,
		ItemID: itemID,
		Handle: h,
	}
	if err := c.player.Dispatch(c.ctx, cmd, c.ack); err != nil {
		metrics.RecordCommand(kind.String(), metrics.CommandRejected)
		return "", fmt.Errorf("dispatch %s for %s: %w", kind, itemID, err)
	}
	c.logger.Trace().
		Str(log.FieldCommandID, cmd.ID).
		Str(log.FieldCommand, kind.String()).
		Str(log.FieldItemID, itemID).
		Int(log.FieldHandle, int(h)).
		Msg("command dispatched")
	return cmd.ID, nil
}

func (c *Coordinator) handleAck(a player.Ack) {
	_, span := c.tracer.Start(c.ctx, "coordinator.ack",
		trace.WithAttributes(telemetry.CommandAttributes(a.Kind.String(), a.CommandID)...))
	defer span.End()

	result := metrics.CommandOK
	if a.Err != nil {
		result = metrics.CommandFailed
		span.SetAttributes(telemetry.ErrorAttributes(a.Err, "command_failed")...)
	}
	metrics.RecordCommand(a.Kind.String(), result)

	rec, ok := c.items[a.ItemID]
	if !ok || rec.cmdID == "" || rec.cmdID != a.CommandID {
		c.logger.Debug().
			Str(log.FieldCommandID, a.CommandID).
			Str(log.FieldItemID, a.ItemID).
			Str(log.FieldCommand, a.Kind.String()).
			Msg("superseded ack ignored")
		return
	}
	rec.cmdID = ""
	if a.Kind == player.KindPrepare {
		c.cancelTimer(rec)
	}

	if a.Err != nil {
		if a.Kind == player.KindStop || rec.phase == PhaseTracked {
			c.logger.Warn().Err(a.Err).
				Str(log.FieldItemID, rec.id).
				Str(log.FieldCommand, a.Kind.String()).
				Msg("command failed")
			// The handle is already back in the pool; a failed stop still ends the release.
			if rec.phase == PhaseReleasing {
				c.transition(rec, PhaseTracked, TrReleased)
			}
			return
		}
		c.fail(rec, fmt.Errorf("%s ack: %w", a.Kind, a.Err))
		return
	}

	switch a.Kind {
	case player.KindPrepare:
		if rec.phase != PhaseAcquiring {
			return
		}
		c.transition(rec, PhasePaused, TrPrepared)
		_ = c.pool.SetStatus(rec.id, pool.StatusPaused)
		if _, play := c.bands(rec); rec.band >= play {
			c.tryPlay(rec)
		}
	case player.KindPause, player.KindStop:
		if rec.phase == PhaseReleasing {
			c.transition(rec, PhaseTracked, TrReleased)
		}
	}
}

func (c *Coordinator) handleTimeout(m timeoutMsg) {
	rec, ok := c.items[m.itemID]
	if !ok || rec.cmdID != m.cmdID || rec.phase != PhaseAcquiring {
		return
	}
	rec.timer = nil
	c.counters.timeouts++
	metrics.RecordCommand(player.KindPrepare.String(), metrics.CommandTimeout)

	if _, err := c.dispatch(rec.id, player.KindStop, rec.handle); err != nil {
		c.logger.Warn().Err(err).Str(log.FieldItemID, rec.id).Msg("stop after prepare timeout not accepted")
	}
	c.fail(rec, fmt.Errorf("prepare %s after %s: %w", m.cmdID, c.policy.PrepareTimeout, player.ErrCommandTimeout))
}

// fail demotes rec to Tracked and frees its handle. The item is re-acquired only
// after its own next viewability event.
func (c *Coordinator) fail(rec *record, err error) {
	c.counters.failures++
	rec.failures++
	c.cancelTimer(rec)
	wasPlaying := c.admit.TrackEnd(rec.id)

	h := rec.handle
	freed := false
	if rec.bound {
		c.pool.Release(rec.id)
		rec.bound = false
		freed = true
	}
	if rec.phase != PhaseTracked {
		c.transition(rec, PhaseTracked, TrFailed)
	}
	rec.needsEvent = true
	rec.waiting = false
	rec.cmdID = ""

	c.logger.Warn().Err(err).
		Str(log.FieldEvent, "coordinator.demoted").
		Str(log.FieldItemID, rec.id).
		Int(log.FieldHandle, int(h)).
		Int("failures", rec.failures).
		Msg("item demoted after failure")
	c.notify(NotifyDemoted, rec.id, h, err.Error())

	if freed || wasPlaying {
		c.dirty = true
	}
}
