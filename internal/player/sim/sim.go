// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package sim provides an in-process Player with configurable latency and
// failure injection, used by the daemon simulation and tests.
package sim

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/feedpool/internal/log"
	"github.com/ManuGH/feedpool/internal/player"
)

// ErrClosed is returned by Dispatch after Close.
var ErrClosed = errors.New("simulated player closed")

type Config struct {
	// Latency delays every ack.
	Latency time.Duration
	// FailEvery makes every Nth prepare fail. Zero disables failures.
	FailEvery int
	// Hang lists command kinds that are accepted but never acknowledged.
	Hang []player.Kind
}

// Player acknowledges commands from timer goroutines.
type Player struct {
	cfg    Config
	logger zerolog.Logger

	mu       sync.Mutex
	closed   bool
	prepares int
	history  []player.Command
	pending  map[string]*time.Timer
}

var _ player.Player = (*Player)(nil)

func New(cfg Config) *Player {
	return &Player{
		cfg:     cfg,
		logger:  log.WithComponent("player.sim"),
		pending: make(map[string]*time.Timer),
	}
}

func (p *Player) Dispatch(ctx context.Context, cmd player.Command, ack player.AckFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.history = append(p.history, cmd)

	var ackErr error
	if cmd.Kind == player.KindPrepare {
		p.prepares++
		if p.cfg.FailEvery > 0 && p.prepares%p.cfg.FailEvery == 0 {
			ackErr = &player.CommandError{Kind: cmd.Kind, Reason: "injected failure"}
		}
	}
	for _, k := range p.cfg.Hang {
		if k == cmd.Kind {
			p.logger.Debug().
				Str(log.FieldCommandID, cmd.ID).
				Str(log.FieldCommand, cmd.Kind.String()).
				Msg("command accepted without ack")
			return nil
		}
	}

	res := player.Ack{CommandID: cmd.ID, ItemID: cmd.ItemID, Kind: cmd.Kind, Err: ackErr}
	p.pending[cmd.ID] = time.AfterFunc(p.cfg.Latency, func() {
		p.mu.Lock()
		_, live := p.pending[cmd.ID]
		delete(p.pending, cmd.ID)
		p.mu.Unlock()
		if live {
			ack(res)
		}
	})
	return nil
}

// History returns every accepted command in dispatch order.
func (p *Player) History() []player.Command {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]player.Command(nil), p.history...)
}

// Pending is the number of acks not yet delivered.
func (p *Player) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Close cancels undelivered acks and rejects further commands.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for id, t := range p.pending {
		t.Stop()
		delete(p.pending, id)
	}
}
