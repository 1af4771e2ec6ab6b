// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package player defines the contract between the coordinator and the
// component that actually decodes and renders video.
package player

import (
	"context"

	"github.com/ManuGH/feedpool/internal/pool"
)

// Kind names a player command.
type Kind string

const (
	KindPrepare Kind = "prepare"
	KindPlay    Kind = "play"
	KindPause   Kind = "pause"
	KindStop    Kind = "stop"
)

func (k Kind) String() string { return string(k) }

// Command addresses one handle. ID is unique per dispatch and is echoed in the Ack.
type Command struct {
	ID     string      `json:"id"`
	Kind   Kind        `json:"kind"`
	ItemID string      `json:"itemId"`
	Handle pool.Handle `json:"handle"`
}

// Ack reports the outcome of a command. A nil Err means success.
type Ack struct {
	CommandID string `json:"commandId"`
	ItemID    string `json:"itemId"`
	Kind      Kind   `json:"kind"`
	Err       error  `json:"-"`
}

// AckFunc receives command outcomes. It may block until the receiver accepts
// the ack, so implementations must not call it before Dispatch has returned
// and never from the goroutine that called Dispatch.
type AckFunc func(Ack)

// Player executes commands against real or simulated players.
//
// Dispatch must return without waiting for the command to complete. A non-nil
// error means the command was not accepted and ack will not be called for it.
type Player interface {
	Dispatch(ctx context.Context, cmd Command, ack AckFunc) error
}
