// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

import "errors"

var (
	// ErrCommandFailed classifies a command the player could not carry out.
	ErrCommandFailed = errors.New("player command failed")
	// ErrCommandTimeout classifies a command that was not acknowledged in time.
	ErrCommandTimeout = errors.New("player command timed out")
)

// CommandError carries a typed failure reason for one command.
type CommandError struct {
	Kind   Kind
	Reason string
}

func (e *CommandError) Error() string {
	if e == nil || e.Reason == "" {
		return ErrCommandFailed.Error()
	}
	return string(e.Kind) + ": " + e.Reason
}

func (e *CommandError) Unwrap() error {
	return ErrCommandFailed
}
