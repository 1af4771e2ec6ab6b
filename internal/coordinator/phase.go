// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package coordinator

// Phase is the lifecycle position of one tracked item.
type Phase string

const (
	PhaseUntracked Phase = "untracked"
	PhaseTracked   Phase = "tracked"
	PhaseAcquiring Phase = "acquiring"
	PhasePaused    Phase = "paused"
	PhasePlaying   Phase = "playing"
	PhaseReleasing Phase = "releasing"
)

// Active reports whether the item holds a prepared handle.
func (p Phase) Active() bool {
	return p == PhasePaused || p == PhasePlaying
}

// Trigger names what caused a phase change.
type Trigger string

const (
	TrEnter    Trigger = "enter"
	TrAcquired Trigger = "acquired"
	TrPrepared Trigger = "prepared"
	TrPlay     Trigger = "play"
	TrPause    Trigger = "pause"
	TrRelease  Trigger = "release"
	TrReleased Trigger = "released"
	TrEvicted  Trigger = "evicted"
	TrFailed   Trigger = "failed"
	TrLeave    Trigger = "leave"
	TrReset    Trigger = "reset"
)

// Transition is a single allowed edge of the item lifecycle.
type Transition struct {
	From    Phase
	To      Phase
	Trigger Trigger
}

var transitionsTable = []Transition{
	{From: PhaseUntracked, To: PhaseTracked, Trigger: TrEnter},

	// Acquire path
	{From: PhaseTracked, To: PhaseAcquiring, Trigger: TrAcquired},
	{From: PhaseReleasing, To: PhaseAcquiring, Trigger: TrAcquired},
	{From: PhaseAcquiring, To: PhasePaused, Trigger: TrPrepared},

	// Playback
	{From: PhasePaused, To: PhasePlaying, Trigger: TrPlay},
	{From: PhasePlaying, To: PhasePaused, Trigger: TrPause},

	// Release path
	{From: PhaseAcquiring, To: PhaseReleasing, Trigger: TrRelease},
	{From: PhasePaused, To: PhaseReleasing, Trigger: TrRelease},
	{From: PhasePlaying, To: PhaseReleasing, Trigger: TrRelease},
	{From: PhaseReleasing, To: PhaseTracked, Trigger: TrReleased},

	// Handle reclaimed for a higher priority item
	{From: PhaseAcquiring, To: PhaseTracked, Trigger: TrEvicted},
	{From: PhasePaused, To: PhaseTracked, Trigger: TrEvicted},
	{From: PhasePlaying, To: PhaseTracked, Trigger: TrEvicted},

	// Demotion on command failure or prepare timeout
	{From: PhaseAcquiring, To: PhaseTracked, Trigger: TrFailed},
	{From: PhasePaused, To: PhaseTracked, Trigger: TrFailed},
	{From: PhasePlaying, To: PhaseTracked, Trigger: TrFailed},
	{From: PhaseReleasing, To: PhaseTracked, Trigger: TrFailed},

	// Leaving the tracked window
	{From: PhaseTracked, To: PhaseUntracked, Trigger: TrLeave},
	{From: PhaseAcquiring, To: PhaseUntracked, Trigger: TrLeave},
	{From: PhasePaused, To: PhaseUntracked, Trigger: TrLeave},
	{From: PhasePlaying, To: PhaseUntracked, Trigger: TrLeave},
	{From: PhaseReleasing, To: PhaseUntracked, Trigger: TrLeave},

	// Clear-all
	{From: PhaseTracked, To: PhaseUntracked, Trigger: TrReset},
	{From: PhaseAcquiring, To: PhaseUntracked, Trigger: TrReset},
	{From: PhasePaused, To: PhaseUntracked, Trigger: TrReset},
	{From: PhasePlaying, To: PhaseUntracked, Trigger: TrReset},
	{From: PhaseReleasing, To: PhaseUntracked, Trigger: TrReset},
}

// TransitionFor returns the allowed transition for a phase and trigger.
func TransitionFor(from Phase, tr Trigger) (Transition, bool) {
	for _, t := range transitionsTable {
		if t.From == from && t.Trigger == tr {
			return t, true
		}
	}
	return Transition{}, false
}
