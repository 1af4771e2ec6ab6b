// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package viewability

// Band is an ordinal position in the threshold ladder.
type Band int

// Hidden is the lowest band of every ladder.
const Hidden Band = 0

// Direction of a fraction change relative to the previous sample.
type Direction string

const (
	DirectionNone Direction = "none"
	DirectionIn   Direction = "moving_in"
	DirectionOut  Direction = "moving_out"
)

func directionOf(prev, next float64) Direction {
	switch {
	case next > prev:
		return DirectionIn
	case next < prev:
		return DirectionOut
	default:
		return DirectionNone
	}
}
