// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package viewability

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ManuGH/feedpool/internal/validate"
)

// ErrInvalidConfig classifies every TransitionConfig construction failure.
var ErrInvalidConfig = errors.New("invalid transition config")

// TransitionConfig is the immutable threshold ladder pair shared by all trackers
// of a feed profile.
//
// MovingIn[i] is the fraction at or above which a rising item leaves band i for
// band i+1. MovingOut[i] is the fraction at or below which a falling item leaves
// band i+1 for band i. Both ladders have the same length; the config therefore
// describes len(MovingIn)+1 bands, band 0 being hidden.
type TransitionConfig struct {
	movingIn  []float64
	movingOut []float64
	names     []string
}

// Spec is the boundary representation of a TransitionConfig, as it arrives from
// config files or foreign callers.
type Spec struct {
	MovingIn  []float64 `json:"movingIn" yaml:"movingIn"`
	MovingOut []float64 `json:"movingOut" yaml:"movingOut"`
	Names     []string  `json:"names,omitempty" yaml:"names,omitempty"`
}

// Build validates the spec and returns the immutable config.
func (s Spec) Build() (*TransitionConfig, error) {
	return NewTransitionConfig(s.MovingIn, s.MovingOut, s.Names...)
}

// NewTransitionConfig copies and validates the ladders. names is optional; when
// given it must carry one label per band.
func NewTransitionConfig(movingIn, movingOut []float64, names ...string) (*TransitionConfig, error) {
	c := &TransitionConfig{
		movingIn:  append([]float64(nil), movingIn...),
		movingOut: append([]float64(nil), movingOut...),
	}
	if len(names) > 0 {
		c.names = append([]string(nil), names...)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustTransitionConfig is NewTransitionConfig for static presets; it panics on error.
func MustTransitionConfig(movingIn, movingOut []float64, names ...string) *TransitionConfig {
	c, err := NewTransitionConfig(movingIn, movingOut, names...)
	if err != nil {
		panic(err)
	}
	return c
}

// Validate reports every ladder defect as a single error wrapping ErrInvalidConfig.
func (c *TransitionConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	v := validate.New()
	v.Ladder("movingIn", c.movingIn)
	v.Ladder("movingOut", c.movingOut)
	if len(c.movingIn) > 0 && len(c.movingOut) > 0 && len(c.movingIn) != len(c.movingOut) {
		v.AddError("movingOut",
			fmt.Sprintf("ladder length %d does not match movingIn length %d", len(c.movingOut), len(c.movingIn)),
			c.movingOut)
	}
	if c.names != nil && len(c.names) != len(c.movingIn)+1 {
		v.AddError("names",
			fmt.Sprintf("expected %d band names, got %d", len(c.movingIn)+1, len(c.names)),
			c.names)
	}
	if err := v.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// MovingIn returns a copy of the rising ladder.
func (c *TransitionConfig) MovingIn() []float64 {
	return append([]float64(nil), c.movingIn...)
}

// MovingOut returns a copy of the falling ladder.
func (c *TransitionConfig) MovingOut() []float64 {
	return append([]float64(nil), c.movingOut...)
}

// BandCount is the number of discrete bands, hidden included.
func (c *TransitionConfig) BandCount() int {
	return len(c.movingIn) + 1
}

// TopBand is the fully visible band.
func (c *TransitionConfig) TopBand() Band {
	return Band(len(c.movingIn))
}

// BandName labels b for logs and diagnostics.
func (c *TransitionConfig) BandName(b Band) string {
	if c.names != nil && int(b) >= 0 && int(b) < len(c.names) {
		return c.names[b]
	}
	switch {
	case b == Hidden:
		return "hidden"
	case b == c.TopBand():
		return "full"
	default:
		return "band" + strconv.Itoa(int(b))
	}
}

// Spec returns the boundary form of the config.
func (c *TransitionConfig) Spec() Spec {
	s := Spec{MovingIn: c.MovingIn(), MovingOut: c.MovingOut()}
	if c.names != nil {
		s.Names = append([]string(nil), c.names...)
	}
	return s
}

// rising is the band implied by f against the rising ladder.
func (c *TransitionConfig) rising(f float64) Band {
	n := 0
	for _, t := range c.movingIn {
		if f < t {
			break
		}
		n++
	}
	return Band(n)
}

// falling is the band implied by f against the falling ladder.
func (c *TransitionConfig) falling(f float64) Band {
	n := 0
	for _, t := range c.movingOut {
		if f <= t {
			break
		}
		n++
	}
	return Band(n)
}
