// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package coordinator

import (
	"fmt"
	"time"

	"github.com/ManuGH/feedpool/internal/admission"
	"github.com/ManuGH/feedpool/internal/validate"
	"github.com/ManuGH/feedpool/internal/viewability"
)

// DefaultPrepareTimeout bounds the wait for a prepare acknowledgment.
const DefaultPrepareTimeout = 5 * time.Second

// Category groups items that share a priority and a concurrent play limit.
type Category struct {
	Priority      int `yaml:"priority" json:"priority"`
	MaxConcurrent int `yaml:"maxConcurrent" json:"maxConcurrent"`
}

// Policy configures when items acquire handles and play.
//
// PrepareBand and PlayBand are ladder ordinals. Zero means the top band of the
// item's ladder, and a band above an item's top band is clamped to it.
type Policy struct {
	PrepareBand      viewability.Band
	PlayBand         viewability.Band
	MaxPlaying       int
	Categories       map[string]Category
	DefaultCategory  string
	LowEndDevice     bool
	AutoplayOnLowEnd bool
	PrepareTimeout   time.Duration
}

// DefaultPolicy acquires and plays at full visibility, one item at a time.
func DefaultPolicy() Policy {
	return Policy{
		MaxPlaying:     1,
		PrepareTimeout: DefaultPrepareTimeout,
	}
}

// Validate checks the policy in isolation.
func (p Policy) Validate() error {
	v := validate.New()
	v.NonNegative("playback.prepareBand", int(p.PrepareBand))
	v.NonNegative("playback.playBand", int(p.PlayBand))
	if p.PrepareBand != 0 && p.PlayBand != 0 && p.PlayBand < p.PrepareBand {
		v.AddError("playback.playBand",
			fmt.Sprintf("must not be below prepareBand %d", p.PrepareBand), p.PlayBand)
	}
	v.NonNegative("playback.maxPlaying", p.MaxPlaying)
	v.MinDuration("playback.prepareTimeout", p.PrepareTimeout, time.Millisecond)
	for name, c := range p.Categories {
		v.NonNegative("categories."+name+".maxConcurrent", c.MaxConcurrent)
	}
	return v.Err()
}

// limits derives the play admission limits. Low-end devices play at most one
// item, or none when autoplay is off there.
func (p Policy) limits() admission.Limits {
	maxPlaying := p.MaxPlaying
	if p.LowEndDevice {
		maxPlaying = 1
		if !p.AutoplayOnLowEnd {
			maxPlaying = 0
		}
	}
	cats := make(map[string]int, len(p.Categories))
	for name, c := range p.Categories {
		cats[name] = c.MaxConcurrent
	}
	return admission.Limits{MaxPlaying: maxPlaying, Categories: cats}
}

func (p Policy) category(name string) (string, Category) {
	if name == "" {
		name = p.DefaultCategory
	}
	return name, p.Categories[name]
}

func bandAt(want, top viewability.Band) viewability.Band {
	if want == 0 || want > top {
		return top
	}
	return want
}
