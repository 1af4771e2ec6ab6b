// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"

	"github.com/ManuGH/feedpool/internal/coordinator"
	"github.com/ManuGH/feedpool/internal/telemetry"
	"github.com/ManuGH/feedpool/internal/viewability"
)

// Policy converts the playback and category sections into a coordinator policy.
func (c AppConfig) Policy() coordinator.Policy {
	cats := make(map[string]coordinator.Category, len(c.Categories))
	for name, cat := range c.Categories {
		cats[name] = coordinator.Category{Priority: cat.Priority, MaxConcurrent: cat.MaxConcurrent}
	}
	p := c.Playback
	return coordinator.Policy{
		PrepareBand:      viewability.Band(p.PrepareBand),
		PlayBand:         viewability.Band(p.PlayBand),
		MaxPlaying:       p.MaxPlaying,
		Categories:       cats,
		DefaultCategory:  p.DefaultCategory,
		LowEndDevice:     p.LowEndDevice,
		AutoplayOnLowEnd: p.AutoplayOnLowEnd,
		PrepareTimeout:   p.PrepareTimeout,
	}
}

// Ladders holds the built visibility profiles and the category mapping.
type Ladders struct {
	byName map[string]*viewability.TransitionConfig
	def    string
	cats   map[string]string
}

// Ladders builds every visibility profile.
func (c AppConfig) Ladders() (*Ladders, error) {
	l := &Ladders{
		byName: make(map[string]*viewability.TransitionConfig, len(c.Visibility.Profiles)),
		def:    c.Visibility.DefaultProfile,
		cats:   make(map[string]string, len(c.Categories)),
	}
	for name, spec := range c.Visibility.Profiles {
		tc, err := spec.Build()
		if err != nil {
			return nil, fmt.Errorf("visibility profile %q: %w", name, err)
		}
		l.byName[name] = tc
	}
	if _, ok := l.byName[l.def]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, l.def)
	}
	for name, cat := range c.Categories {
		if cat.Profile != "" {
			l.cats[name] = cat.Profile
		}
	}
	return l, nil
}

// Default is the ladder of the default profile.
func (l *Ladders) Default() *viewability.TransitionConfig { return l.byName[l.def] }

// Profile returns the named ladder.
func (l *Ladders) Profile(name string) (*viewability.TransitionConfig, bool) {
	tc, ok := l.byName[name]
	return tc, ok
}

// ForCategory returns the ladder used by items of category, falling back to the
// default profile.
func (l *Ladders) ForCategory(category string) *viewability.TransitionConfig {
	if name, ok := l.cats[category]; ok {
		if tc, ok := l.byName[name]; ok {
			return tc
		}
	}
	return l.Default()
}

// CategoryProfile names the profile used by category.
func (l *Ladders) CategoryProfile(category string) string {
	if name, ok := l.cats[category]; ok {
		return name
	}
	return l.def
}

// Tracing converts the telemetry section for telemetry.NewProvider.
func (c AppConfig) Tracing() telemetry.Config {
	return telemetry.Config{
		Enabled:        c.Telemetry.Enabled,
		ServiceName:    c.LogService,
		ServiceVersion: c.Version,
		ExporterType:   c.Telemetry.Exporter,
		Endpoint:       c.Telemetry.Endpoint,
		SamplingRate:   c.Telemetry.SamplingRate,
	}
}
