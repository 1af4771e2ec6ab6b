// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/ManuGH/feedpool/internal/validate"
	"github.com/ManuGH/feedpool/internal/viewability"
)

// Validate checks the resolved configuration and reports every problem at once.
func Validate(cfg AppConfig) error {
	v := validate.New()

	if _, err := validate.ParseLogLevel(cfg.LogLevel); err != nil {
		v.AddError("logLevel", err.Error(), cfg.LogLevel)
	}
	v.Range("pool.capacity", cfg.Pool.Capacity, 1, 64)

	p := cfg.Playback
	v.NonNegative("playback.prepareBand", p.PrepareBand)
	v.NonNegative("playback.playBand", p.PlayBand)
	v.NonNegative("playback.maxPlaying", p.MaxPlaying)
	v.MinDuration("playback.prepareTimeout", p.PrepareTimeout, 10*time.Millisecond)
	if p.DefaultCategory != "" {
		if _, ok := cfg.Categories[p.DefaultCategory]; !ok {
			v.AddError("playback.defaultCategory", "category is not defined", p.DefaultCategory)
		}
	}

	if cfg.Visibility.Throttle < 0 {
		v.AddError("visibility.throttle", "duration cannot be negative", cfg.Visibility.Throttle)
	}
	ladders := make(map[string]*viewability.TransitionConfig, len(cfg.Visibility.Profiles))
	for _, name := range sortedKeys(cfg.Visibility.Profiles) {
		tc, err := cfg.Visibility.Profiles[name].Build()
		if err != nil {
			v.AddError("visibility.profiles."+name, err.Error(), name)
			continue
		}
		ladders[name] = tc
	}
	def := cfg.Visibility.DefaultProfile
	if _, ok := cfg.Visibility.Profiles[def]; !ok {
		v.AddError("visibility.defaultProfile", ErrUnknownProfile.Error(), def)
	}

	for _, name := range sortedKeys(cfg.Categories) {
		c := cfg.Categories[name]
		field := "categories." + name
		v.NonNegative(field+".maxConcurrent", c.MaxConcurrent)
		profile := c.Profile
		if profile == "" {
			profile = def
		}
		if c.Profile != "" {
			if _, ok := cfg.Visibility.Profiles[c.Profile]; !ok {
				v.AddError(field+".profile", ErrUnknownProfile.Error(), c.Profile)
				continue
			}
		}
		checkBands(v, field, p, ladders[profile])
	}
	if tc, ok := ladders[def]; ok {
		checkBands(v, "visibility.defaultProfile", p, tc)
	}

	d := cfg.Diagnostics
	v.ListenAddr("diagnostics.listenAddr", d.ListenAddr)
	v.NonNegative("diagnostics.rateLimit", d.RateLimit)

	t := cfg.Telemetry
	if t.Enabled {
		v.OneOf("telemetry.exporter", t.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", t.Endpoint)
	}
	v.FloatRange("telemetry.samplingRate", t.SamplingRate, 0, 1)

	if cfg.Snapshot.Path != "" {
		v.MinDuration("snapshot.interval", cfg.Snapshot.Interval, 100*time.Millisecond)
	}

	s := cfg.Simulation
	v.NonNegative("simulation.items", s.Items)
	v.NonNegative("simulation.prefetchRange", s.PrefetchRange)
	v.NonNegative("simulation.failEvery", s.FailEvery)
	if s.Items > 0 {
		v.FloatRange("simulation.itemHeight", s.ItemHeight, 1, 1e6)
		v.FloatRange("simulation.viewportHeight", s.ViewportHeight, 1, 1e6)
		v.MinDuration("simulation.tick", s.Tick, time.Millisecond)
		for i, name := range s.Categories {
			if _, ok := cfg.Categories[name]; !ok {
				v.AddError(fmt.Sprintf("simulation.categories[%d]", i), "category is not defined", name)
			}
		}
	}

	return v.Err()
}

// checkBands rejects explicit band ordinals above the profile's top band.
func checkBands(v *validate.Validator, field string, p PlaybackConfig, tc *viewability.TransitionConfig) {
	if tc == nil {
		return
	}
	top := int(tc.TopBand())
	if p.PrepareBand > top {
		v.AddError(field, fmt.Sprintf("playback.prepareBand %d exceeds top band %d", p.PrepareBand, top), p.PrepareBand)
	}
	if p.PlayBand > top {
		v.AddError(field, fmt.Sprintf("playback.playBand %d exceeds top band %d", p.PlayBand, top), p.PlayBand)
	}
	if p.PlayBand != 0 && p.PlayBand < p.PrepareBand {
		v.AddError(field, "playback.playBand must not be below prepareBand", p.PlayBand)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
