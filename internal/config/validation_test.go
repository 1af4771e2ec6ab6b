// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/feedpool/internal/validate"
	"github.com/ManuGH/feedpool/internal/viewability"
)

func TestValidate_Defaults(t *testing.T) {
	require.NoError(t, Validate(Defaults()))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		field  string
	}{
		{"log level", func(c *AppConfig) { c.LogLevel = "loud" }, "logLevel"},
		{"capacity", func(c *AppConfig) { c.Pool.Capacity = 0 }, "pool.capacity"},
		{"prepare timeout", func(c *AppConfig) { c.Playback.PrepareTimeout = time.Millisecond }, "playback.prepareTimeout"},
		{"default category", func(c *AppConfig) { c.Playback.DefaultCategory = "reels" }, "playback.defaultCategory"},
		{"bad profile", func(c *AppConfig) {
			c.Visibility.Profiles["broken"] = viewability.Spec{MovingIn: []float64{0.9, 0.2}, MovingOut: []float64{0.1, 0.1}}
		}, "visibility.profiles.broken"},
		{"default profile", func(c *AppConfig) { c.Visibility.DefaultProfile = "missing" }, "visibility.defaultProfile"},
		{"category profile", func(c *AppConfig) {
			c.Categories["short"] = CategoryConfig{Priority: 1, Profile: "missing"}
		}, "categories.short.profile"},
		{"band above top", func(c *AppConfig) { c.Playback.PlayBand = 3 }, "categories.carousel"},
		{"play below prepare", func(c *AppConfig) { c.Playback.PrepareBand, c.Playback.PlayBand = 2, 1 }, "visibility.defaultProfile"},
		{"exporter", func(c *AppConfig) { c.Telemetry.Enabled, c.Telemetry.Exporter = true, "zipkin" }, "telemetry.exporter"},
		{"sampling", func(c *AppConfig) { c.Telemetry.SamplingRate = 1.5 }, "telemetry.samplingRate"},
		{"listen addr", func(c *AppConfig) { c.Diagnostics.ListenAddr = "nowhere" }, "diagnostics.listenAddr"},
		{"snapshot interval", func(c *AppConfig) {
			c.Snapshot.Path, c.Snapshot.Interval = "/tmp/state.json", time.Millisecond
		}, "snapshot.interval"},
		{"sim category", func(c *AppConfig) { c.Simulation.Categories = []string{"reels"} }, "simulation.categories[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)

			var verr validate.ValidationError
			require.ErrorAs(t, err, &verr)
			fields := make([]string, 0, len(verr.Errors()))
			for _, e := range verr.Errors() {
				fields = append(fields, e.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}
