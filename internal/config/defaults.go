// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"time"

	"github.com/ManuGH/feedpool/internal/viewability"
)

// DefaultProfile is the visibility profile used when none is configured.
const DefaultProfile = "feed"

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel:   "info",
		LogService: "feedpoold",
		Pool:       PoolConfig{Capacity: 5},
		Playback: PlaybackConfig{
			PrepareBand:     1,
			MaxPlaying:      1,
			PrepareTimeout:  5 * time.Second,
			DefaultCategory: "short",
		},
		Categories: map[string]CategoryConfig{
			"short":    {Priority: 3, MaxConcurrent: 1},
			"carousel": {Priority: 2, MaxConcurrent: 1, Profile: "carousel"},
			"merch":    {Priority: 1, MaxConcurrent: 1},
		},
		Visibility: VisibilityConfig{
			Throttle:       50 * time.Millisecond,
			DefaultProfile: DefaultProfile,
			Profiles: map[string]viewability.Spec{
				DefaultProfile: {
					MovingIn:  []float64{0.01, 0.2, 0.5},
					MovingOut: []float64{0.005, 0.15, 0.2},
					Names:     []string{"hidden", "mounted", "soft", "active"},
				},
				"carousel": {
					MovingIn:  []float64{0.01, 0.8},
					MovingOut: []float64{0.005, 0.5},
					Names:     []string{"hidden", "mounted", "active"},
				},
			},
		},
		Diagnostics: DiagnosticsConfig{
			ListenAddr: "127.0.0.1:9464",
			RateLimit:  600,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
		Snapshot: SnapshotConfig{Interval: 10 * time.Second},
		Simulation: SimulationConfig{
			Items:          40,
			ItemHeight:     600,
			ViewportHeight: 900,
			PrefetchRange:  5,
			Step:           45,
			Tick:           50 * time.Millisecond,
			Latency:        30 * time.Millisecond,
			Categories:     []string{"short", "short", "carousel", "merch"},
		},
	}
}
