// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"time"

	"github.com/ManuGH/feedpool/internal/viewability"
)

// AppConfig is the fully resolved daemon configuration.
type AppConfig struct {
	Version     string                    `yaml:"-"`
	LogLevel    string                    `yaml:"logLevel"`
	LogService  string                    `yaml:"logService"`
	Pool        PoolConfig                `yaml:"pool"`
	Playback    PlaybackConfig            `yaml:"playback"`
	Categories  map[string]CategoryConfig `yaml:"categories"`
	Visibility  VisibilityConfig          `yaml:"visibility"`
	Diagnostics DiagnosticsConfig         `yaml:"diagnostics"`
	Telemetry   TelemetryConfig           `yaml:"telemetry"`
	Snapshot    SnapshotConfig            `yaml:"snapshot"`
	Simulation  SimulationConfig          `yaml:"simulation"`
}

type PoolConfig struct {
	Capacity int `yaml:"capacity"`
}

// PlaybackConfig holds the coordinator policy. Bands are ladder ordinals; 0
// selects the top band of the item's profile.
type PlaybackConfig struct {
	PrepareBand      int           `yaml:"prepareBand"`
	PlayBand         int           `yaml:"playBand"`
	MaxPlaying       int           `yaml:"maxPlaying"`
	PrepareTimeout   time.Duration `yaml:"prepareTimeout"`
	LowEndDevice     bool          `yaml:"lowEndDevice"`
	AutoplayOnLowEnd bool          `yaml:"autoplayOnLowEnd"`
	DefaultCategory  string        `yaml:"defaultCategory"`
}

type CategoryConfig struct {
	Priority      int `yaml:"priority"`
	MaxConcurrent int `yaml:"maxConcurrent"`
	// Profile names the visibility profile of the category's items.
	Profile string `yaml:"profile"`
}

type VisibilityConfig struct {
	// Throttle is the minimum interval between two emitted events of one item.
	Throttle       time.Duration               `yaml:"throttle"`
	DefaultProfile string                      `yaml:"defaultProfile"`
	Profiles       map[string]viewability.Spec `yaml:"profiles"`
}

type DiagnosticsConfig struct {
	ListenAddr string `yaml:"listenAddr"`
	// RateLimit is requests per minute per client IP; 0 disables it.
	RateLimit int `yaml:"rateLimit"`
}

type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}

type SnapshotConfig struct {
	Path     string        `yaml:"path"`
	Interval time.Duration `yaml:"interval"`
}

// SimulationConfig drives the built-in scrolling feed and player.
type SimulationConfig struct {
	Items          int           `yaml:"items"`
	ItemHeight     float64       `yaml:"itemHeight"`
	ViewportHeight float64       `yaml:"viewportHeight"`
	PrefetchRange  int           `yaml:"prefetchRange"`
	Step           float64       `yaml:"step"`
	Tick           time.Duration `yaml:"tick"`
	Latency        time.Duration `yaml:"latency"`
	FailEvery      int           `yaml:"failEvery"`
	// Categories are assigned to items round robin.
	Categories []string `yaml:"categories"`
}
