// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/feedpool/internal/log"
)

// Environment keys, highest precedence.
const (
	EnvLogLevel        = "FEEDPOOL_LOG_LEVEL"
	EnvLogService      = "FEEDPOOL_LOG_SERVICE"
	EnvPoolCapacity    = "FEEDPOOL_POOL_CAPACITY"
	EnvMaxPlaying      = "FEEDPOOL_MAX_PLAYING"
	EnvPrepareTimeout  = "FEEDPOOL_PREPARE_TIMEOUT"
	EnvLowEndDevice    = "FEEDPOOL_LOW_END_DEVICE"
	EnvDiagnosticsAddr = "FEEDPOOL_DIAGNOSTICS_ADDR"
	EnvSnapshotPath    = "FEEDPOOL_SNAPSHOT_PATH"
)

// lookup returns the raw value of key. Unset and empty both fall back to the
// default; the choice is logged at debug level.
func lookup(logger zerolog.Logger, key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().Str("key", key).Str("source", "default").Msg("using default value")
		return "", false
	}
	return v, true
}

func invalid(logger zerolog.Logger, key, value, kind string) {
	logger.Warn().
		Str("key", key).
		Str("value", value).
		Msgf("invalid %s in environment variable, using default", kind)
}

// ParseString reads a string from the environment or returns defaultValue.
func ParseString(key, defaultValue string) string {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	logger.Debug().Str("key", key).Str("value", v).Str("source", "environment").Msg("using environment variable")
	return v
}

// ParseInt reads an integer from the environment. Parse errors fall back to
// defaultValue.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		invalid(logger, key, v, "integer")
		return defaultValue
	}
	logger.Debug().Str("key", key).Int("value", i).Str("source", "environment").Msg("using environment variable")
	return i
}

// ParseDuration reads a Go duration ("250ms", "5s") from the environment.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		invalid(logger, key, v, "duration")
		return defaultValue
	}
	logger.Debug().Str("key", key).Dur("value", d).Str("source", "environment").Msg("using environment variable")
	return d
}

// ParseBool accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		invalid(logger, key, v, "boolean")
		return defaultValue
	}
}

// mergeEnv applies environment overrides on top of cfg.
func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)
	cfg.LogService = l.envString(EnvLogService, cfg.LogService)
	cfg.Pool.Capacity = l.envInt(EnvPoolCapacity, cfg.Pool.Capacity)
	cfg.Playback.MaxPlaying = l.envInt(EnvMaxPlaying, cfg.Playback.MaxPlaying)
	cfg.Playback.PrepareTimeout = l.envDuration(EnvPrepareTimeout, cfg.Playback.PrepareTimeout)
	cfg.Playback.LowEndDevice = l.envBool(EnvLowEndDevice, cfg.Playback.LowEndDevice)
	cfg.Diagnostics.ListenAddr = l.envString(EnvDiagnosticsAddr, cfg.Diagnostics.ListenAddr)
	cfg.Snapshot.Path = l.envString(EnvSnapshotPath, cfg.Snapshot.Path)
}
