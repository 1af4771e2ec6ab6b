// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Command results.
const (
	CommandOK       = "ok"
	CommandFailed   = "failed"
	CommandTimeout  = "timeout"
	CommandRejected = "rejected"
)

var (
	CoordinatorStaleEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedpool_coordinator_stale_events_total",
		Help: "Total number of viewability events dropped because a newer event was already applied.",
	})

	CoordinatorCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedpool_coordinator_commands_total",
		Help: "Total number of player commands, by kind and result.",
	}, []string{"kind", "result"})

	CoordinatorPlaying = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feedpool_coordinator_playing",
		Help: "Current number of items the coordinator considers playing.",
	})

	CoordinatorIllegalTransitionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedpool_coordinator_illegal_transition_total",
		Help: "Total number of rejected item phase transitions, by from and to phase.",
	}, []string{"from", "to"})
)

func RecordStaleEvent() {
	CoordinatorStaleEventsTotal.Inc()
}

// RecordCommand counts a player command outcome. An unknown result is
// normalized so that callers cannot grow the label set.
func RecordCommand(kind, result string) {
	if kind == "" {
		kind = "unknown"
	}
	switch result {
	case CommandOK, CommandFailed, CommandTimeout, CommandRejected:
	default:
		result = "unknown"
	}
	CoordinatorCommandsTotal.WithLabelValues(kind, result).Inc()
}

func SetPlaying(n int) {
	CoordinatorPlaying.Set(float64(n))
}

func RecordIllegalTransition(from, to string) {
	CoordinatorIllegalTransitionTotal.WithLabelValues(from, to).Inc()
}
