// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ViewabilityEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedpool_viewability_events_total",
		Help: "Total number of emitted band change events, by direction.",
	}, []string{"direction"})

	ViewabilityThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedpool_viewability_throttled_total",
		Help: "Total number of band changes suppressed by the tracker throttle.",
	})
)

// RecordViewabilityEvent counts an emitted band change. rising selects the
// "in" or "out" label.
func RecordViewabilityEvent(rising bool) {
	direction := "out"
	if rising {
		direction = "in"
	}
	ViewabilityEventsTotal.WithLabelValues(direction).Inc()
}

func RecordViewabilityThrottled() {
	ViewabilityThrottledTotal.Inc()
}
