// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var BusDropTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "feedpool_bus_drop_total",
	Help: "Total number of in-memory bus message drops, by topic and reason.",
}, []string{"topic", "reason"})

// IncBusDrop records a dropped bus message with a concrete reason.
func IncBusDrop(topic, reason string) {
	if topic == "" {
		topic = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}
	BusDropTotal.WithLabelValues(topic, reason).Inc()
}
