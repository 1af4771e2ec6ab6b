// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var AdmissionDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "feedpool_admission_decisions_total",
	Help: "Total number of play admission decisions, by reason.",
}, []string{"reason"})

// RecordAdmission counts one play admission decision.
func RecordAdmission(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	AdmissionDecisionsTotal.WithLabelValues(reason).Inc()
}
