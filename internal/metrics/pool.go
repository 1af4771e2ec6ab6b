// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics provides Prometheus metrics for feedpool.
// No item ids or command ids are used as label values.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Acquire outcomes.
const (
	AcquireBound     = "bound"
	AcquireReused    = "reused"
	AcquireEvicted   = "evicted"
	AcquireExhausted = "exhausted"
)

var (
	PoolCapacity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feedpool_pool_capacity",
		Help: "Configured number of player handles in the pool.",
	})

	PoolBound = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feedpool_pool_bound",
		Help: "Current number of player handles bound to an item.",
	})

	PoolAcquireTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedpool_pool_acquire_total",
		Help: "Total number of handle acquisitions, by result (bound/reused/evicted/exhausted).",
	}, []string{"result"})

	PoolReleaseTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedpool_pool_release_total",
		Help: "Total number of handles returned to the free list.",
	})
)

// RecordPoolAcquire counts one acquisition attempt.
func RecordPoolAcquire(result string) {
	switch result {
	case AcquireBound, AcquireReused, AcquireEvicted, AcquireExhausted:
	default:
		result = "unknown"
	}
	PoolAcquireTotal.WithLabelValues(result).Inc()
}

// RecordPoolRelease counts one successful release.
func RecordPoolRelease() {
	PoolReleaseTotal.Inc()
}

// SetPoolOccupancy publishes capacity and bound count together.
func SetPoolOccupancy(capacity, bound int) {
	PoolCapacity.Set(float64(capacity))
	PoolBound.Set(float64(bound))
}
