// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pool

// HealthyUtilization is the utilization percentage below which a pool is
// considered healthy.
const HealthyUtilization = 90.0

// Snapshot is a copy of the pool bindings, sorted by handle.
type Snapshot struct {
	Capacity int         `json:"capacity"`
	Free     int         `json:"free"`
	Bound    []HandleRef `json:"bound"`
}

// Stats summarizes occupancy.
type Stats struct {
	Available   int     `json:"available"`
	Active      int     `json:"active"`
	Max         int     `json:"max"`
	Utilization float64 `json:"utilization"`
}

func (p *Pool) Snapshot() Snapshot {
	s := Snapshot{
		Capacity: len(p.slots),
		Free:     len(p.free),
		Bound:    make([]HandleRef, 0, len(p.bound)),
	}
	for i := range p.slots {
		if p.slots[i].bound {
			s.Bound = append(s.Bound, p.ref(Handle(i)))
		}
	}
	return s
}

func (p *Pool) Stats() Stats {
	return Stats{
		Available:   len(p.free),
		Active:      len(p.bound),
		Max:         len(p.slots),
		Utilization: float64(len(p.bound)) / float64(len(p.slots)) * 100,
	}
}

// Healthy reports whether utilization is below HealthyUtilization.
func (p *Pool) Healthy() bool {
	return p.Stats().Healthy()
}

func (s Stats) Healthy() bool {
	return s.Utilization < HealthyUtilization
}
