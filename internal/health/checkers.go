// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ManuGH/feedpool/internal/coordinator"
)

// StatsSource answers playback stats. *coordinator.Coordinator implements it.
type StatsSource interface {
	Running() bool
	Stats(ctx context.Context) (coordinator.Stats, error)
}

// PoolChecker reports pool utilization. A pool at or above
// pool.HealthyUtilization percent is degraded.
type PoolChecker struct {
	src StatsSource
}

func NewPoolChecker(src StatsSource) *PoolChecker {
	return &PoolChecker{src: src}
}

func (c *PoolChecker) Name() string { return "pool" }

func (c *PoolChecker) Check(ctx context.Context) CheckResult {
	s, err := c.src.Stats(ctx)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	msg := fmt.Sprintf("%d/%d handles bound (%.0f%%)", s.Pool.Active, s.Pool.Max, s.Pool.Utilization)
	if !s.Pool.Healthy() {
		return CheckResult{Status: StatusDegraded, Message: msg}
	}
	return CheckResult{Status: StatusHealthy, Message: msg}
}

// CoordinatorChecker reports whether the coordinator loop is alive and
// answering.
type CoordinatorChecker struct {
	src StatsSource
}

func NewCoordinatorChecker(src StatsSource) *CoordinatorChecker {
	return &CoordinatorChecker{src: src}
}

func (c *CoordinatorChecker) Name() string { return "coordinator" }

func (c *CoordinatorChecker) Check(ctx context.Context) CheckResult {
	if !c.src.Running() {
		return CheckResult{Status: StatusUnhealthy, Message: "loop not running"}
	}
	s, err := c.src.Stats(ctx)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Message: "loop not answering"}
	}
	msg := fmt.Sprintf("%d tracked, %d playing, %d waiting", s.Tracked, s.Playing, s.Waiting)
	if s.NeedsEvent > 0 {
		return CheckResult{Status: StatusDegraded, Message: fmt.Sprintf("%s, %d demoted", msg, s.NeedsEvent)}
	}
	return CheckResult{Status: StatusHealthy, Message: msg}
}

// SnapshotChecker checks that the state snapshot file is being refreshed.
type SnapshotChecker struct {
	path   string
	maxAge time.Duration
	now    func() time.Time
}

// NewSnapshotChecker creates a checker for the snapshot file. maxAge is
// usually a few snapshot intervals.
func NewSnapshotChecker(path string, maxAge time.Duration) *SnapshotChecker {
	return &SnapshotChecker{path: path, maxAge: maxAge, now: time.Now}
}

func (c *SnapshotChecker) Name() string { return "snapshot" }

func (c *SnapshotChecker) Check(_ context.Context) CheckResult {
	if c.path == "" {
		return CheckResult{
			Status:  StatusHealthy,
			Message: "not configured (optional)",
		}
	}

	info, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			// Not written yet is fine right after startup.
			return CheckResult{Status: StatusDegraded, Message: "snapshot not written yet"}
		}
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if info.IsDir() {
		return CheckResult{
			Status: StatusUnhealthy,
			Error:  "expected file, got directory",
		}
	}

	if age := c.now().Sub(info.ModTime()); age > c.maxAge {
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("snapshot is %s old", age.Round(time.Second)),
		}
	}
	return CheckResult{Status: StatusHealthy, Message: "snapshot is fresh"}
}
