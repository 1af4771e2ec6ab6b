// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package diagnostics

import (
	"context"
	"sync"

	"github.com/ManuGH/feedpool/internal/bus"
	"github.com/ManuGH/feedpool/internal/coordinator"
)

// DefaultRingSize is the number of notifications kept for /debug/notifications.
const DefaultRingSize = 256

// NotificationRing keeps the most recent coordinator notifications.
type NotificationRing struct {
	mu    sync.Mutex
	buf   []coordinator.Notification
	next  int
	full  bool
	total uint64
}

func NewNotificationRing(size int) *NotificationRing {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &NotificationRing{buf: make([]coordinator.Notification, size)}
}

// Add stores n, overwriting the oldest entry when full.
func (r *NotificationRing) Add(n coordinator.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = n
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
	r.total++
}

// Recent returns up to limit notifications, newest first. limit <= 0 returns
// everything kept.
func (r *NotificationRing) Recent(limit int) []coordinator.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.next
	if r.full {
		n = len(r.buf)
	}
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]coordinator.Notification, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (r.next - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}

// Total counts every notification ever added.
func (r *NotificationRing) Total() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// Consume feeds the ring from the coordinator notification topic until ctx is
// done.
func (r *NotificationRing) Consume(ctx context.Context, b bus.Bus) error {
	sub, err := b.Subscribe(ctx, coordinator.TopicNotifications)
	if err != nil {
		return err
	}
	defer func() { _ = sub.Close() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.C():
			if !ok {
				return nil
			}
			if n, ok := msg.(coordinator.Notification); ok {
				r.Add(n)
			}
		}
	}
}
