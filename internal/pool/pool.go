// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package pool implements a fixed arena of reusable player handles.
//
// Each handle is bound to at most one item and each item to at most one handle.
// A Pool has no internal lock; it is owned by a single goroutine.
package pool

import (
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/feedpool/internal/metrics"
)

var (
	ErrInvalidCapacity = errors.New("pool capacity must be at least 1")
	ErrPoolExhausted   = errors.New("pool exhausted")
	ErrNotBound        = errors.New("item not bound")
	ErrEmptyItem       = errors.New("empty item id")
)

// Handle is an opaque slot index.
type Handle int

// Status of a bound handle as last reported by its owner.
type Status int

const (
	StatusIdle Status = iota
	StatusPreparing
	StatusPlaying
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPreparing:
		return "preparing"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// MarshalText renders the status name in JSON snapshots.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for _, c := range []Status{StatusIdle, StatusPreparing, StatusPlaying, StatusPaused} {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown handle status %q", b)
}

// HandleRef is a read-only view of a binding.
type HandleRef struct {
	Handle       Handle    `json:"handle"`
	ItemID       string    `json:"itemId"`
	Status       Status    `json:"status"`
	Priority     int       `json:"priority"`
	VisibleSince time.Time `json:"visibleSince"`
}

// Eviction describes a binding reclaimed for another item.
type Eviction struct {
	ItemID   string `json:"itemId"`
	Handle   Handle `json:"handle"`
	Priority int    `json:"priority"`
}

type slot struct {
	item         string
	bound        bool
	status       Status
	priority     int
	visibleSince time.Time
}

type Pool struct {
	slots []slot
	free  []Handle
	bound map[string]Handle
}

func New(capacity int) (*Pool, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	p := &Pool{
		slots: make([]slot, capacity),
		free:  make([]Handle, 0, capacity),
		bound: make(map[string]Handle, capacity),
	}
	// LIFO: slot 0 is handed out first.
	for i := capacity - 1; i >= 0; i-- {
		p.free = append(p.free, Handle(i))
	}
	p.publish()
	return p, nil
}

// Capacity is the fixed number of handles.
func (p *Pool) Capacity() int { return len(p.slots) }

// Free is the number of unbound handles.
func (p *Pool) Free() int { return len(p.free) }

// Bound is the number of bound handles.
func (p *Pool) Bound() int { return len(p.bound) }

// Acquire binds item to a handle.
//
// An item that is already bound gets its existing handle back with only the
// binding priority refreshed. Otherwise a free handle is used. With no free
// handle the lowest priority binding is the victim, ties going to the oldest
// VisibleSince and then the lowest slot; it is reclaimed when its priority does
// not exceed the requester's. On ErrPoolExhausted the pool is unchanged.
func (p *Pool) Acquire(item string, priority int, visibleSince time.Time) (HandleRef, *Eviction, error) {
	if item == "" {
		return HandleRef{}, nil, ErrEmptyItem
	}
	if h, ok := p.bound[item]; ok {
		p.slots[h].priority = priority
		metrics.RecordPoolAcquire(metrics.AcquireReused)
		return p.ref(h), nil, nil
	}

	if n := len(p.free); n > 0 {
		h := p.free[n-1]
		p.free = p.free[:n-1]
		p.bind(h, item, priority, visibleSince)
		metrics.RecordPoolAcquire(metrics.AcquireBound)
		p.publish()
		return p.ref(h), nil, nil
	}

	victim := p.victim()
	vs := p.slots[victim]
	if vs.priority > priority {
		metrics.RecordPoolAcquire(metrics.AcquireExhausted)
		return HandleRef{}, nil, fmt.Errorf("%w: lowest bound priority %d above %d", ErrPoolExhausted, vs.priority, priority)
	}
	ev := &Eviction{ItemID: vs.item, Handle: victim, Priority: vs.priority}
	delete(p.bound, vs.item)
	p.bind(victim, item, priority, visibleSince)
	metrics.RecordPoolAcquire(metrics.AcquireEvicted)
	p.publish()
	return p.ref(victim), ev, nil
}

// victim picks the eviction candidate. Only called when every slot is bound.
func (p *Pool) victim() Handle {
	best := Handle(0)
	for i := 1; i < len(p.slots); i++ {
		s, b := p.slots[i], p.slots[best]
		switch {
		case s.priority < b.priority:
			best = Handle(i)
		case s.priority == b.priority && s.visibleSince.Before(b.visibleSince):
			best = Handle(i)
		}
	}
	return best
}

func (p *Pool) bind(h Handle, item string, priority int, visibleSince time.Time) {
	p.slots[h] = slot{
		item:         item,
		bound:        true,
		status:       StatusIdle,
		priority:     priority,
		visibleSince: visibleSince,
	}
	p.bound[item] = h
}

// Release unbinds item and returns its handle to the free list. Releasing an
// unbound item is a no-op that reports false.
func (p *Pool) Release(item string) bool {
	h, ok := p.bound[item]
	if !ok {
		return false
	}
	delete(p.bound, item)
	p.slots[h] = slot{}
	p.free = append(p.free, h)
	metrics.RecordPoolRelease()
	p.publish()
	return true
}

// Lookup returns the binding of item.
func (p *Pool) Lookup(item string) (HandleRef, bool) {
	h, ok := p.bound[item]
	if !ok {
		return HandleRef{}, false
	}
	return p.ref(h), true
}

func (p *Pool) StatusOf(item string) (Status, bool) {
	h, ok := p.bound[item]
	if !ok {
		return StatusIdle, false
	}
	return p.slots[h].status, true
}

func (p *Pool) SetStatus(item string, status Status) error {
	h, ok := p.bound[item]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotBound, item)
	}
	p.slots[h].status = status
	return nil
}

// Reset unbinds every handle and returns what was bound, in slot order.
func (p *Pool) Reset() []Eviction {
	var out []Eviction
	for i := range p.slots {
		s := p.slots[i]
		if !s.bound {
			continue
		}
		out = append(out, Eviction{ItemID: s.item, Handle: Handle(i), Priority: s.priority})
	}
	for i := len(p.slots) - 1; i >= 0; i-- {
		if p.slots[i].bound {
			p.free = append(p.free, Handle(i))
		}
		p.slots[i] = slot{}
	}
	clear(p.bound)
	p.publish()
	return out
}

func (p *Pool) ref(h Handle) HandleRef {
	s := p.slots[h]
	return HandleRef{
		Handle:       h,
		ItemID:       s.item,
		Status:       s.status,
		Priority:     s.priority,
		VisibleSince: s.visibleSince,
	}
}

func (p *Pool) publish() {
	metrics.SetPoolOccupancy(len(p.slots), len(p.bound))
}
