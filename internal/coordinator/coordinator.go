// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package coordinator turns viewability events into pool and player actions.
//
// A single goroutine (Run) owns the pool, the play admission monitor and every
// item record. Events, player acks, prepare timeouts and diagnostic queries all
// arrive as messages on one inbox.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/feedpool/internal/admission"
	"github.com/ManuGH/feedpool/internal/bus"
	"github.com/ManuGH/feedpool/internal/log"
	"github.com/ManuGH/feedpool/internal/player"
	"github.com/ManuGH/feedpool/internal/pool"
	"github.com/ManuGH/feedpool/internal/telemetry"
	"github.com/ManuGH/feedpool/internal/viewability"
)

var (
	// ErrStopped is returned once Run has returned.
	ErrStopped = errors.New("coordinator stopped")
	// ErrStaleEvent marks an event whose Seq is not newer than the last applied one.
	ErrStaleEvent = errors.New("stale viewability event")
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("coordinator already running")
)

const (
	// TopicNotifications carries Notification values on the bus.
	TopicNotifications = "coordinator.notifications"
	DefaultInboxSize   = 256
	tracerName         = "github.com/ManuGH/feedpool/internal/coordinator"
)

type Options struct {
	Pool   *pool.Pool
	Player player.Player
	// Ladder is used for items entered without their own.
	Ladder *viewability.TransitionConfig
	Policy Policy
	// Bus is optional.
	Bus bus.Bus
	// Tracer defaults to the global provider.
	Tracer    trace.Tracer
	InboxSize int
	Now       func() time.Time
}

// Item describes a feed entry entering the tracked window.
type Item struct {
	ID       string
	Category string
	Ladder   *viewability.TransitionConfig
}

type Coordinator struct {
	pool   *pool.Pool
	player player.Player
	ladder *viewability.TransitionConfig
	policy Policy
	admit  *admission.Monitor
	bus    bus.Bus
	tracer trace.Tracer
	logger zerolog.Logger
	now    func() time.Time

	inbox   chan message
	done    chan struct{}
	started atomic.Bool

	// Owned by the Run goroutine.
	ctx      context.Context
	items    map[string]*record
	dirty    bool
	counters counters
}

type counters struct {
	stale     uint64
	failures  uint64
	evictions uint64
	timeouts  uint64
}

type message interface{}

type eventMsg struct{ ev viewability.Event }

type enterMsg struct{ item Item }

type leaveMsg struct{ id string }

type ackMsg struct{ ack player.Ack }

type timeoutMsg struct {
	itemID string
	cmdID  string
}

type queryMsg struct {
	fn   func()
	done chan struct{}
}

func New(opts Options) (*Coordinator, error) {
	if opts.Pool == nil {
		return nil, errors.New("coordinator: pool is required")
	}
	if opts.Player == nil {
		return nil, errors.New("coordinator: player is required")
	}
	if opts.Ladder == nil {
		return nil, fmt.Errorf("coordinator: %w: default ladder is required", viewability.ErrInvalidConfig)
	}
	policy := opts.Policy
	if policy.PrepareTimeout == 0 {
		policy.PrepareTimeout = DefaultPrepareTimeout
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("coordinator policy: %w", err)
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = DefaultInboxSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Tracer == nil {
		opts.Tracer = telemetry.Tracer(tracerName)
	}

	return &Coordinator{
		pool:   opts.Pool,
		player: opts.Player,
		ladder: opts.Ladder,
		policy: policy,
		admit:  admission.NewMonitor(policy.limits()),
		bus:    opts.Bus,
		tracer: opts.Tracer,
		logger: log.WithComponent("coordinator"),
		now:    opts.Now,
		inbox:  make(chan message, opts.InboxSize),
		done:   make(chan struct{}),
		ctx:    context.Background(),
		items:  make(map[string]*record),
	}, nil
}

// Run processes the inbox until ctx is done. It may be called once.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(c.done)
	c.ctx = ctx
	defer c.shutdown()

	c.logger.Info().
		Str(log.FieldEvent, "coordinator.started").
		Int(log.FieldCapacity, c.pool.Capacity()).
		Msg("coordinator loop started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Str(log.FieldEvent, "coordinator.stopped").Msg("coordinator loop stopped")
			return nil
		case m := <-c.inbox:
			c.handle(m)
		}
	}
}

// Done is closed when Run has returned.
func (c *Coordinator) Done() <-chan struct{} { return c.done }

// Running reports whether Run has started and not yet returned.
func (c *Coordinator) Running() bool {
	if !c.started.Load() {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Submit queues a viewability event. Stale events are dropped by the loop, not
// reported here.
func (c *Coordinator) Submit(ctx context.Context, ev viewability.Event) error {
	return c.send(ctx, eventMsg{ev: ev})
}

// Enter starts tracking an item. Entering a tracked item updates its category.
func (c *Coordinator) Enter(ctx context.Context, item Item) error {
	if item.ID == "" {
		return pool.ErrEmptyItem
	}
	return c.send(ctx, enterMsg{item: item})
}

// Leave stops tracking an item, releasing its handle if it holds one.
func (c *Coordinator) Leave(ctx context.Context, itemID string) error {
	return c.send(ctx, leaveMsg{id: itemID})
}

// Reset stops every bound item and forgets all records. It returns the number
// of handles that were bound.
func (c *Coordinator) Reset(ctx context.Context) (int, error) {
	var n int
	err := c.do(ctx, func() { n = c.reset() })
	return n, err
}

func (c *Coordinator) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := c.do(ctx, func() { s = c.stats() })
	return s, err
}

func (c *Coordinator) Snapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	err := c.do(ctx, func() { s = c.snapshot() })
	return s, err
}

func (c *Coordinator) send(ctx context.Context, m message) error {
	select {
	case <-c.done:
		return ErrStopped
	default:
	}
	select {
	case c.inbox <- m:
		return nil
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post is used by player acks and timers; it gives up once the loop is gone.
func (c *Coordinator) post(m message) {
	select {
	case c.inbox <- m:
	case <-c.done:
	}
}

// do runs fn on the loop and waits for it.
func (c *Coordinator) do(ctx context.Context, fn func()) error {
	q := queryMsg{fn: fn, done: make(chan struct{})}
	if err := c.send(ctx, q); err != nil {
		return err
	}
	select {
	case <-q.done:
		return nil
	case <-c.done:
		select {
		case <-q.done:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) ack(a player.Ack) {
	c.post(ackMsg{ack: a})
}

func (c *Coordinator) handle(m message) {
	if q, ok := m.(queryMsg); ok {
		defer close(q.done)
	}

	switch m := m.(type) {
	case eventMsg:
		if err := c.applyEvent(m.ev); err != nil {
			c.logger.Debug().Err(err).
				Str(log.FieldItemID, m.ev.ItemID).
				Uint64(log.FieldSeq, m.ev.Seq).
				Msg("viewability event dropped")
		}
	case enterMsg:
		c.enter(m.item)
	case leaveMsg:
		c.leave(m.id)
	case ackMsg:
		c.handleAck(m.ack)
	case timeoutMsg:
		c.handleTimeout(m)
	case queryMsg:
		m.fn()
	}
	c.settle()
}

// shutdown stops timers so no goroutine outlives Run.
func (c *Coordinator) shutdown() {
	for _, rec := range c.items {
		c.cancelTimer(rec)
	}
}

func (c *Coordinator) notify(kind NotificationKind, itemID string, h pool.Handle, reason string) {
	if c.bus == nil {
		return
	}
	c.bus.TryPublish(TopicNotifications, Notification{
		Kind:   kind,
		ItemID: itemID,
		Handle: h,
		Reason: reason,
		At:     c.now(),
	})
}
