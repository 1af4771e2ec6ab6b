// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/feedpool/internal/bus"
	"github.com/ManuGH/feedpool/internal/player"
	"github.com/ManuGH/feedpool/internal/pool"
	"github.com/ManuGH/feedpool/internal/viewability"
)

var (
	t0        = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	twoBand   = viewability.MustTransitionConfig([]float64{0.5}, []float64{0.3})
	threeBand = viewability.MustTransitionConfig([]float64{0.5, 0.9}, []float64{0.1, 0.4})
)

// fakePlayer records commands and leaves acknowledgment to the test.
type fakePlayer struct {
	mu     sync.Mutex
	cmds   []player.Command
	acks   map[string]player.AckFunc
	reject map[player.Kind]error
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{
		acks:   make(map[string]player.AckFunc),
		reject: make(map[player.Kind]error),
	}
}

func (f *fakePlayer) Dispatch(_ context.Context, cmd player.Command, ack player.AckFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.reject[cmd.Kind]; err != nil {
		return err
	}
	f.cmds = append(f.cmds, cmd)
	f.acks[cmd.ID] = ack
	return nil
}

func (f *fakePlayer) setReject(kind player.Kind, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reject[kind] = err
}

// kinds lists the command kinds sent for item, in order.
func (f *fakePlayer) kinds(item string) []player.Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []player.Kind
	for _, c := range f.cmds {
		if c.ItemID == item {
			out = append(out, c.Kind)
		}
	}
	return out
}

func (f *fakePlayer) last(kind player.Kind, item string) (player.Command, player.AckFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.cmds) - 1; i >= 0; i-- {
		c := f.cmds[i]
		if c.Kind == kind && c.ItemID == item {
			return c, f.acks[c.ID]
		}
	}
	return player.Command{}, nil
}

type harness struct {
	t   *testing.T
	c   *Coordinator
	p   *pool.Pool
	fp  *fakePlayer
	bus *bus.MemoryBus
	ctx context.Context
}

type harnessOpt func(*Options)

func withPolicy(p Policy) harnessOpt { return func(o *Options) { o.Policy = p } }

func withLadder(l *viewability.TransitionConfig) harnessOpt {
	return func(o *Options) { o.Ladder = l }
}

func newHarness(t *testing.T, capacity int, opts ...harnessOpt) *harness {
	t.Helper()
	p, err := pool.New(capacity)
	require.NoError(t, err)
	fp := newFakePlayer()
	b := bus.NewMemoryBus()

	o := Options{Pool: p, Player: fp, Ladder: twoBand, Policy: DefaultPolicy(), Bus: b}
	for _, fn := range opts {
		fn(&o)
	}
	c, err := New(o)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-errc)
	})
	return &harness{t: t, c: c, p: p, fp: fp, bus: b, ctx: ctx}
}

// sync waits until every earlier message has been handled.
func (h *harness) sync() Stats {
	h.t.Helper()
	s, err := h.c.Stats(h.ctx)
	require.NoError(h.t, err)
	return s
}

func (h *harness) enter(id, category string) {
	h.t.Helper()
	require.NoError(h.t, h.c.Enter(h.ctx, Item{ID: id, Category: category}))
}

// event submits a band change and waits for it to be applied.
func (h *harness) event(id string, from, to viewability.Band, seq uint64, at time.Time) {
	h.t.Helper()
	require.NoError(h.t, h.c.Submit(h.ctx, viewability.Event{
		ItemID: id, From: from, To: to, Seq: seq, At: at, Fraction: float64(to) / 2,
	}))
	h.sync()
}

func (h *harness) ack(kind player.Kind, id string, err error) {
	h.t.Helper()
	cmd, fn := h.fp.last(kind, id)
	require.NotNil(h.t, fn, "no %s command for %s", kind, id)
	fn(player.Ack{CommandID: cmd.ID, ItemID: id, Kind: kind, Err: err})
	h.sync()
}

func (h *harness) item(id string) (ItemSnapshot, bool) {
	h.t.Helper()
	snap, err := h.c.Snapshot(h.ctx)
	require.NoError(h.t, err)
	for _, is := range snap.Items {
		if is.ItemID == id {
			return is, true
		}
	}
	return ItemSnapshot{}, false
}

func (h *harness) phase(id string) Phase {
	h.t.Helper()
	is, ok := h.item(id)
	if !ok {
		return PhaseUntracked
	}
	return is.Phase
}

func feedPolicy() Policy {
	p := DefaultPolicy()
	p.Categories = map[string]Category{
		"feed": {Priority: 1},
		"hero": {Priority: 2},
	}
	p.DefaultCategory = "feed"
	return p
}
