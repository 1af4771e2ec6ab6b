// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/feedpool/internal/config"
	"github.com/ManuGH/feedpool/internal/coordinator"
	"github.com/ManuGH/feedpool/internal/feedsim"
	"github.com/ManuGH/feedpool/internal/log"
	"github.com/ManuGH/feedpool/internal/viewability"
)

// Coordinator is the part of the coordinator the feeder drives.
type Coordinator interface {
	Enter(ctx context.Context, item coordinator.Item) error
	Leave(ctx context.Context, itemID string) error
	Submit(ctx context.Context, ev viewability.Event) error
}

// Feeder turns scroll frames into coordinator calls. Samples go through one
// tracker set per visibility profile so every item is stepped against the
// ladder its category uses.
type Feeder struct {
	coord  Coordinator
	logger zerolog.Logger

	mu       sync.Mutex
	ladders  *config.Ladders
	throttle time.Duration
	trackers map[string]*viewability.TrackerSet
	profiles map[string]string
}

func NewFeeder(coord Coordinator, ladders *config.Ladders, throttle time.Duration) (*Feeder, error) {
	if coord == nil {
		return nil, ErrMissingCoordinator
	}
	return &Feeder{
		coord:    coord,
		logger:   log.WithComponent("feeder"),
		ladders:  ladders,
		throttle: throttle,
		trackers: make(map[string]*viewability.TrackerSet),
		profiles: make(map[string]string),
	}, nil
}

// HandleFrame applies entered items first, then samples, then departures.
func (f *Feeder) HandleFrame(ctx context.Context, fr feedsim.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, it := range fr.Entered {
		f.profiles[it.ID] = f.ladders.CategoryProfile(it.Category)
		err := f.coord.Enter(ctx, coordinator.Item{
			ID:       it.ID,
			Category: it.Category,
			Ladder:   f.ladders.ForCategory(it.Category),
		})
		if err != nil {
			return fmt.Errorf("enter %s: %w", it.ID, err)
		}
		f.logger.Debug().
			Str(log.FieldEvent, "feeder.entered").
			Str(log.FieldItemID, it.ID).
			Str(log.FieldCategory, it.Category).
			Str(log.FieldProfile, f.profiles[it.ID]).
			Msg("item entered")
	}

	for _, s := range fr.Samples {
		ev, changed := f.trackerFor(s.ItemID).Observe(s)
		if !changed {
			continue
		}
		if err := f.coord.Submit(ctx, ev); err != nil {
			return fmt.Errorf("submit %s: %w", s.ItemID, err)
		}
	}

	for _, id := range fr.Left {
		if ts, ok := f.trackers[f.profiles[id]]; ok {
			ts.Forget(id)
		}
		delete(f.profiles, id)
		if err := f.coord.Leave(ctx, id); err != nil {
			return fmt.Errorf("leave %s: %w", id, err)
		}
	}
	return nil
}

func (f *Feeder) trackerFor(itemID string) *viewability.TrackerSet {
	name, ok := f.profiles[itemID]
	if !ok {
		name = f.ladders.CategoryProfile("")
		f.profiles[itemID] = name
	}
	ts, ok := f.trackers[name]
	if !ok {
		tc, found := f.ladders.Profile(name)
		if !found {
			tc = f.ladders.Default()
		}
		ts = viewability.NewTrackerSet(tc, f.throttle)
		f.trackers[name] = ts
	}
	return ts
}

// Apply swaps in reloaded ladders and throttle. Items already tracked keep
// the ladder they entered with.
func (f *Feeder) Apply(ladders *config.Ladders, throttle time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ladders = ladders
	f.throttle = throttle
	for name, ts := range f.trackers {
		tc, ok := ladders.Profile(name)
		if !ok {
			tc = ladders.Default()
		}
		ts.SetConfig(tc, throttle)
	}
	f.logger.Info().
		Str(log.FieldEvent, "feeder.config_applied").
		Dur("throttle", throttle).
		Int("profiles", len(f.trackers)).
		Msg("visibility configuration applied")
}

// Tracked is the number of items with a live tracker.
func (f *Feeder) Tracked() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, ts := range f.trackers {
		n += ts.Len()
	}
	return n
}
