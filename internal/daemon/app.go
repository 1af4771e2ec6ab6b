// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon wires the pool, the coordinator and their surroundings into
// one long-running process.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/feedpool/internal/bus"
	"github.com/ManuGH/feedpool/internal/config"
	"github.com/ManuGH/feedpool/internal/coordinator"
	"github.com/ManuGH/feedpool/internal/diagnostics"
	"github.com/ManuGH/feedpool/internal/feedsim"
	"github.com/ManuGH/feedpool/internal/health"
	"github.com/ManuGH/feedpool/internal/log"
	"github.com/ManuGH/feedpool/internal/player/sim"
	"github.com/ManuGH/feedpool/internal/pool"
	"github.com/ManuGH/feedpool/internal/snapshot"
	"github.com/ManuGH/feedpool/internal/telemetry"
)

// App owns the runtime lifecycle: the coordinator loop, the simulated feed,
// diagnostics, snapshots and config reloads.
type App struct {
	holder *config.ConfigHolder
	logger zerolog.Logger

	bus       *bus.MemoryBus
	player    *sim.Player
	coord     *coordinator.Coordinator
	feeder    *Feeder
	scroller  *feedsim.Scroller
	ring      *diagnostics.NotificationRing
	health    *health.Manager
	server    *diagnostics.Server
	listener  net.Listener
	snapshots *snapshot.Writer
	telemetry *telemetry.Provider

	reloadSignal os.Signal
}

// NewApp builds every component from the holder's current config. The
// diagnostics listener is bound here so address errors surface before Run.
func NewApp(ctx context.Context, holder *config.ConfigHolder) (*App, error) {
	if holder == nil {
		return nil, ErrMissingConfig
	}
	cfg := holder.Get()
	a := &App{
		holder:       holder,
		logger:       log.WithComponent("daemon"),
		bus:          bus.NewMemoryBus(),
		ring:         diagnostics.NewNotificationRing(diagnostics.DefaultRingSize),
		reloadSignal: syscall.SIGHUP,
	}

	if err := health.PerformStartupChecks(cfg); err != nil {
		return nil, fmt.Errorf("startup checks: %w", err)
	}
	ladders, err := cfg.Ladders()
	if err != nil {
		return nil, err
	}

	a.telemetry, err = telemetry.NewProvider(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	p, err := pool.New(cfg.Pool.Capacity)
	if err != nil {
		return nil, err
	}
	a.player = sim.New(sim.Config{
		Latency:   cfg.Simulation.Latency,
		FailEvery: cfg.Simulation.FailEvery,
	})
	a.coord, err = coordinator.New(coordinator.Options{
		Pool:   p,
		Player: a.player,
		Ladder: ladders.Default(),
		Policy: cfg.Policy(),
		Bus:    a.bus,
	})
	if err != nil {
		return nil, err
	}
	a.feeder, err = NewFeeder(a.coord, ladders, cfg.Visibility.Throttle)
	if err != nil {
		return nil, err
	}

	if s := cfg.Simulation; s.Items > 0 {
		feed, err := feedsim.NewFeed(s.Items, s.ItemHeight, s.ViewportHeight, s.PrefetchRange, s.Categories)
		if err != nil {
			return nil, err
		}
		a.scroller = feedsim.NewScroller(feed, s.Step)
	}

	a.health = health.NewManager(cfg.Version)
	a.health.RegisterChecker(health.NewPoolChecker(a.coord))
	a.health.RegisterChecker(health.NewCoordinatorChecker(a.coord))
	if cfg.Snapshot.Path != "" {
		a.health.RegisterChecker(health.NewSnapshotChecker(cfg.Snapshot.Path, 3*cfg.Snapshot.Interval))
		a.snapshots = snapshot.NewWriter(cfg.Snapshot.Path, cfg.Snapshot.Interval, cfg.Version, a.coord)
	}

	if addr := cfg.Diagnostics.ListenAddr; addr != "" {
		tracingService := ""
		if cfg.Telemetry.Enabled {
			tracingService = cfg.LogService
		}
		a.server = diagnostics.NewServer(diagnostics.Options{
			Health:         a.health,
			Source:         a.coord,
			Ring:           a.ring,
			RateLimit:      cfg.Diagnostics.RateLimit,
			TracingService: tracingService,
		})
		a.listener, err = net.Listen("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("diagnostics listen: %w", err)
		}
	}
	return a, nil
}

// Coordinator exposes the running coordinator.
func (a *App) Coordinator() *coordinator.Coordinator { return a.coord }

// DiagnosticsAddr is the bound diagnostics address, or "" when disabled.
func (a *App) DiagnosticsAddr() string {
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Run blocks until ctx is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	defer a.shutdown(ctx)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.coord.Run(ctx) })
	g.Go(func() error { return a.ring.Consume(ctx, a.bus) })
	g.Go(func() error { return a.logNotifications(ctx) })

	if a.server != nil {
		g.Go(func() error { return a.server.Serve(ctx, a.listener) })
	}
	if a.snapshots != nil {
		g.Go(func() error { return a.snapshots.Run(ctx) })
	}

	// A failing watcher must not take playback down.
	g.Go(func() error {
		if err := a.holder.Watch(ctx); err != nil {
			a.logger.Warn().Err(err).Str(log.FieldEvent, "config.watcher_failed").Msg("config watcher stopped")
		}
		return nil
	})

	applyCh := make(chan config.AppConfig, 1)
	a.holder.RegisterListener(applyCh)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case cfg := <-applyCh:
				a.apply(cfg)
			}
		}
	})

	if a.reloadSignal != nil {
		g.Go(func() error {
			hup := make(chan os.Signal, 1)
			signal.Notify(hup, a.reloadSignal)
			defer signal.Stop(hup)
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hup:
					a.logger.Info().
						Str(log.FieldEvent, "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading config")
					if err := a.holder.Reload(ctx); err != nil {
						a.logger.Warn().Err(err).Str(log.FieldEvent, "config.reload_failed").Msg("config reload failed")
					}
				}
			}
		})
	}

	if a.scroller != nil {
		tick := a.holder.Get().Simulation.Tick
		g.Go(func() error {
			err := a.scroller.Run(ctx, tick, a.feeder.HandleFrame)
			if ctx.Err() != nil || errors.Is(err, coordinator.ErrStopped) {
				return nil
			}
			return err
		})
	}

	a.logger.Info().
		Str(log.FieldEvent, "daemon.started").
		Str("diagnostics", a.DiagnosticsAddr()).
		Bool("simulation", a.scroller != nil).
		Msg("feedpool running")
	return g.Wait()
}

// apply pushes the hot-reloadable parts of cfg into running components. Pool
// capacity and playback policy take effect on restart.
func (a *App) apply(cfg config.AppConfig) {
	log.SetLevel(cfg.LogLevel)
	ladders, err := cfg.Ladders()
	if err != nil {
		a.logger.Warn().Err(err).Str(log.FieldEvent, "config.apply_failed").Msg("reloaded visibility profiles rejected")
		return
	}
	a.feeder.Apply(ladders, cfg.Visibility.Throttle)
}

func (a *App) logNotifications(ctx context.Context) error {
	sub, err := a.bus.Subscribe(ctx, coordinator.TopicNotifications)
	if err != nil {
		return err
	}
	defer func() { _ = sub.Close() }()

	logger := log.WithComponent("notifications")
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.C():
			if !ok {
				return nil
			}
			n, ok := msg.(coordinator.Notification)
			if !ok {
				continue
			}
			logger.Debug().
				Str(log.FieldEvent, "coordinator."+string(n.Kind)).
				Str(log.FieldItemID, n.ItemID).
				Int(log.FieldHandle, int(n.Handle)).
				Str("reason", n.Reason).
				Msg("handle notification")
		}
	}
}

func (a *App) shutdown(ctx context.Context) {
	a.player.Close()
	if err := a.telemetry.Shutdown(context.WithoutCancel(ctx)); err != nil {
		a.logger.Warn().Err(err).Str(log.FieldEvent, "telemetry.shutdown_failed").Msg("failed to flush traces")
	}
	a.logger.Info().Str(log.FieldEvent, "daemon.stopped").Msg("feedpool stopped")
}
