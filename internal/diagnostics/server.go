// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package diagnostics serves health probes, metrics and debug views of the
// pool and coordinator over HTTP.
package diagnostics

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/feedpool/internal/coordinator"
	"github.com/ManuGH/feedpool/internal/health"
	"github.com/ManuGH/feedpool/internal/log"
)

const shutdownTimeout = 5 * time.Second

// Source is the coordinator view the debug routes read.
type Source interface {
	Snapshot(ctx context.Context) (coordinator.Snapshot, error)
	Stats(ctx context.Context) (coordinator.Stats, error)
}

type Options struct {
	Health *health.Manager
	Source Source
	Ring   *NotificationRing
	// RateLimit is requests per minute per IP; 0 disables it.
	RateLimit int
	// TracingService enables otelhttp spans when set.
	TracingService string
}

type Server struct {
	opts   Options
	router *chi.Mux
	logger zerolog.Logger
}

func NewServer(opts Options) *Server {
	if opts.Health == nil {
		opts.Health = health.NewManager("")
	}
	if opts.Ring == nil {
		opts.Ring = NewNotificationRing(DefaultRingSize)
	}
	s := &Server{opts: opts, logger: log.WithComponent("diagnostics")}
	s.router = s.routes()
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	if s.opts.TracingService != "" {
		r.Use(tracing(s.opts.TracingService))
		r.Use(routeAttribute)
	}
	r.Use(observe)

	r.Get("/healthz", s.opts.Health.ServeHealth)
	r.Get("/readyz", s.opts.Health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/debug", func(r chi.Router) {
		if s.opts.RateLimit > 0 {
			r.Use(rateLimit(s.opts.RateLimit))
		}
		r.Get("/pool", s.handlePool)
		r.Get("/coordinator", s.handleCoordinator)
		r.Get("/coordinator/items/{itemID}", s.handleItem)
		r.Get("/notifications", s.handleNotifications)
	})
	return r
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info().
		Str(log.FieldEvent, "diagnostics.started").
		Str("addr", ln.Addr().String()).
		Msg("diagnostics server listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info().Str(log.FieldEvent, "diagnostics.stopped").Msg("diagnostics server stopped")
	return nil
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	snap, err := s.opts.Source.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, struct {
		Pool    any  `json:"pool"`
		Stats   any  `json:"stats"`
		Healthy bool `json:"healthy"`
	}{snap.Pool, snap.Stats.Pool, snap.Stats.Pool.Healthy()})
}

func (s *Server) handleCoordinator(w http.ResponseWriter, r *http.Request) {
	snap, err := s.opts.Source.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, snap)
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "itemID")
	snap, err := s.opts.Source.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, it := range snap.Items {
		if it.ItemID == id {
			s.writeJSON(w, r, http.StatusOK, it)
			return
		}
	}
	s.writeJSON(w, r, http.StatusNotFound, map[string]string{"error": "not_tracked", "itemId": id})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "invalid_limit"})
			return
		}
		limit = n
	}
	s.writeJSON(w, r, http.StatusOK, struct {
		Total         uint64                     `json:"total"`
		Notifications []coordinator.Notification `json:"notifications"`
	}{s.opts.Ring.Total(), s.opts.Ring.Recent(limit)})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, coordinator.ErrStopped) {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, r, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "diagnostics")
		logger.Error().Err(err).Str(log.FieldEvent, "diagnostics.encode_error").Msg("failed to encode response")
	}
}
