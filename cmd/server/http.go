// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tomtom215/logtide/internal/topology"
)

// observabilityServer exposes health, metrics, and the topology snapshot
// over HTTP. It runs as a supervised service.
type observabilityServer struct {
	addr  string
	graph *topology.Graph
	log   zerolog.Logger
}

func newObservabilityServer(addr string, graph *topology.Graph, logger zerolog.Logger) *observabilityServer {
	return &observabilityServer{addr: addr, graph: graph, log: logger}
}

func (s *observabilityServer) String() string {
	return "http:" + s.addr
}

// Serve runs the HTTP server until ctx is canceled.
func (s *observabilityServer) Serve(ctx context.Context) error {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/healthz", s.handleHealth)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/topology", s.handleTopology)

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info().Str("addr", s.addr).Msg("HTTP observability server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error().Err(err).Msg("HTTP shutdown")
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *observabilityServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *observabilityServer) handleTopology(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.graph.Snapshot()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		s.log.Error().Err(err).Msg("Encode topology snapshot")
	}
}
