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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// metricsServer exposes health and Prometheus metrics for the harvester.
type metricsServer struct {
	addr string
	log  zerolog.Logger
}

func newMetricsServer(addr string, logger zerolog.Logger) *metricsServer {
	return &metricsServer{addr: addr, log: logger}
}

func (s *metricsServer) String() string {
	return "http:" + s.addr
}

// Serve runs the HTTP server until ctx is canceled.
func (s *metricsServer) Serve(ctx context.Context) error {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info().Str("addr", s.addr).Msg("Metrics server listening")

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
