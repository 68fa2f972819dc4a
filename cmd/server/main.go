// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

// Package main is the entry point for the Logtide server.
//
// The server accepts TCP connections from harvesters and interactive
// clients, maintains the stream/node topology graph, and republishes
// everything it learns onto an in-process event bus.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: load settings from config file and environment (Koanf v2)
//  2. Event bus: in-process Watermill pub/sub carrying topology and log events
//  3. Topology graph: stream/node registry fed by the TCP engine
//  4. TCP engine: line-protocol listener for harvesters
//  5. NATS forwarder (optional): mirrors bus events to external NATS subjects
//  6. HTTP server: health, Prometheus metrics, and topology snapshot
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (LOGTIDE_ prefix)
//   - Config file (config.yaml, or LOGTIDE_CONFIG)
//   - Built-in defaults
//
// # Build Tags
//
// Optional build tags enable additional functionality:
//
//	go build -tags "nats" ./cmd/server  # Enable NATS event forwarding
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Tears down bound connections, removing their nodes from the graph
//   - Closes the event bus and NATS forwarder if enabled
//
// # Example Usage
//
//	export LOGTIDE_SERVER_PORT=28777
//	export LOGTIDE_LOGGING_LEVEL=debug
//	./logtide-server
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/logtide/internal/config"
	"github.com/tomtom215/logtide/internal/events"
	"github.com/tomtom215/logtide/internal/logging"
	"github.com/tomtom215/logtide/internal/server"
	"github.com/tomtom215/logtide/internal/supervisor"
	"github.com/tomtom215/logtide/internal/topology"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("listen", cfg.Server.Addr()).
		Bool("metrics", cfg.Metrics.Enabled).
		Bool("nats", cfg.NATS.Enabled).
		Msg("Starting Logtide server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The bus is the graph's sink: every registration, binding, removal,
	// and delivered line becomes a bus event.
	bus := events.NewBus(logging.Logger())
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	graph := topology.New(bus)

	engine := server.New(server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		Delimiter:    cfg.Server.Delimiter,
		PingInterval: cfg.Server.PingInterval,
	}, graph, logging.Logger())

	// Bridge zerolog to slog for sutureslog.
	slogLogger := slog.New(logging.NewSlogHandler())

	tree := supervisor.NewTree("logtide-server", slogLogger, supervisor.DefaultTreeConfig())
	tree.AddIngestService(engine)

	if err := initNATS(tree, bus, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize NATS forwarder")
	}

	if cfg.Metrics.Enabled {
		tree.AddAPIService(newObservabilityServer(cfg.Metrics.Addr, graph, logging.Logger()))
	}

	errCh := tree.ServeBackground(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Shutting down")
		cancel()
		if err := <-errCh; err != nil && err != context.Canceled {
			logging.Error().Err(err).Msg("Supervisor tree exited with error")
		}
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			logging.Fatal().Err(err).Msg("Supervisor tree failed")
		}
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}

	logging.Info().Msg("Logtide server stopped")
}
