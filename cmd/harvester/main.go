// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

// Package main is the entry point for the Logtide harvester.
//
// The harvester tails configured log files and ships every appended line
// to a Logtide server over the TCP line protocol. On connect it announces
// its node name and stream list, then binds so the server can detect the
// connection going away.
//
// # Configuration
//
// Streams map stream names to file paths and are configured via YAML:
//
//	harvester:
//	  node_name: web01
//	  server_host: logs.internal
//	  streams:
//	    access:
//	      - /var/log/nginx/access.log
//	    app:
//	      - /var/log/app/app.log
//
// Scalar settings can be overridden via LOGTIDE_ environment variables,
// e.g. LOGTIDE_HARVESTER_SERVER_HOST.
//
// # Signal Handling
//
// The harvester handles graceful shutdown on SIGINT and SIGTERM: tailers
// stop watching, the delivery connection closes, and the server removes
// the bound node.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/logtide/internal/config"
	"github.com/tomtom215/logtide/internal/harvester"
	"github.com/tomtom215/logtide/internal/logging"
	"github.com/tomtom215/logtide/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.ValidateHarvester(); err != nil {
		logging.Fatal().Err(err).Msg("Invalid harvester configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	h := harvester.New(harvester.Config{
		Node:            cfg.Harvester.NodeName,
		Streams:         cfg.Harvester.Streams,
		ServerAddr:      cfg.Harvester.Addr(),
		Delimiter:       cfg.Harvester.Delimiter,
		PollInterval:    cfg.Harvester.PollInterval,
		DialTimeout:     cfg.Harvester.DialTimeout,
		KeepAlivePeriod: cfg.Harvester.KeepAlive,
		BackoffCap:      cfg.Harvester.BackoffCap,
	}, logging.Logger())

	logging.Info().
		Str("node", cfg.Harvester.NodeName).
		Str("server", cfg.Harvester.Addr()).
		Strs("streams", h.StreamNames()).
		Msg("Starting Logtide harvester")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slogLogger := slog.New(logging.NewSlogHandler())
	tree := supervisor.NewTree("logtide-harvester", slogLogger, supervisor.DefaultTreeConfig())

	for _, tailer := range h.Tailers() {
		tree.AddIngestService(tailer)
	}
	tree.AddAPIService(h.Client())

	if cfg.Metrics.Enabled {
		tree.AddAPIService(newMetricsServer(cfg.Metrics.Addr, logging.Logger()))
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

	logging.Info().Msg("Logtide harvester stopped")
}
