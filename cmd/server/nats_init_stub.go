// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

//go:build !nats

package main

import (
	"github.com/tomtom215/logtide/internal/config"
	"github.com/tomtom215/logtide/internal/events"
	"github.com/tomtom215/logtide/internal/logging"
	"github.com/tomtom215/logtide/internal/supervisor"
)

// initNATS is a no-op stub for non-NATS builds.
func initNATS(_ *supervisor.Tree, _ *events.Bus, cfg *config.Config) error {
	if cfg.NATS.Enabled {
		logging.Warn().Msg("nats.enabled=true but NATS support not compiled (build with -tags nats)")
	}
	return nil
}
