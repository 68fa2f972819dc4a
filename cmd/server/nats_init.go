// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

//go:build nats

package main

import (
	"github.com/tomtom215/logtide/internal/config"
	"github.com/tomtom215/logtide/internal/events"
	"github.com/tomtom215/logtide/internal/logging"
	"github.com/tomtom215/logtide/internal/supervisor"
)

// initNATS wires the NATS forwarder into the messaging layer when
// nats.enabled is true.
func initNATS(tree *supervisor.Tree, bus *events.Bus, cfg *config.Config) error {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("NATS forwarding disabled")
		return nil
	}

	forwarder, err := events.NewForwarder(bus, events.ForwarderConfig{
		URL:           cfg.NATS.URL,
		SubjectPrefix: cfg.NATS.SubjectPrefix,
		MaxReconnects: cfg.NATS.MaxReconnects,
		ReconnectWait: cfg.NATS.ReconnectWait,
	}, logging.Logger())
	if err != nil {
		return err
	}

	tree.AddMessagingService(forwarder)
	logging.Info().
		Str("url", cfg.NATS.URL).
		Str("subject_prefix", cfg.NATS.SubjectPrefix).
		Msg("NATS forwarder enabled")
	return nil
}
