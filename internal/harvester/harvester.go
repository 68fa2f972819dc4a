// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

package harvester

import (
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/logtide/internal/protocol"
)

// Config describes one harvester process: a node identity and the file
// paths feeding each of its named streams.
type Config struct {
	// Node is this harvester's node identity name.
	Node string

	// Streams maps stream name to the file paths that feed it.
	Streams map[string][]string

	// ServerAddr is the aggregator's host:port.
	ServerAddr string

	// Delimiter overrides the protocol delimiter. Default: "\r\n".
	Delimiter string

	// PollInterval is the tailers' absent-file probe period. Default: 1s.
	PollInterval time.Duration

	// DialTimeout, KeepAlivePeriod, and BackoffCap tune the delivery
	// client; see ClientConfig.
	DialTimeout     time.Duration
	KeepAlivePeriod time.Duration
	BackoffCap      time.Duration
}

// Harvester wires tailers to a delivery client for one node identity. On
// every successful connect the client announces the node with its stream
// list and binds the connection, so the aggregator re-learns the node
// after reconnects; each tailed line ships as an info-level +log message.
type Harvester struct {
	cfg     Config
	client  *Client
	tailers []*Tailer
	log     zerolog.Logger
}

// New builds the harvester from its configuration.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(cfg Config, logger zerolog.Logger) *Harvester {
	log := logger.With().Str("node", cfg.Node).Logger()

	client := NewClient(ClientConfig{
		Addr:            cfg.ServerAddr,
		Delimiter:       cfg.Delimiter,
		DialTimeout:     cfg.DialTimeout,
		KeepAlivePeriod: cfg.KeepAlivePeriod,
		BackoffCap:      cfg.BackoffCap,
	}, log)

	h := &Harvester{cfg: cfg, client: client, log: log}
	client.SetConnectHook(h.announcement)

	emit := func(stream, line string) {
		client.Send(protocol.CmdLog, stream, cfg.Node, "info", line)
	}
	for stream, paths := range cfg.Streams {
		for _, path := range paths {
			h.tailers = append(h.tailers, NewTailer(TailerConfig{
				Stream:       stream,
				Path:         path,
				PollInterval: cfg.PollInterval,
			}, emit, log))
		}
	}
	sort.Slice(h.tailers, func(i, j int) bool { return h.tailers[i].String() < h.tailers[j].String() })

	return h
}

// Client returns the delivery client service.
func (h *Harvester) Client() *Client {
	return h.client
}

// Tailers returns the per-path tailer services.
func (h *Harvester) Tailers() []*Tailer {
	return h.tailers
}

// StreamNames returns the configured stream names in sorted order.
func (h *Harvester) StreamNames() []string {
	names := make([]string, 0, len(h.cfg.Streams))
	for name := range h.cfg.Streams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// announcement formats the startup sequence transmitted ahead of the queue
// on every connect: the node registration with its stream list, then the
// bind that makes this connection the node's live channel.
func (h *Harvester) announcement() []string {
	return []string{
		protocol.Format(h.cfg.Delimiter, protocol.CmdRegisterNode, h.cfg.Node, strings.Join(h.StreamNames(), ",")),
		protocol.Format(h.cfg.Delimiter, protocol.CmdBind, "node", h.cfg.Node),
	}
}
