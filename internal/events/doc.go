// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

// Package events publishes topology changes and delivered log lines onto an
// in-process Watermill pub/sub bus. Relay layers subscribe to the bus
// without the server core depending on them; a new subscriber replays the
// current topology via topology.Graph.Snapshot before consuming
// incremental events.
//
// Topics:
//
//	topology.add     TopologyEvent{Kind, Name}
//	topology.pair    TopologyEvent{Kind, Name, Partner}
//	topology.remove  TopologyEvent{Kind, Name, Pairs}
//	log.delivered    LogEvent{Stream, Node, Level, Message}
//
// Each log.delivered message carries a "route" metadata key of the form
// "<stream>:<node>" so transports can fan out selectively without
// unmarshaling the payload.
//
// An optional NATS bridge (build tag "nats") republishes bus traffic to an
// external NATS deployment for cross-process consumers.
package events
