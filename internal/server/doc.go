// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

// Package server implements the aggregator's TCP protocol engine: it
// accepts producer connections, frames and dispatches protocol messages
// into the topology graph, pings bound connections to keep them warm, and
// removes a connection's bound node when the connection goes away.
//
// Every accepted connection is handled by its own goroutine, so messages
// within one connection are processed strictly in arrival order while
// connections never block each other. No ordering is guaranteed across
// connections.
//
// Failure policy: unrecognized messages are logged and discarded with the
// connection left open; per-connection errors tear down only that
// connection; the listener keeps accepting until its context is canceled.
package server
