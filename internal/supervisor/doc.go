// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

// Package supervisor builds the suture supervision tree that runs
// Logtide's long-lived services: the TCP ingest engine, the event
// forwarding layer, harvester tailers and the delivery client, and the
// HTTP observability server.
package supervisor
