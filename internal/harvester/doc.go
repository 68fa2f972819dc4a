// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

// Package harvester implements the client side of the pipeline: tailers
// that watch log files for growth and rotation, and a delivery client that
// queues protocol messages and ships them to the aggregator over a
// persistent TCP connection with exponential reconnect backoff.
//
// The design is failure-resilient rather than lossless: lines written
// while a rotated file is being re-attached, and bytes dropped by an
// in-place truncation, are accepted gaps; queued messages survive
// reconnects but not a process crash. Nothing in this package ever
// terminates the process: every error path logs and keeps retrying.
package harvester
