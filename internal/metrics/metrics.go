// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

// Package metrics exposes Prometheus instrumentation for both binaries:
// the aggregator's protocol engine and event bus, and the harvester's
// tailers and delivery client. The server publishes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Protocol engine metrics.

	TCPConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "logtide_tcp_connections_active",
			Help: "Current number of open producer TCP connections",
		},
	)

	TCPConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logtide_tcp_connections_total",
			Help: "Total number of accepted producer TCP connections",
		},
	)

	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logtide_messages_processed_total",
			Help: "Total number of protocol messages processed by command",
		},
		[]string{"command"},
	)

	InvalidMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logtide_invalid_messages_total",
			Help: "Total number of discarded unrecognized protocol messages",
		},
	)

	LogsDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logtide_logs_delivered_total",
			Help: "Total number of log lines accepted from producers",
		},
	)

	PingsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logtide_pings_sent_total",
			Help: "Total number of liveness pings written to bound connections",
		},
	)

	PingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logtide_ping_failures_total",
			Help: "Total number of liveness ping writes that failed",
		},
	)

	// Event bus metrics.

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logtide_events_published_total",
			Help: "Total number of events published to the bus by topic",
		},
		[]string{"topic"},
	)

	// Harvester tailer metrics.

	TailerLines = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logtide_tailer_lines_total",
			Help: "Total number of log lines emitted by file tailers",
		},
	)

	TailerRotations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logtide_tailer_rotations_total",
			Help: "Total number of file rotations detected",
		},
	)

	TailerTruncations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logtide_tailer_truncations_total",
			Help: "Total number of file truncations detected (bytes skipped)",
		},
	)

	// Harvester delivery client metrics.

	DeliveryQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "logtide_delivery_queue_depth",
			Help: "Current number of queued, not yet transmitted messages",
		},
	)

	DeliveryFlushes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logtide_delivery_flushes_total",
			Help: "Total number of queue flushes written to the server",
		},
	)

	DeliveryFlushedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logtide_delivery_flushed_bytes_total",
			Help: "Total bytes written to the server by queue flushes",
		},
	)

	DeliveryReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logtide_delivery_reconnects_total",
			Help: "Total number of reconnect attempts by the delivery client",
		},
	)
)
