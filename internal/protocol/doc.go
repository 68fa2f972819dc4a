// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

// Package protocol implements the line-delimited wire protocol shared by the
// aggregator and harvesters: delimiter-based message framing over a byte
// stream, and the pipe-separated command syntax layered on top of it.
//
// Wire format (UTF-8 text, default delimiter "\r\n"):
//
//	+log|<stream>|<node>|<level>|<message...>
//	+node|<name>[|<csvStreamNames>]
//	+stream|<name>[|<csvNodeNames>]
//	-node|<name>
//	-stream|<name>
//	+bind|<kind>|<name>
//
// Message content after the fourth +log field may itself contain "|"; the
// parser rejoins those fragments rather than dropping them.
package protocol
