// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

// Package topology maintains the in-memory bipartite graph of nodes and
// streams that the aggregator serves to downstream consumers.
//
// A Node is a named log source (a host or service instance). A Stream is a
// named log category. Pairings between them are always bidirectional: if a
// node lists a stream, that stream lists the node under the same two names.
// Node names and stream names form independent namespaces, so a node and a
// stream may share the same textual name.
//
// The graph owns both name-indexed collections; entities reference their
// partners by name only, and all lookups go through the graph. Mutations
// cascade safely: removing an entity strips its name from every partner's
// pair set without deleting partners left with an empty set.
//
// All operations are safe for concurrent use. Registered sinks are invoked
// with the graph lock held and must not call back into the graph.
package topology
