// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

package topology

import "sort"

// EntityState is a point-in-time copy of one entity for replay to a newly
// attached consumer.
type EntityState struct {
	Name  string   `json:"name"`
	Pairs []string `json:"pairs"`
}

// Snapshot is a consistent copy of the full topology.
type Snapshot struct {
	Nodes   []EntityState `json:"nodes"`
	Streams []EntityState `json:"streams"`
}

// Snapshot returns a deep copy of the current topology, ordered by name on
// both sides. Relays replay this to new subscribers before streaming
// incremental events.
func (g *Graph) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Snapshot{
		Nodes:   copyCollection(g.nodes),
		Streams: copyCollection(g.streams),
	}
}

func copyCollection(collection map[string]*Entity) []EntityState {
	states := make([]EntityState, 0, len(collection))
	for _, entity := range collection {
		states = append(states, EntityState{Name: entity.Name, Pairs: entity.Pairs()})
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Name < states[j].Name })
	return states
}
