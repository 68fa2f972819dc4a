// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

package topology

import (
	"sort"
	"sync"
)

// Kind identifies which side of the bipartite graph an entity belongs to.
type Kind string

const (
	// KindNode is a named log source.
	KindNode Kind = "node"

	// KindStream is a named log category.
	KindStream Kind = "stream"
)

// Partner returns the kind an entity of this kind pairs with. Entities of
// one kind pair only with entities of the other kind, never same-kind.
func (k Kind) Partner() Kind {
	if k == KindNode {
		return KindStream
	}
	return KindNode
}

// Valid reports whether k is a recognized kind.
func (k Kind) Valid() bool {
	return k == KindNode || k == KindStream
}

// Entity is a node or stream together with the names of its current
// partners. Entities are owned by the graph; callers receive copies.
type Entity struct {
	Kind  Kind
	Name  string
	pairs map[string]struct{}
}

// Pairs returns the entity's partner names in sorted order.
func (e *Entity) Pairs() []string {
	names := make([]string, 0, len(e.pairs))
	for name := range e.pairs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Paired reports whether the entity is paired with the named partner.
func (e *Entity) Paired(name string) bool {
	_, ok := e.pairs[name]
	return ok
}

// Sink receives change notifications from the graph. Implementations must
// not call back into the graph; notifications are delivered synchronously
// with the graph lock held, in mutation order.
type Sink interface {
	EntityAdded(kind Kind, name string)
	PairAdded(kind Kind, name, partner string)
	EntityRemoved(kind Kind, name string, pairs []string)
	LogDelivered(stream, node, level, message string)
}

// Delivery is the result of recording a log message: resolved handles to
// both entities plus the payload for the caller to forward.
type Delivery struct {
	Stream  *Entity
	Node    *Entity
	Level   string
	Message string
}

// Graph is the shared node/stream topology. The zero value is not usable;
// construct with New.
type Graph struct {
	mu      sync.RWMutex
	nodes   map[string]*Entity
	streams map[string]*Entity
	sink    Sink
}

// New creates an empty graph. A nil sink disables notifications.
func New(sink Sink) *Graph {
	return &Graph{
		nodes:   make(map[string]*Entity),
		streams: make(map[string]*Entity),
		sink:    sink,
	}
}

// Register gets or creates the named entity of the given kind and pairs it
// with each named partner, creating absent partners on first mention. It is
// idempotent for names already paired and never rejects input.
func (g *Graph) Register(kind Kind, name string, partners []string) {
	if !kind.Valid() || name == "" {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	entity := g.getOrCreate(kind, name)
	for _, partner := range partners {
		if partner == "" {
			continue
		}
		g.pair(entity, g.getOrCreate(kind.Partner(), partner))
	}
}

// Remove deletes the named entity and strips the reverse reference from
// every current partner. Partners left with zero pairs are not removed.
// Removing an absent entity is a no-op.
func (g *Graph) Remove(kind Kind, name string) {
	if !kind.Valid() {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	collection := g.collection(kind)
	entity, ok := collection[name]
	if !ok {
		return
	}

	pairs := entity.Pairs()
	reverse := g.collection(kind.Partner())
	for _, partner := range pairs {
		if p, ok := reverse[partner]; ok {
			delete(p.pairs, name)
		}
	}
	delete(collection, name)

	if g.sink != nil {
		g.sink.EntityRemoved(kind, name, pairs)
	}
}

// RecordLog ensures the stream and node exist and are paired with each
// other, auto-registering either on first mention, and returns handles to
// both plus the payload.
func (g *Graph) RecordLog(streamName, nodeName, level, message string) Delivery {
	g.mu.Lock()
	defer g.mu.Unlock()

	stream := g.getOrCreate(KindStream, streamName)
	node := g.getOrCreate(KindNode, nodeName)
	g.pair(stream, node)

	if g.sink != nil {
		g.sink.LogDelivered(streamName, nodeName, level, message)
	}
	return Delivery{Stream: stream, Node: node, Level: level, Message: message}
}

// Lookup reports whether the named entity of the given kind exists.
func (g *Graph) Lookup(kind Kind, name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.collection(kind)[name]
	return ok
}

// Pairs returns the partner names of the named entity, or nil when absent.
func (g *Graph) Pairs(kind Kind, name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	entity, ok := g.collection(kind)[name]
	if !ok {
		return nil
	}
	return entity.Pairs()
}

func (g *Graph) collection(kind Kind) map[string]*Entity {
	if kind == KindNode {
		return g.nodes
	}
	return g.streams
}

// getOrCreate must be called with the write lock held.
func (g *Graph) getOrCreate(kind Kind, name string) *Entity {
	collection := g.collection(kind)
	if entity, ok := collection[name]; ok {
		return entity
	}
	entity := &Entity{Kind: kind, Name: name, pairs: make(map[string]struct{})}
	collection[name] = entity
	if g.sink != nil {
		g.sink.EntityAdded(kind, name)
	}
	return entity
}

// pair establishes the bidirectional association between a and b. It must
// be called with the write lock held; a and b must be of opposite kinds.
func (g *Graph) pair(a, b *Entity) {
	if _, ok := a.pairs[b.Name]; ok {
		return
	}
	a.pairs[b.Name] = struct{}{}
	b.pairs[a.Name] = struct{}{}
	if g.sink != nil {
		g.sink.PairAdded(a.Kind, a.Name, b.Name)
	}
}
