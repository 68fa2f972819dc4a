// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/logtide/internal/metrics"
	"github.com/tomtom215/logtide/internal/topology"
)

// Bus topics.
const (
	TopicTopologyAdd    = "topology.add"
	TopicTopologyPair   = "topology.pair"
	TopicTopologyRemove = "topology.remove"
	TopicLogDelivered   = "log.delivered"
)

// MetadataRouteKey is the metadata key carrying the "<stream>:<node>"
// routing key on log.delivered messages.
const MetadataRouteKey = "route"

// TopologyEvent is the payload for the three topology.* topics. Pairs is
// set on removals (the pair list at removal time); Partner is set on pair
// additions.
type TopologyEvent struct {
	Kind    string   `json:"kind"`
	Name    string   `json:"name"`
	Partner string   `json:"partner,omitempty"`
	Pairs   []string `json:"pairs,omitempty"`
}

// LogEvent is the payload for log.delivered.
type LogEvent struct {
	Stream  string `json:"stream"`
	Node    string `json:"node"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// RouteKey returns the selective-delivery key for this log event.
func (e LogEvent) RouteKey() string {
	return e.Stream + ":" + e.Node
}

// Bus is an in-process pub/sub bus over Watermill's GoChannel transport.
// It implements topology.Sink so the graph publishes through it directly.
type Bus struct {
	pubSub *gochannel.GoChannel
	log    zerolog.Logger
}

// interface guard
var _ topology.Sink = (*Bus)(nil)

// NewBus creates a bus with a buffered output channel per subscriber.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewBus(logger zerolog.Logger) *Bus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		newWatermillLogger(logger),
	)
	return &Bus{pubSub: pubSub, log: logger}
}

// Subscribe returns a channel of messages for the given topic. The channel
// closes when ctx is canceled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubSub.Subscribe(ctx, topic)
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() error {
	return b.pubSub.Close()
}

// EntityAdded implements topology.Sink.
func (b *Bus) EntityAdded(kind topology.Kind, name string) {
	b.publish(TopicTopologyAdd, TopologyEvent{Kind: string(kind), Name: name}, nil)
}

// PairAdded implements topology.Sink.
func (b *Bus) PairAdded(kind topology.Kind, name, partner string) {
	b.publish(TopicTopologyPair, TopologyEvent{Kind: string(kind), Name: name, Partner: partner}, nil)
}

// EntityRemoved implements topology.Sink.
func (b *Bus) EntityRemoved(kind topology.Kind, name string, pairs []string) {
	b.publish(TopicTopologyRemove, TopologyEvent{Kind: string(kind), Name: name, Pairs: pairs}, nil)
}

// LogDelivered implements topology.Sink.
func (b *Bus) LogDelivered(stream, node, level, msg string) {
	event := LogEvent{Stream: stream, Node: node, Level: level, Message: msg}
	b.publish(TopicLogDelivered, event, message.Metadata{MetadataRouteKey: event.RouteKey()})
}

// publish serializes and publishes one event. Publish failures are logged
// and dropped; the graph mutation has already happened and sinks cannot
// reject it.
func (b *Bus) publish(topic string, payload any, metadata message.Metadata) {
	raw, err := json.Marshal(payload)
	if err != nil {
		b.log.Error().Err(err).Str("topic", topic).Msg("marshal event")
		return
	}

	msg := message.NewMessage(uuid.New().String(), raw)
	for key, value := range metadata {
		msg.Metadata.Set(key, value)
	}

	if err := b.pubSub.Publish(topic, msg); err != nil {
		b.log.Error().Err(err).Str("topic", topic).Msg("publish event")
		return
	}
	metrics.EventsPublished.WithLabelValues(topic).Inc()
}
