// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

//go:build nats

package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

// ForwarderConfig configures the NATS bridge.
type ForwarderConfig struct {
	// URL is the NATS server URL, e.g. nats://127.0.0.1:4222.
	URL string

	// SubjectPrefix is prepended to each bus topic to form the NATS
	// subject, e.g. "logtide" publishes to logtide.log.delivered.
	SubjectPrefix string

	// MaxReconnects and ReconnectWait tune the client's reconnect loop.
	MaxReconnects int
	ReconnectWait time.Duration
}

// forwardedTopics lists the bus topics the bridge republishes.
var forwardedTopics = []string{
	TopicTopologyAdd,
	TopicTopologyPair,
	TopicTopologyRemove,
	TopicLogDelivered,
}

// Forwarder republishes bus events to an external NATS deployment so
// cross-process relays can consume them. The publish path is wrapped in a
// circuit breaker: while NATS is down the breaker sheds events instead of
// backing the bus up.
type Forwarder struct {
	bus       *Bus
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[any]
	prefix    string
	log       zerolog.Logger
}

// NewForwarder connects to NATS and returns a supervised bridge service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewForwarder(bus *Bus, cfg ForwarderConfig, logger zerolog.Logger) (*Forwarder, error) {
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	}

	publisher, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, newWatermillLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "nats-forwarder",
		Timeout: 30 * time.Second,
	})

	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "logtide"
	}

	return &Forwarder{
		bus:       bus,
		publisher: publisher,
		breaker:   breaker,
		prefix:    prefix,
		log:       logger,
	}, nil
}

// Serve implements suture.Service. It consumes every forwarded topic until
// ctx is canceled.
func (f *Forwarder) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, topic := range forwardedTopics {
		messages, err := f.bus.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		wg.Add(1)
		go func(topic string, messages <-chan *message.Message) {
			defer wg.Done()
			f.forward(topic, messages)
		}(topic, messages)
	}
	wg.Wait()

	if err := f.publisher.Close(); err != nil {
		f.log.Warn().Err(err).Msg("close nats publisher")
	}
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logging.
func (f *Forwarder) String() string {
	return "nats-forwarder"
}

// forward republishes one topic's messages until the subscription closes.
// Failed publishes are acked and dropped; the bus is best-effort and a
// nack would only redeliver into the same open breaker.
func (f *Forwarder) forward(topic string, messages <-chan *message.Message) {
	subject := f.prefix + "." + topic
	for msg := range messages {
		_, err := f.breaker.Execute(func() (any, error) {
			return nil, f.publisher.Publish(subject, msg)
		})
		if err != nil {
			f.log.Warn().Err(err).Str("subject", subject).Msg("forward event")
		}
		msg.Ack()
	}
}
