// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

//go:build !nats

package events

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ForwarderConfig configures the NATS bridge.
// This is a stub for non-NATS builds.
type ForwarderConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// Forwarder is a stub for non-NATS builds.
type Forwarder struct{}

// NewForwarder returns an error in non-NATS builds.
//
//nolint:gocritic // signature mirrors the nats build
func NewForwarder(_ *Bus, _ ForwarderConfig, _ zerolog.Logger) (*Forwarder, error) {
	return nil, ErrNATSNotEnabled
}

// Serve is a no-op stub.
func (f *Forwarder) Serve(_ context.Context) error {
	return ErrNATSNotEnabled
}

// String implements fmt.Stringer.
func (f *Forwarder) String() string {
	return "nats-forwarder"
}
