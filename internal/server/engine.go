// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/logtide/internal/metrics"
	"github.com/tomtom215/logtide/internal/topology"
)

// Config holds protocol engine configuration.
type Config struct {
	// Host and Port form the TCP listen address.
	Host string
	Port int

	// Delimiter terminates protocol messages. Default: "\r\n".
	Delimiter string

	// PingInterval is the liveness ping period for bound connections.
	// Default: 2s.
	PingInterval time.Duration
}

// Engine is the TCP protocol engine. It implements suture.Service.
type Engine struct {
	cfg   Config
	graph *topology.Graph
	log   zerolog.Logger

	// invalidLimit throttles invalid-message warnings so one misbehaving
	// producer cannot flood the server log.
	invalidLimit *rate.Limiter

	// addr holds the bound net.Addr once the listener is up.
	addr atomic.Value
}

// New creates an engine serving the given graph.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(cfg Config, graph *topology.Graph, logger zerolog.Logger) *Engine {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 2 * time.Second
	}
	return &Engine{
		cfg:          cfg,
		graph:        graph,
		log:          logger,
		invalidLimit: rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// Serve implements suture.Service. It listens until ctx is canceled,
// handling each accepted connection on its own goroutine.
func (e *Engine) Serve(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	e.addr.Store(listener.Addr())
	e.log.Info().Stringer("addr", listener.Addr()).Msg("protocol engine listening")

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		sock, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			// Transient accept errors must not stop the listener.
			e.log.Warn().Err(err).Msg("accept")
			continue
		}

		metrics.TCPConnectionsTotal.Inc()
		metrics.TCPConnectionsActive.Inc()
		go e.handle(ctx, sock)
	}
}

// String implements fmt.Stringer for supervisor logging.
func (e *Engine) String() string {
	return "tcp-engine"
}

// Addr returns the listener's address once Serve has bound it, or nil.
// Listening on port 0 resolves to the kernel-assigned port.
func (e *Engine) Addr() net.Addr {
	if addr, ok := e.addr.Load().(net.Addr); ok {
		return addr
	}
	return nil
}

// logInvalid records a discarded message and logs it, rate limited.
func (e *Engine) logInvalid(remote net.Addr, raw string) {
	metrics.InvalidMessages.Inc()
	if e.invalidLimit.Allow() {
		if len(raw) > 256 {
			raw = raw[:256]
		}
		e.log.Warn().Stringer("remote", remote).Str("message", raw).Msg("invalid message discarded")
	}
}
