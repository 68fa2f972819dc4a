// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

package harvester

import (
	"context"
	"math"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/logtide/internal/metrics"
	"github.com/tomtom215/logtide/internal/protocol"
)

// State is the delivery client's connection state.
type State int32

// Client states. There is no terminal failure state; the client retries
// for the life of the process.
const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// ClientConfig configures the delivery client.
type ClientConfig struct {
	// Addr is the aggregator's host:port.
	Addr string

	// Delimiter terminates outgoing messages. Default: "\r\n".
	Delimiter string

	// DialTimeout bounds each connect attempt; on expiry the connection
	// is destroyed and the client re-enters reconnecting. Default: 5s.
	DialTimeout time.Duration

	// KeepAlivePeriod enables TCP keep-alive on established connections.
	// Default: 30s.
	KeepAlivePeriod time.Duration

	// BackoffCap bounds the reconnect delay. Zero leaves the doubling
	// unbounded, matching the original design.
	BackoffCap time.Duration
}

// ConnectHook returns preformatted wire messages to transmit ahead of the
// queue on every successful connect. The harvester uses it to announce its
// node identity and binding, so the aggregator re-learns the node after
// any reconnect.
type ConnectHook func() []string

// Client queues formatted protocol messages and ships them to the
// aggregator, reconnecting forever with exponential backoff. Send never
// blocks on a dead connection and never drops: while disconnected,
// messages accumulate in the queue and the whole backlog is written as a
// single payload once a connection is established.
//
// Client implements suture.Service; Serve owns the connection lifecycle
// and closes it on context cancellation.
type Client struct {
	cfg  ClientConfig
	log  zerolog.Logger
	hook ConnectHook

	mu      sync.Mutex
	queue   []string
	conn    net.Conn
	state   State
	dialing bool
	closed  bool
	retry   *backoff.ExponentialBackOff

	// ctx governs dial attempts; replaced when Serve starts.
	ctx context.Context
}

// NewClient creates a delivery client.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	if cfg.Delimiter == "" {
		cfg.Delimiter = protocol.DefaultDelimiter
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.KeepAlivePeriod <= 0 {
		cfg.KeepAlivePeriod = 30 * time.Second
	}
	return &Client{
		cfg:   cfg,
		log:   logger.With().Str("component", "delivery").Str("addr", cfg.Addr).Logger(),
		retry: newRetryBackoff(cfg.BackoffCap),
		ctx:   context.Background(),
	}
}

// SetConnectHook installs the on-connect announcement hook. Must be called
// before the client starts connecting.
func (c *Client) SetConnectHook(hook ConnectHook) {
	c.hook = hook
}

// Serve implements suture.Service: it starts the first connect attempt,
// then holds the connection open until ctx is canceled.
func (c *Client) Serve(ctx context.Context) error {
	c.mu.Lock()
	c.ctx = ctx
	c.closed = false
	c.ensureDialLocked()
	c.mu.Unlock()

	<-ctx.Done()
	c.Close()
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logging.
func (c *Client) String() string {
	return "delivery-client"
}

// Send formats one message, queues it, and attempts a connect-and-flush.
func (c *Client) Send(cmd protocol.Command, args ...string) {
	msg := protocol.Format(c.cfg.Delimiter, cmd, args...)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, msg)
	metrics.DeliveryQueueDepth.Set(float64(len(c.queue)))

	if c.state == StateConnected {
		c.flushLocked()
		return
	}
	c.ensureDialLocked()
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// QueueDepth returns the number of not-yet-transmitted messages.
func (c *Client) QueueDepth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Close tears the connection down and stops reconnecting. Queued messages
// stay in memory and are lost when the process exits.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.state = StateDisconnected
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	return nil
}

// ensureDialLocked starts the dial loop unless one is already running.
// Must be called with mu held.
func (c *Client) ensureDialLocked() {
	if c.dialing || c.closed || c.state == StateConnected {
		return
	}
	c.dialing = true
	c.state = StateConnecting
	go c.dialLoop(c.ctx)
}

// dialLoop attempts to connect until it succeeds, the context is
// canceled, or the client is closed. Delay before attempt k is 2^k
// seconds; the counter resets only on a successful connect.
func (c *Client) dialLoop(ctx context.Context) {
	for {
		c.mu.Lock()
		if c.closed || ctx.Err() != nil {
			c.dialing = false
			c.state = StateDisconnected
			c.mu.Unlock()
			return
		}
		c.state = StateConnecting
		c.mu.Unlock()

		metrics.DeliveryReconnects.Inc()
		dialer := net.Dialer{Timeout: c.cfg.DialTimeout, KeepAlive: c.cfg.KeepAlivePeriod}
		conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Addr)
		if err == nil {
			c.establish(conn)
			return
		}

		c.mu.Lock()
		c.state = StateReconnecting
		c.mu.Unlock()

		delay := c.retry.NextBackOff()
		c.log.Warn().Err(err).Dur("retry_in", delay).Msg("connect failed")
		select {
		case <-ctx.Done():
		case <-time.After(delay):
		}
	}
}

// establish adopts a fresh connection: disable Nagle buffering, reset the
// retry counter, replay the connect hook, and flush the backlog in one
// write.
func (c *Client) establish(conn net.Conn) {
	if tcp, ok := conn.(*net.TCPConn); ok {
		tcp.SetNoDelay(true)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.state = StateConnected
	c.dialing = false
	c.retry.Reset()
	if c.hook != nil {
		c.queue = append(c.hook(), c.queue...)
	}
	c.flushLocked()
	c.mu.Unlock()

	c.log.Info().Msg("connected")
	go c.readLoop(conn)
}

// flushLocked detaches the entire queue and writes it as a single payload.
// No-op unless fully connected. On a write failure the unwritten bytes are
// requeued ahead of anything queued since, the connection is destroyed,
// and reconnection begins. Must be called with mu held.
func (c *Client) flushLocked() {
	if c.conn == nil || c.state != StateConnected || len(c.queue) == 0 {
		return
	}

	payload := strings.Join(c.queue, "")
	c.queue = nil
	metrics.DeliveryQueueDepth.Set(0)

	n, err := c.conn.Write([]byte(payload))
	if err != nil {
		c.log.Warn().Err(err).Msg("flush failed, requeueing")
		c.queue = append([]string{payload[n:]}, c.queue...)
		metrics.DeliveryQueueDepth.Set(float64(len(c.queue)))
		c.conn.Close()
		c.conn = nil
		c.state = StateReconnecting
		c.ensureDialLocked()
		return
	}

	metrics.DeliveryFlushes.Inc()
	metrics.DeliveryFlushedBytes.Add(float64(n))
}

// readLoop drains inbound bytes (server liveness pings) and detects the
// peer going away.
func (c *Client) readLoop(conn net.Conn) {
	buf := make([]byte, 512)
	for {
		if _, err := conn.Read(buf); err != nil {
			c.handleDisconnect(conn, err)
			return
		}
	}
}

// handleDisconnect transitions to reconnecting when the active connection
// drops. Stale connections from earlier generations are ignored.
func (c *Client) handleDisconnect(conn net.Conn, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn {
		return
	}
	conn.Close()
	c.conn = nil
	if c.closed {
		c.state = StateDisconnected
		return
	}
	c.log.Warn().Err(err).Msg("connection lost")
	c.state = StateReconnecting
	c.ensureDialLocked()
}

// newRetryBackoff builds the 1s, 2s, 4s... doubling schedule. A zero cap
// leaves the growth unbounded.
func newRetryBackoff(limit time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	if limit > 0 {
		b.MaxInterval = limit
	} else {
		b.MaxInterval = time.Duration(math.MaxInt64)
	}
	b.Reset()
	return b
}
