// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

package server

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/logtide/internal/metrics"
	"github.com/tomtom215/logtide/internal/protocol"
	"github.com/tomtom215/logtide/internal/topology"
)

// pingPayload is written bare to bound connections; the receiver needs no
// delimiter, the write only keeps the socket warm and surfaces dead peers.
var pingPayload = []byte("ping")

// conn is the per-connection state: the framing buffer and the optional
// node binding. Each conn is driven by exactly one read goroutine; only
// the binding is shared with the ping goroutine.
type conn struct {
	engine *Engine
	sock   net.Conn
	framer *protocol.Framer
	log    zerolog.Logger

	mu        sync.Mutex
	boundNode string
	pinging   bool

	closeOnce sync.Once
	done      chan struct{}
}

// handle owns the connection until it errors, closes, or ctx is canceled.
func (e *Engine) handle(ctx context.Context, sock net.Conn) {
	c := &conn{
		engine: e,
		sock:   sock,
		framer: protocol.NewFramer(e.cfg.Delimiter),
		log:    e.log.With().Stringer("remote", sock.RemoteAddr()).Logger(),
		done:   make(chan struct{}),
	}
	defer c.teardown()

	go func() {
		select {
		case <-ctx.Done():
			sock.Close()
		case <-c.done:
		}
	}()

	c.log.Debug().Msg("connection accepted")

	buf := make([]byte, 4096)
	for {
		n, err := sock.Read(buf)
		if n > 0 {
			for _, raw := range c.framer.Append(buf[:n]) {
				c.dispatch(raw)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				c.log.Debug().Err(err).Msg("connection error")
			}
			return
		}
	}
}

// dispatch applies one framed message to the topology graph.
func (c *conn) dispatch(raw string) {
	command, fields := protocol.Parse(raw)
	graph := c.engine.graph

	switch command {
	case protocol.CmdLog:
		if len(fields) < 4 || fields[0] == "" || fields[1] == "" {
			c.engine.logInvalid(c.sock.RemoteAddr(), raw)
			return
		}
		graph.RecordLog(fields[0], fields[1], fields[2], protocol.JoinTail(fields, 3))
		metrics.LogsDelivered.Inc()

	case protocol.CmdRegisterNode, protocol.CmdRegisterStream:
		if len(fields) < 1 {
			c.engine.logInvalid(c.sock.RemoteAddr(), raw)
			return
		}
		kind := topology.KindNode
		if command == protocol.CmdRegisterStream {
			kind = topology.KindStream
		}
		var partners []string
		if len(fields) > 1 {
			partners = protocol.SplitCSV(fields[1])
		}
		graph.Register(kind, fields[0], partners)

	case protocol.CmdRemoveNode:
		if len(fields) < 1 {
			c.engine.logInvalid(c.sock.RemoteAddr(), raw)
			return
		}
		graph.Remove(topology.KindNode, fields[0])

	case protocol.CmdRemoveStream:
		if len(fields) < 1 {
			c.engine.logInvalid(c.sock.RemoteAddr(), raw)
			return
		}
		graph.Remove(topology.KindStream, fields[0])

	case protocol.CmdBind:
		// The object-kind field exists on the wire but only nodes bind, so
		// everything past its presence is ignored.
		if len(fields) < 2 {
			c.engine.logInvalid(c.sock.RemoteAddr(), raw)
			return
		}
		c.bind(fields[1])

	default:
		c.engine.logInvalid(c.sock.RemoteAddr(), raw)
		return
	}

	metrics.MessagesProcessed.WithLabelValues(string(command)).Inc()
}

// bind marks this connection as the live channel for the named node and
// starts the liveness ping loop. Binding to an unknown node is a no-op.
func (c *conn) bind(node string) {
	if !c.engine.graph.Lookup(topology.KindNode, node) {
		c.log.Debug().Str("node", node).Msg("bind to unknown node ignored")
		return
	}

	c.mu.Lock()
	c.boundNode = node
	startPing := !c.pinging
	c.pinging = true
	c.mu.Unlock()

	c.log.Info().Str("node", node).Msg("connection bound")
	if startPing {
		go c.pingLoop()
	}
}

// bound returns the currently bound node name, if any.
func (c *conn) bound() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boundNode
}

// pingLoop writes the ping payload every PingInterval for as long as the
// binding remains. A failed write closes the socket, which unwinds the
// read loop into teardown.
func (c *conn) pingLoop() {
	ticker := time.NewTicker(c.engine.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if c.bound() == "" {
				continue
			}
			if _, err := c.sock.Write(pingPayload); err != nil {
				metrics.PingFailures.Inc()
				c.log.Debug().Err(err).Msg("ping write failed")
				c.sock.Close()
				return
			}
			metrics.PingsSent.Inc()
		}
	}
}

// teardown closes the connection and, if it was bound, removes the bound
// node from the topology: the node going away is the offline signal for
// downstream consumers.
func (c *conn) teardown() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.sock.Close()
		metrics.TCPConnectionsActive.Dec()

		if node := c.bound(); node != "" {
			c.log.Info().Str("node", node).Msg("bound connection closed, removing node")
			c.engine.graph.Remove(topology.KindNode, node)
		} else {
			c.log.Debug().Msg("connection closed")
		}
	})
}
