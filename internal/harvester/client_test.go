// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

package harvester

import (
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/logtide/internal/protocol"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// fakeServer accepts connections and records everything received.
type fakeServer struct {
	listener net.Listener

	mu      sync.Mutex
	data    strings.Builder
	accepts int
	conns   []net.Conn
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeServer{listener: listener}
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.accepts++
			s.conns = append(s.conns, conn)
			s.mu.Unlock()
			go s.drain(conn)
		}
	}()
	return s
}

func (s *fakeServer) drain(conn net.Conn) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.data.Write(buf[:n])
			s.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

func (s *fakeServer) addr() string {
	return s.listener.Addr().String()
}

func (s *fakeServer) received() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.String()
}

func (s *fakeServer) acceptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepts
}

// closeConns closes every accepted connection, simulating a server drop.
func (s *fakeServer) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		conn.Close()
	}
	s.conns = nil
}

func TestSendConnectsAndDelivers(t *testing.T) {
	server := newFakeServer(t)
	client := NewClient(ClientConfig{Addr: server.addr()}, testLogger())
	defer client.Close()

	client.Send(protocol.CmdLog, "s1", "n1", "info", "hello")

	waitFor(t, "message delivered", func() bool {
		return server.received() == "+log|s1|n1|info|hello\r\n"
	})
	if client.State() != StateConnected {
		t.Errorf("state = %v, want connected", client.State())
	}
	if client.QueueDepth() != 0 {
		t.Errorf("queue depth = %d, want 0", client.QueueDepth())
	}
}

func TestQueueFlushPreservesOrder(t *testing.T) {
	// Messages queued while no server is reachable must arrive in their
	// original order, concatenated into one payload, once a connection
	// succeeds.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	client := NewClient(ClientConfig{Addr: addr}, testLogger())
	defer client.Close()

	client.Send(protocol.CmdLog, "s1", "n1", "info", "first")
	client.Send(protocol.CmdLog, "s1", "n1", "info", "second")
	client.Send(protocol.CmdLog, "s1", "n1", "info", "third")

	waitFor(t, "messages queued", func() bool { return client.QueueDepth() == 3 })
	if client.State() == StateConnected {
		t.Fatal("client connected with no server listening")
	}

	// Resurrect the server on the same address; the next retry flushes
	// the whole backlog.
	server, err := net.Listen("tcp", addr)
	if err != nil {
		t.Fatalf("relisten: %v", err)
	}
	defer server.Close()
	received := make(chan string, 1)
	go func() {
		conn, err := server.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 4096)
		var got strings.Builder
		for !strings.HasSuffix(got.String(), "third\r\n") {
			n, err := conn.Read(buf)
			got.Write(buf[:n])
			if err != nil {
				break
			}
		}
		received <- got.String()
	}()

	want := "+log|s1|n1|info|first\r\n+log|s1|n1|info|second\r\n+log|s1|n1|info|third\r\n"
	select {
	case got := <-received:
		if got != want {
			t.Errorf("flushed payload = %q, want %q", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("backlog never flushed after server came up")
	}

	waitFor(t, "queue drained", func() bool { return client.QueueDepth() == 0 })
}

func TestConnectHookPrecedesQueuedMessages(t *testing.T) {
	server := newFakeServer(t)
	client := NewClient(ClientConfig{Addr: server.addr()}, testLogger())
	defer client.Close()
	client.SetConnectHook(func() []string {
		return []string{"+node|n1|s1\r\n", "+bind|node|n1\r\n"}
	})

	client.Send(protocol.CmdLog, "s1", "n1", "info", "hello")

	want := "+node|n1|s1\r\n+bind|node|n1\r\n+log|s1|n1|info|hello\r\n"
	waitFor(t, "announcement before backlog", func() bool { return server.received() == want })
}

func TestClientReconnectsAfterServerDrop(t *testing.T) {
	server := newFakeServer(t)
	client := NewClient(ClientConfig{Addr: server.addr()}, testLogger())
	defer client.Close()

	client.Send(protocol.CmdLog, "s1", "n1", "info", "one")
	waitFor(t, "first connect", func() bool { return server.acceptCount() == 1 })
	waitFor(t, "first delivery", func() bool { return strings.Contains(server.received(), "one") })

	server.closeConns()
	waitFor(t, "drop detected", func() bool { return client.State() != StateConnected })

	// The retry counter was reset by the successful connect, so the
	// client dials again promptly rather than resuming a grown delay.
	waitFor(t, "reconnect", func() bool { return server.acceptCount() == 2 })

	client.Send(protocol.CmdLog, "s1", "n1", "info", "two")
	waitFor(t, "post-reconnect delivery", func() bool { return strings.Contains(server.received(), "two") })
}

func TestCloseStopsRetrying(t *testing.T) {
	client := NewClient(ClientConfig{Addr: "127.0.0.1:1"}, testLogger())
	client.Send(protocol.CmdLog, "s1", "n1", "info", "doomed")
	client.Close()

	waitFor(t, "client settles", func() bool { return client.State() == StateDisconnected })
}

func TestRetryBackoffDoubles(t *testing.T) {
	b := newRetryBackoff(0)
	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	for i, w := range want {
		if got := b.NextBackOff(); got != w {
			t.Errorf("delay[%d] = %v, want %v", i, got, w)
		}
	}

	// A successful connect resets the schedule to 2^0.
	b.Reset()
	if got := b.NextBackOff(); got != time.Second {
		t.Errorf("delay after reset = %v, want 1s", got)
	}
}

func TestRetryBackoffCap(t *testing.T) {
	b := newRetryBackoff(3 * time.Second)
	want := []time.Duration{1 * time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}
	for i, w := range want {
		if got := b.NextBackOff(); got != w {
			t.Errorf("delay[%d] = %v, want %v", i, got, w)
		}
	}
}

func TestStateString(t *testing.T) {
	states := map[State]string{
		StateDisconnected: "disconnected",
		StateConnecting:   "connecting",
		StateConnected:    "connected",
		StateReconnecting: "reconnecting",
		State(99):         "unknown",
	}
	for state, want := range states {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
