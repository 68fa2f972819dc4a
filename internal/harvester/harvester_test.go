// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

package harvester

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestHarvesterWiring(t *testing.T) {
	h := New(Config{
		Node: "web01",
		Streams: map[string][]string{
			"errors": {"/var/log/app/err.log"},
			"access": {"/var/log/app/a1.log", "/var/log/app/a2.log"},
		},
		ServerAddr: "127.0.0.1:28777",
	}, testLogger())

	if got := h.StreamNames(); !reflect.DeepEqual(got, []string{"access", "errors"}) {
		t.Errorf("StreamNames = %v, want [access errors]", got)
	}
	if len(h.Tailers()) != 3 {
		t.Errorf("tailer count = %d, want 3", len(h.Tailers()))
	}
}

func TestAnnouncementSequence(t *testing.T) {
	h := New(Config{
		Node:       "web01",
		Streams:    map[string][]string{"access": {"/tmp/a.log"}, "errors": {"/tmp/e.log"}},
		ServerAddr: "127.0.0.1:28777",
	}, testLogger())

	want := []string{
		"+node|web01|access,errors\r\n",
		"+bind|node|web01\r\n",
	}
	if got := h.announcement(); !reflect.DeepEqual(got, want) {
		t.Errorf("announcement = %v, want %v", got, want)
	}
}

func TestHarvesterEndToEnd(t *testing.T) {
	// Tailed lines reach a fake aggregator as +log messages, preceded by
	// the node announcement and bind.
	server := newFakeServer(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("create log file: %v", err)
	}

	h := New(Config{
		Node:         "web01",
		Streams:      map[string][]string{"app": {path}},
		ServerAddr:   server.addr(),
		PollInterval: 20 * time.Millisecond,
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = h.Client().Serve(ctx) }()
	for _, tailer := range h.Tailers() {
		go func() { _ = tailer.Serve(ctx) }()
	}

	waitFor(t, "announcement", func() bool {
		return strings.HasPrefix(server.received(), "+node|web01|app\r\n+bind|node|web01\r\n")
	})

	time.Sleep(200 * time.Millisecond)
	appendTo(t, path, "something happened\n")

	waitFor(t, "log line shipped", func() bool {
		return strings.Contains(server.received(), "+log|app|web01|info|something happened\r\n")
	})
}
