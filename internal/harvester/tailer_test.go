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
	"sync"
	"testing"
	"time"
)

// collector gathers emitted lines across goroutines.
type collector struct {
	mu    sync.Mutex
	lines []string
}

func (c *collector) emit(_, line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
}

func (c *collector) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// startTailer runs a tailer with a fast poll until the test ends.
func startTailer(t *testing.T, path string) *collector {
	t.Helper()
	c := &collector{}
	tailer := NewTailer(TailerConfig{
		Stream:       "app",
		Path:         path,
		PollInterval: 20 * time.Millisecond,
	}, c.emit, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = tailer.Serve(ctx)
	}()
	return c
}

func appendTo(t *testing.T, path, data string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(data); err != nil {
		t.Fatalf("append to %s: %v", path, err)
	}
}

func TestTailerEmitsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	// Pre-existing content sits below the baseline and is never emitted.
	appendTo(t, path, "preexisting\n")

	c := startTailer(t, path)
	time.Sleep(200 * time.Millisecond)

	appendTo(t, path, "one\ntwo\n")

	waitFor(t, "two lines", func() bool { return len(c.all()) == 2 })
	if got := c.all(); !reflect.DeepEqual(got, []string{"one", "two"}) {
		t.Errorf("lines = %v, want [one two]", got)
	}
}

func TestTailerAwaitsAbsentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "late.log")
	c := startTailer(t, path)

	// The path does not exist yet; the tailer polls instead of failing.
	time.Sleep(100 * time.Millisecond)
	appendTo(t, path, "")
	time.Sleep(200 * time.Millisecond)

	appendTo(t, path, "hello\n")
	waitFor(t, "line from late file", func() bool { return len(c.all()) == 1 })
	if c.all()[0] != "hello" {
		t.Errorf("line = %q, want hello", c.all()[0])
	}
}

func TestTailerDropsEmptyLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	appendTo(t, path, "")

	c := startTailer(t, path)
	time.Sleep(200 * time.Millisecond)

	appendTo(t, path, "one\n\n\ntwo\n")

	waitFor(t, "two lines", func() bool { return len(c.all()) == 2 })
	if got := c.all(); !reflect.DeepEqual(got, []string{"one", "two"}) {
		t.Errorf("lines = %v, want [one two]", got)
	}
}

func TestTailerTruncationEmitsNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	appendTo(t, path, string(make([]byte, 500)))

	c := startTailer(t, path)
	time.Sleep(200 * time.Millisecond)

	// Shrink without a rename: no emission, baseline becomes 100.
	if err := os.Truncate(path, 100); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if got := c.all(); len(got) != 0 {
		t.Fatalf("truncation emitted lines: %v", got)
	}

	// Growth after the truncation reads from byte 100 onward.
	appendTo(t, path, "fresh\n")
	waitFor(t, "post-truncation line", func() bool { return len(c.all()) == 1 })
	if c.all()[0] != "fresh" {
		t.Errorf("line = %q, want fresh", c.all()[0])
	}
}

func TestTailerRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	appendTo(t, path, "old\n")

	c := startTailer(t, path)
	time.Sleep(200 * time.Millisecond)

	// Rotate: move the file away, then drop a fully written replacement
	// into place. Its existing content precedes the re-attach and is an
	// accepted gap.
	if err := os.Rename(path, path+".1"); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	replacement := filepath.Join(dir, "replacement")
	appendTo(t, replacement, "written-before-reattach\n")
	if err := os.Rename(replacement, path); err != nil {
		t.Fatalf("replace: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	appendTo(t, path, "after\n")
	waitFor(t, "post-rotation line", func() bool { return len(c.all()) == 1 })
	if got := c.all(); !reflect.DeepEqual(got, []string{"after"}) {
		t.Errorf("lines = %v, want [after]", got)
	}
}

func TestTailerString(t *testing.T) {
	tailer := NewTailer(TailerConfig{Stream: "s", Path: "/var/log/app.log"}, nil, testLogger())
	if got := tailer.String(); got != "tailer:s:/var/log/app.log" {
		t.Errorf("String() = %q", got)
	}
}
