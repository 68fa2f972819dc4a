// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

package harvester

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/tomtom215/logtide/internal/metrics"
)

// defaultPollInterval is the probe period while a watched path is absent.
const defaultPollInterval = time.Second

// LineFunc receives one non-empty log line from a tailer, in file order.
type LineFunc func(stream, line string)

// TailerConfig configures one watched path of one named stream.
type TailerConfig struct {
	// Stream is the log stream this path feeds.
	Stream string

	// Path is the watched file path.
	Path string

	// PollInterval is the probe period while the path does not exist.
	// Default: 1s.
	PollInterval time.Duration
}

// Tailer watches a single file path and emits appended lines. It starts in
// the awaiting-file state, polling until the path exists, then records the
// file's current size as the baseline and reacts to filesystem signals:
//
//   - rename/remove (log rotation): restart the path from scratch with a
//     fresh baseline; lines written before the watch re-attaches are an
//     accepted gap.
//   - change: read the grown byte range and emit its lines; a shrink
//     without a rename emits nothing and adopts the smaller size.
//
// Tailer implements suture.Service.
type Tailer struct {
	cfg  TailerConfig
	emit LineFunc
	log  zerolog.Logger

	// size is the last known file size; only the Serve goroutine touches it.
	size int64
}

// NewTailer creates a tailer. Lines are delivered synchronously on the
// tailer's own goroutine.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewTailer(cfg TailerConfig, emit LineFunc, logger zerolog.Logger) *Tailer {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Tailer{
		cfg:  cfg,
		emit: emit,
		log: logger.With().
			Str("component", "tailer").
			Str("stream", cfg.Stream).
			Str("path", cfg.Path).
			Logger(),
	}
}

// Serve implements suture.Service. It runs until ctx is canceled,
// restarting the path from awaiting-file after every rotation or watch
// failure.
func (t *Tailer) Serve(ctx context.Context) error {
	for {
		if err := t.awaitFile(ctx); err != nil {
			return err
		}
		if err := t.watch(ctx); err != nil {
			return err
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (t *Tailer) String() string {
	return "tailer:" + t.cfg.Stream + ":" + t.cfg.Path
}

// awaitFile polls until the path exists, then records the baseline offset.
// A missing file is the designed recovery path, never an error.
func (t *Tailer) awaitFile(ctx context.Context) error {
	for {
		info, err := os.Stat(t.cfg.Path)
		if err == nil && !info.IsDir() {
			t.size = info.Size()
			t.log.Debug().Int64("baseline", t.size).Msg("watching file")
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.cfg.PollInterval):
		}
	}
}

// watch consumes filesystem signals for the path until rotation or error
// sends it back to awaiting-file. Returns non-nil only on ctx cancellation.
func (t *Tailer) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		t.log.Warn().Err(err).Msg("create watcher")
		return t.sleep(ctx)
	}
	defer watcher.Close()

	if err := watcher.Add(t.cfg.Path); err != nil {
		// The file vanished between stat and watch; go back to polling.
		t.log.Debug().Err(err).Msg("watch add failed")
		return t.sleep(ctx)
	}

	// Catch up on bytes appended between the baseline stat and the watch
	// attaching.
	t.consume()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				metrics.TailerRotations.Inc()
				t.log.Info().Msg("rotation detected, re-attaching")
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Chmod) != 0 {
				t.consume()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			t.log.Warn().Err(err).Msg("watch error, re-attaching")
			return nil
		}
	}
}

// consume compares the file's current size against the last known size and
// emits any appended lines. Truncation adopts the smaller size without
// emitting; the lost bytes are never delivered.
func (t *Tailer) consume() {
	info, err := os.Stat(t.cfg.Path)
	if err != nil {
		// Let the watch loop observe the remove/rename signal.
		return
	}

	newSize := info.Size()
	switch {
	case newSize < t.size:
		metrics.TailerTruncations.Inc()
		t.log.Debug().Int64("from", t.size).Int64("to", newSize).Msg("file truncated")
		t.size = newSize
		return
	case newSize == t.size:
		return
	}

	lines, err := t.readRange(t.size, newSize)
	if err != nil {
		t.log.Warn().Err(err).Msg("read appended bytes")
		return
	}
	t.size = newSize

	for _, line := range lines {
		metrics.TailerLines.Inc()
		t.emit(t.cfg.Stream, line)
	}
}

// readRange reads [from, to) and splits it into non-empty lines.
func (t *Tailer) readRange(from, to int64) ([]string, error) {
	file, err := os.Open(t.cfg.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if _, err := file.Seek(from, io.SeekStart); err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(io.LimitReader(file, to-from))
	if err != nil {
		return nil, err
	}

	parts := strings.Split(string(raw), "\n")
	lines := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSuffix(part, "\r"); part != "" {
			lines = append(lines, part)
		}
	}
	return lines, nil
}

// sleep pauses for one poll interval, honoring cancellation.
func (t *Tailer) sleep(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(t.cfg.PollInterval):
		return nil
	}
}
