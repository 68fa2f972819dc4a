// Logtide - Distributed Log Harvesting and Stream Topology
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/logtide

package supervisor

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type probeService struct {
	name    string
	started atomic.Int64
}

func (s *probeService) Serve(ctx context.Context) error {
	s.started.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (s *probeService) String() string { return s.name }

func testTree(t *testing.T) *Tree {
	t.Helper()
	return NewTree("logtide-test", slog.New(slog.DiscardHandler), DefaultTreeConfig())
}

func TestTreeRunsServicesInAllLayers(t *testing.T) {
	tree := testTree(t)

	ingest := &probeService{name: "ingest-probe"}
	messaging := &probeService{name: "messaging-probe"}
	api := &probeService{name: "api-probe"}
	tree.AddIngestService(ingest)
	tree.AddMessagingService(messaging)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for ingest.started.Load() == 0 || messaging.started.Load() == 0 || api.started.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("services did not all start")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop after cancel")
	}
}

func TestTreeRestartsFailedService(t *testing.T) {
	cfg := DefaultTreeConfig()
	cfg.FailureBackoff = 10 * time.Millisecond

	tree := NewTree("logtide-test", slog.New(slog.DiscardHandler), cfg)

	crasher := &crashOnceService{}
	tree.AddIngestService(crasher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tree.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for crasher.starts.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("service restarted %d times, want >= 2", crasher.starts.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

type crashOnceService struct {
	starts atomic.Int64
}

func (s *crashOnceService) Serve(ctx context.Context) error {
	if s.starts.Add(1) == 1 {
		return context.DeadlineExceeded
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *crashOnceService) String() string { return "crash-once" }

func TestDefaultTreeConfig(t *testing.T) {
	cfg := DefaultTreeConfig()
	if cfg.FailureThreshold != 5.0 || cfg.FailureDecay != 30.0 {
		t.Errorf("unexpected failure parameters: %+v", cfg)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("shutdown timeout = %v", cfg.ShutdownTimeout)
	}
}
