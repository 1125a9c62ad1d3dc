// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// mockWarmer records warm invocations for the IndexWarmerService tests.
type mockWarmer struct {
	mu     sync.Mutex
	err    error
	sinces []time.Time
	calls  atomic.Int32
	called chan struct{}
}

func newMockWarmer() *mockWarmer {
	return &mockWarmer{called: make(chan struct{}, 16)}
}

func (m *mockWarmer) warm(ctx context.Context, since time.Time) (int, error) {
	m.mu.Lock()
	m.sinces = append(m.sinces, since)
	m.mu.Unlock()
	m.calls.Add(1)
	select {
	case m.called <- struct{}{}:
	default:
	}
	if m.err != nil {
		return 0, m.err
	}
	return 42, nil
}

func TestIndexWarmerService_Interface(t *testing.T) {
	var _ suture.Service = (*IndexWarmerService)(nil)
}

func TestNewIndexWarmerService_DefaultInterval(t *testing.T) {
	warmer := newMockWarmer()
	svc := NewIndexWarmerService(warmer.warm, 72*time.Hour, 0, zerolog.Nop())
	if svc.interval != 15*time.Minute {
		t.Errorf("expected default interval 15m, got %v", svc.interval)
	}

	svc = NewIndexWarmerService(warmer.warm, 72*time.Hour, -time.Minute, zerolog.Nop())
	if svc.interval != 15*time.Minute {
		t.Errorf("expected default interval 15m for negative input, got %v", svc.interval)
	}
}

func TestIndexWarmerService_InitialWarm(t *testing.T) {
	warmer := newMockWarmer()
	window := 72 * time.Hour
	svc := NewIndexWarmerService(warmer.warm, window, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Serve(ctx)
	}()

	select {
	case <-warmer.called:
	case <-time.After(time.Second):
		t.Fatal("initial warm pass did not run")
	}

	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Serve did not return after cancellation")
	}

	warmer.mu.Lock()
	defer warmer.mu.Unlock()
	if len(warmer.sinces) != 1 {
		t.Fatalf("expected 1 warm call, got %d", len(warmer.sinces))
	}
	wantSince := time.Now().Add(-window)
	if diff := warmer.sinces[0].Sub(wantSince); diff < -time.Minute || diff > time.Minute {
		t.Errorf("since %v not within a minute of now-window %v", warmer.sinces[0], wantSince)
	}
}

func TestIndexWarmerService_PeriodicReconcile(t *testing.T) {
	warmer := newMockWarmer()
	svc := NewIndexWarmerService(warmer.warm, 72*time.Hour, 20*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Serve(ctx)
	}()

	deadline := time.After(2 * time.Second)
	for warmer.calls.Load() < 3 {
		select {
		case <-warmer.called:
		case <-deadline:
			t.Fatalf("expected at least 3 warm passes, got %d", warmer.calls.Load())
		}
	}

	cancel()
	<-errCh
}

func TestIndexWarmerService_FailureIsRetried(t *testing.T) {
	warmer := newMockWarmer()
	warmer.err = errors.New("store unavailable")
	svc := NewIndexWarmerService(warmer.warm, 72*time.Hour, 20*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Serve(ctx)
	}()

	// Failed passes must not crash the service; later ticks keep retrying.
	deadline := time.After(2 * time.Second)
	for warmer.calls.Load() < 2 {
		select {
		case <-warmer.called:
		case <-deadline:
			t.Fatalf("expected retry after failure, got %d calls", warmer.calls.Load())
		}
	}

	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Serve did not return after cancellation")
	}
}

func TestIndexWarmerService_String(t *testing.T) {
	svc := NewIndexWarmerService(newMockWarmer().warm, time.Hour, time.Hour, zerolog.Nop())
	if svc.String() != "index-warmer" {
		t.Errorf("expected 'index-warmer', got %q", svc.String())
	}
}
