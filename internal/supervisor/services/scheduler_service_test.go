// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// mockFeedScheduler is a test double for the FeedScheduler interface.
type mockFeedScheduler struct {
	startCount atomic.Int32
	stopCount  atomic.Int32
	started    chan struct{}
}

func newMockFeedScheduler() *mockFeedScheduler {
	return &mockFeedScheduler{started: make(chan struct{}, 1)}
}

func (m *mockFeedScheduler) Start(ctx context.Context) {
	m.startCount.Add(1)
	select {
	case m.started <- struct{}{}:
	default:
	}
}

func (m *mockFeedScheduler) Stop() {
	m.stopCount.Add(1)
}

func TestSchedulerService_Interface(t *testing.T) {
	var _ suture.Service = (*SchedulerService)(nil)
}

func TestSchedulerService_Serve(t *testing.T) {
	scheduler := newMockFeedScheduler()
	svc := NewSchedulerService(scheduler)

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Serve(ctx)
	}()

	select {
	case <-scheduler.started:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not start")
	}

	if got := scheduler.stopCount.Load(); got != 0 {
		t.Errorf("Stop called before cancellation: %d", got)
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

	if got := scheduler.startCount.Load(); got != 1 {
		t.Errorf("expected 1 Start call, got %d", got)
	}
	if got := scheduler.stopCount.Load(); got != 1 {
		t.Errorf("expected 1 Stop call, got %d", got)
	}
}

func TestSchedulerService_WithSupervisor(t *testing.T) {
	scheduler := newMockFeedScheduler()
	svc := NewSchedulerService(scheduler)

	sup := suture.New("test-sup", suture.Spec{
		FailureThreshold: 3,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          2 * time.Second,
	})
	sup.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	select {
	case <-scheduler.started:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not start under supervision")
	}

	cancel()
	<-errCh

	if scheduler.stopCount.Load() < 1 {
		t.Error("scheduler Stop was not called during shutdown")
	}
}

func TestSchedulerService_String(t *testing.T) {
	svc := NewSchedulerService(newMockFeedScheduler())
	if svc.String() != "feed-scheduler" {
		t.Errorf("expected 'feed-scheduler', got %q", svc.String())
	}
}
