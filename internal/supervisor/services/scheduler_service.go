// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package services

import (
	"context"
)

// FeedScheduler matches the ingest scheduler's Start/Stop lifecycle.
// Satisfied by *ingest.Scheduler.
type FeedScheduler interface {
	Start(ctx context.Context)
	Stop()
}

// SchedulerService runs the cron feed scheduler under supervision, adapting
// Start/Stop to suture's Serve pattern. The scheduler manages its own sweep
// goroutines; the wrapper only orchestrates lifecycle transitions.
type SchedulerService struct {
	scheduler FeedScheduler
	name      string
}

// NewSchedulerService creates the wrapper.
func NewSchedulerService(scheduler FeedScheduler) *SchedulerService {
	return &SchedulerService{
		scheduler: scheduler,
		name:      "feed-scheduler",
	}
}

// Serve implements suture.Service. Stop blocks until any in-flight sweep
// finishes or the scheduler's own stop deadline expires.
func (s *SchedulerService) Serve(ctx context.Context) error {
	s.scheduler.Start(ctx)
	<-ctx.Done()
	s.scheduler.Stop()
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (s *SchedulerService) String() string {
	return s.name
}
