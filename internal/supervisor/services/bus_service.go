// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/thejerf/suture/v4"
)

// EventBus matches the messaging bus lifecycle: seed the popularity window
// once, then run until the context dies. Satisfied by *messaging.Bus.
type EventBus interface {
	SeedPopularity(ctx context.Context) error
	Run(ctx context.Context) error
}

// EventBusService runs the interaction event bus under supervision.
//
// The gochannel bus cannot be restarted once closed; Run tears the pubsub
// down on exit. A crash therefore maps to suture.ErrDoNotRestart rather
// than a restart loop: by then the event publisher has already degraded to
// synchronous store appends, so accepted events keep getting persisted
// without the bus.
type EventBusService struct {
	bus  EventBus
	name string
}

// NewEventBusService creates the wrapper.
func NewEventBusService(bus EventBus) *EventBusService {
	return &EventBusService{
		bus:  bus,
		name: "event-bus",
	}
}

// Serve implements suture.Service. Seeding failure is non-fatal and logged
// by the tracker; the popularity window starts cold and refills from live
// traffic.
func (s *EventBusService) Serve(ctx context.Context) error {
	_ = s.bus.SeedPopularity(ctx)

	err := s.bus.Run(ctx)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ctx.Err()
	}
	return errors.Join(fmt.Errorf("event bus stopped: %w", err), suture.ErrDoNotRestart)
}

// String implements fmt.Stringer for supervisor logs.
func (s *EventBusService) String() string {
	return s.name
}
