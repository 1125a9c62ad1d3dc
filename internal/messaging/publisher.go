// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package messaging

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/intellweave/intellweave/internal/logging"
	"github.com/intellweave/intellweave/internal/metrics"
	"github.com/intellweave/intellweave/internal/models"
)

// DirectStore is the synchronous append path used when the bus cannot take
// an event. Implemented by storage.DB.
type DirectStore interface {
	AppendEvent(ctx context.Context, event *models.InteractionEvent) error
}

// EventPublisher accepts interaction events and puts them on the bus. An
// accepted event is never lost: when the bus rejects it, or the publisher is
// already closed during shutdown, the event is appended to the store
// directly instead.
type EventPublisher struct {
	bus      message.Publisher
	fallback DirectStore
	log      zerolog.Logger

	mu     sync.RWMutex
	closed bool

	fallbacks atomic.Int64
}

// NewEventPublisher creates a publisher over the given bus with a direct
// store fallback.
func NewEventPublisher(bus message.Publisher, fallback DirectStore) (*EventPublisher, error) {
	if bus == nil {
		return nil, fmt.Errorf("bus publisher required")
	}
	if fallback == nil {
		return nil, fmt.Errorf("fallback store required")
	}
	return &EventPublisher{
		bus:      bus,
		fallback: fallback,
		log:      logging.WithComponent("messaging"),
	}, nil
}

// Publish stamps the event with an id and timestamp when missing and puts it
// on the interactions topic. Returns an error only when both the bus and the
// direct append fail, or the event itself is malformed.
func (p *EventPublisher) Publish(ctx context.Context, event *models.InteractionEvent) error {
	if event == nil {
		return fmt.Errorf("event required")
	}
	// Stamp before encoding so the bus message and any fallback row agree.
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	msg, err := encodeEvent(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()

	if closed {
		return p.appendDirect(ctx, event, fmt.Errorf("publisher is closed"))
	}

	if err := p.bus.Publish(TopicInteractions, msg); err != nil {
		return p.appendDirect(ctx, event, err)
	}

	metrics.RecordEventPublished()
	return nil
}

// PublishBatch publishes each event in order, stopping at the first one that
// can be persisted nowhere.
func (p *EventPublisher) PublishBatch(ctx context.Context, events []models.InteractionEvent) error {
	for i := range events {
		if err := p.Publish(ctx, &events[i]); err != nil {
			return fmt.Errorf("publish event %d: %w", i, err)
		}
	}
	return nil
}

// Fallbacks returns how many events were appended directly because the bus
// could not take them.
func (p *EventPublisher) Fallbacks() int64 {
	return p.fallbacks.Load()
}

// Close stops bus publishing. Later Publish calls go straight to the store,
// so the HTTP layer can keep accepting events while the bus shuts down. The
// underlying pubsub is owned by the Bus and is not closed here.
func (p *EventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *EventPublisher) appendDirect(ctx context.Context, event *models.InteractionEvent, cause error) error {
	p.fallbacks.Add(1)
	p.log.Warn().
		Err(cause).
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Msg("Bus publish failed, appending event directly")

	if err := p.fallback.AppendEvent(ctx, event); err != nil {
		return fmt.Errorf("append event after publish failure (%v): %w", cause, err)
	}
	return nil
}
