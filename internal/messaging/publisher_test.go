// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/intellweave/intellweave/internal/models"
)

type fakeBusPublisher struct {
	mu     sync.Mutex
	topics []string
	msgs   []*message.Message
	err    error
}

func (f *fakeBusPublisher) Publish(topic string, messages ...*message.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.topics = append(f.topics, topic)
	f.msgs = append(f.msgs, messages...)
	return nil
}

func (f *fakeBusPublisher) Close() error { return nil }

func (f *fakeBusPublisher) published() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

type fakeDirectStore struct {
	mu     sync.Mutex
	events []models.InteractionEvent
	err    error
}

func (s *fakeDirectStore) AppendEvent(_ context.Context, event *models.InteractionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, *event)
	return nil
}

func (s *fakeDirectStore) appended() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestNewEventPublisherValidation(t *testing.T) {
	if _, err := NewEventPublisher(nil, &fakeDirectStore{}); err == nil {
		t.Error("Expected error for nil bus")
	}
	if _, err := NewEventPublisher(&fakeBusPublisher{}, nil); err == nil {
		t.Error("Expected error for nil fallback store")
	}
}

func TestPublishStampsAndPublishes(t *testing.T) {
	bus := &fakeBusPublisher{}
	store := &fakeDirectStore{}
	pub, err := NewEventPublisher(bus, store)
	if err != nil {
		t.Fatalf("Failed to create publisher: %v", err)
	}

	event := &models.InteractionEvent{
		UserID:    "user-1",
		ArticleID: "article-1",
		EventType: models.EventRead,
	}
	if err := pub.Publish(context.Background(), event); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}

	if event.ID == "" {
		t.Error("Expected publish to stamp an event id")
	}
	if event.CreatedAt.IsZero() {
		t.Error("Expected publish to stamp a timestamp")
	}
	if bus.published() != 1 {
		t.Fatalf("Expected 1 message on the bus, got %d", bus.published())
	}
	if bus.topics[0] != TopicInteractions {
		t.Errorf("Expected topic %q, got %q", TopicInteractions, bus.topics[0])
	}
	if store.appended() != 0 {
		t.Errorf("Expected no direct appends on the happy path, got %d", store.appended())
	}

	msg := bus.msgs[0]
	if msg.UUID != event.ID {
		t.Errorf("Expected message uuid %q to match event id, got %q", event.ID, msg.UUID)
	}
	if got := msg.Metadata.Get(metadataEventType); got != models.EventRead {
		t.Errorf("Expected event_type metadata %q, got %q", models.EventRead, got)
	}
	decoded, err := decodeEvent(msg)
	if err != nil {
		t.Fatalf("Failed to decode published payload: %v", err)
	}
	if decoded.ArticleID != "article-1" || decoded.ID != event.ID {
		t.Errorf("Expected payload to round-trip the event, got %+v", decoded)
	}
}

func TestPublishKeepsExistingID(t *testing.T) {
	bus := &fakeBusPublisher{}
	pub, _ := NewEventPublisher(bus, &fakeDirectStore{})

	event := &models.InteractionEvent{
		ID:        "fixed-id",
		UserID:    "user-1",
		ArticleID: "article-1",
		EventType: models.EventClick,
		CreatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := pub.Publish(context.Background(), event); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}
	if bus.msgs[0].UUID != "fixed-id" {
		t.Errorf("Expected preset id kept, got %q", bus.msgs[0].UUID)
	}
}

func TestPublishFallsBackWhenBusFails(t *testing.T) {
	bus := &fakeBusPublisher{err: errors.New("bus closed")}
	store := &fakeDirectStore{}
	pub, _ := NewEventPublisher(bus, store)

	event := &models.InteractionEvent{UserID: "u", ArticleID: "a", EventType: models.EventClick}
	if err := pub.Publish(context.Background(), event); err != nil {
		t.Fatalf("Expected fallback append to absorb the bus failure, got %v", err)
	}

	if store.appended() != 1 {
		t.Errorf("Expected 1 direct append, got %d", store.appended())
	}
	if pub.Fallbacks() != 1 {
		t.Errorf("Expected 1 recorded fallback, got %d", pub.Fallbacks())
	}
}

func TestPublishErrorWhenBothPathsFail(t *testing.T) {
	bus := &fakeBusPublisher{err: errors.New("bus closed")}
	store := &fakeDirectStore{err: errors.New("db down")}
	pub, _ := NewEventPublisher(bus, store)

	event := &models.InteractionEvent{UserID: "u", ArticleID: "a", EventType: models.EventClick}
	if err := pub.Publish(context.Background(), event); err == nil {
		t.Error("Expected error when both the bus and the store reject the event")
	}
}

func TestPublishAfterCloseGoesDirect(t *testing.T) {
	bus := &fakeBusPublisher{}
	store := &fakeDirectStore{}
	pub, _ := NewEventPublisher(bus, store)

	if err := pub.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	event := &models.InteractionEvent{UserID: "u", ArticleID: "a", EventType: models.EventClick}
	if err := pub.Publish(context.Background(), event); err != nil {
		t.Fatalf("Expected publish after close to append directly, got %v", err)
	}
	if bus.published() != 0 {
		t.Errorf("Expected nothing on the bus after close, got %d", bus.published())
	}
	if store.appended() != 1 {
		t.Errorf("Expected 1 direct append after close, got %d", store.appended())
	}
}

func TestPublishRejectsIncompleteEvent(t *testing.T) {
	bus := &fakeBusPublisher{}
	store := &fakeDirectStore{}
	pub, _ := NewEventPublisher(bus, store)

	event := &models.InteractionEvent{UserID: "u", EventType: models.EventClick}
	if err := pub.Publish(context.Background(), event); err == nil {
		t.Error("Expected error for event without an article id")
	}
	if bus.published() != 0 || store.appended() != 0 {
		t.Error("Expected malformed event to reach neither the bus nor the store")
	}
}

func TestPublishBatchStampsEach(t *testing.T) {
	bus := &fakeBusPublisher{}
	pub, _ := NewEventPublisher(bus, &fakeDirectStore{})

	events := []models.InteractionEvent{
		{UserID: "u", ArticleID: "a1", EventType: models.EventClick},
		{UserID: "u", ArticleID: "a2", EventType: models.EventRead},
		{UserID: "u", ArticleID: "a3", EventType: models.EventShare},
	}
	if err := pub.PublishBatch(context.Background(), events); err != nil {
		t.Fatalf("Failed to publish batch: %v", err)
	}

	if bus.published() != 3 {
		t.Errorf("Expected 3 messages on the bus, got %d", bus.published())
	}
	for i := range events {
		if events[i].ID == "" {
			t.Errorf("Expected event %d to be stamped with an id", i)
		}
	}
}
