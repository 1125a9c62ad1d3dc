// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

var fixedNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

type fakeSeedStore struct {
	counts   map[string]int64
	err      error
	gotSince time.Time
}

func (s *fakeSeedStore) CountEventsSince(_ context.Context, since time.Time) (map[string]int64, error) {
	s.gotSince = since
	if s.err != nil {
		return nil, s.err
	}
	return s.counts, nil
}

func seededTracker(t *testing.T) *PopularityTracker {
	t.Helper()
	tracker := NewPopularityTracker(24*time.Hour, 0)
	if err := tracker.Seed(context.Background(), &fakeSeedStore{}); err != nil {
		t.Fatalf("Failed to seed tracker: %v", err)
	}
	return tracker
}

func TestTrackerUnavailableBeforeSeed(t *testing.T) {
	tracker := NewPopularityTracker(24*time.Hour, 0)

	count, ok := tracker.Lookup("anything")
	if ok {
		t.Error("Expected signal unavailable before seeding")
	}
	if count != 0 {
		t.Errorf("Expected count 0 before seeding, got %d", count)
	}
}

func TestTrackerCountsEvents(t *testing.T) {
	tracker := seededTracker(t)

	for i := 0; i < 3; i++ {
		if err := tracker.Handle(mustEncode(t, interactionEvent("article-a"))); err != nil {
			t.Fatalf("Failed to handle event: %v", err)
		}
	}
	tracker.Handle(mustEncode(t, interactionEvent("article-b")))

	if count, ok := tracker.Lookup("article-a"); !ok || count != 3 {
		t.Errorf("Expected (3, true) for article-a, got (%d, %v)", count, ok)
	}
	if count, ok := tracker.Lookup("article-b"); !ok || count != 1 {
		t.Errorf("Expected (1, true) for article-b, got (%d, %v)", count, ok)
	}
	if count, ok := tracker.Lookup("ghost"); !ok || count != 0 {
		t.Errorf("Expected (0, true) for unseen article, got (%d, %v)", count, ok)
	}
	if tracker.TrackedArticles() != 2 {
		t.Errorf("Expected 2 tracked articles, got %d", tracker.TrackedArticles())
	}
}

func TestTrackerSeedWarmsWindow(t *testing.T) {
	tracker := NewPopularityTrackerWithClock(24*time.Hour, 0, func() time.Time { return fixedNow })
	store := &fakeSeedStore{counts: map[string]int64{"a": 5, "b": 2}}

	if err := tracker.Seed(context.Background(), store); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}

	if got, want := store.gotSince, fixedNow.Add(-24*time.Hour); !got.Equal(want) {
		t.Errorf("Expected seed query since %v, got %v", want, got)
	}
	if count, ok := tracker.Lookup("a"); !ok || count != 5 {
		t.Errorf("Expected (5, true) after seeding, got (%d, %v)", count, ok)
	}
}

func TestTrackerSeedFailureStillReady(t *testing.T) {
	tracker := NewPopularityTracker(24*time.Hour, 0)
	store := &fakeSeedStore{err: errors.New("query failed")}

	if err := tracker.Seed(context.Background(), store); err == nil {
		t.Error("Expected seed error to surface")
	}

	// Live counting must still work; a cold window beats a dead signal.
	if _, ok := tracker.Lookup("anything"); !ok {
		t.Error("Expected tracker ready after failed seed")
	}
}

func TestTrackerWindowSlides(t *testing.T) {
	current := fixedNow
	tracker := NewPopularityTrackerWithClock(24*time.Hour, 0, func() time.Time { return current })
	if err := tracker.Seed(context.Background(), &fakeSeedStore{}); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}

	tracker.Handle(mustEncode(t, interactionEvent("article-a")))
	if count, _ := tracker.Lookup("article-a"); count != 1 {
		t.Fatalf("Expected count 1 before window slides, got %d", count)
	}

	current = current.Add(25 * time.Hour)
	if count, _ := tracker.Lookup("article-a"); count != 0 {
		t.Errorf("Expected count drained after window passed, got %d", count)
	}
}

func TestTrackerDropsMalformedPayload(t *testing.T) {
	tracker := seededTracker(t)

	msg := message.NewMessage(uuid.New().String(), []byte("not json"))
	if err := tracker.Handle(msg); err != nil {
		t.Errorf("Expected malformed payload to be acknowledged, got %v", err)
	}
	if tracker.TrackedArticles() != 0 {
		t.Errorf("Expected no counters from malformed payload, got %d", tracker.TrackedArticles())
	}
}
