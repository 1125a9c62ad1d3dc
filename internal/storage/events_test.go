// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/intellweave/intellweave/internal/models"
)

func TestAppendEventAssignsDefaults(t *testing.T) {
	db := setupTestDB(t)

	event := &models.InteractionEvent{
		UserID:    uuid.New().String(),
		ArticleID: uuid.New().String(),
		EventType: models.EventClick,
	}
	if err := db.AppendEvent(context.Background(), event); err != nil {
		t.Fatalf("Failed to append event: %v", err)
	}
	if event.ID == "" {
		t.Error("Expected append to assign an event id")
	}
	if event.CreatedAt.IsZero() {
		t.Error("Expected append to assign a created_at timestamp")
	}
}

func TestAppendEventsBatchIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	userID := uuid.New().String()

	events := []models.InteractionEvent{
		{UserID: userID, ArticleID: uuid.New().String(), EventType: models.EventClick},
		{UserID: userID, ArticleID: uuid.New().String(), EventType: models.EventRead},
		{UserID: userID, ArticleID: uuid.New().String(), EventType: models.EventShare},
	}

	inserted, err := db.AppendEvents(ctx, events)
	if err != nil {
		t.Fatalf("Failed to append event batch: %v", err)
	}
	if inserted != 3 {
		t.Errorf("Expected 3 inserted events, got %d", inserted)
	}

	// Redelivering the same batch (ids now populated) must insert nothing.
	inserted, err = db.AppendEvents(ctx, events)
	if err != nil {
		t.Fatalf("Failed to redeliver event batch: %v", err)
	}
	if inserted != 0 {
		t.Errorf("Expected 0 inserted on redelivery, got %d", inserted)
	}
}

func TestAppendEventsEmptyBatch(t *testing.T) {
	db := setupTestDB(t)

	inserted, err := db.AppendEvents(context.Background(), nil)
	if err != nil {
		t.Errorf("Expected empty batch to succeed, got %v", err)
	}
	if inserted != 0 {
		t.Errorf("Expected 0 inserted for empty batch, got %d", inserted)
	}
}

func TestListUserEventsJoinsAnnotations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	userID := uuid.New().String()

	annotated := insertTestArticle(t, db, "tagged", timePtr(now.Add(-2*time.Hour)))
	annotateTestArticle(t, db, annotated.ID, []string{"tech", "ai"}, nil, nil)
	bare := insertTestArticle(t, db, "untagged", timePtr(now.Add(-3*time.Hour)))

	insertTestEvent(t, db, userID, annotated.ID, models.EventRead, now.Add(-time.Hour))
	insertTestEvent(t, db, userID, bare.ID, models.EventClick, now.Add(-30*time.Minute))
	// Another user's event must not leak in.
	insertTestEvent(t, db, uuid.New().String(), annotated.ID, models.EventClick, now.Add(-10*time.Minute))
	// Outside the window.
	insertTestEvent(t, db, userID, annotated.ID, models.EventClick, now.Add(-100*24*time.Hour))

	events, err := db.ListUserEvents(ctx, userID, now.Add(-90*24*time.Hour), 500)
	if err != nil {
		t.Fatalf("Failed to list user events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events in window, got %d", len(events))
	}
	// Newest first.
	if events[0].ArticleID != bare.ID {
		t.Errorf("Expected newest event first, got article %s", events[0].ArticleID)
	}
	if len(events[0].Topics) != 0 {
		t.Errorf("Expected no topics for unannotated article, got %v", events[0].Topics)
	}
	if events[1].ArticleID != annotated.ID {
		t.Fatalf("Expected annotated article event second, got %s", events[1].ArticleID)
	}
	if len(events[1].Topics) != 2 || events[1].Topics[0] != "tech" {
		t.Errorf("Expected joined topics [tech ai], got %v", events[1].Topics)
	}
	if len(events[1].Entities) != 1 || events[1].Entities[0] != "Example Corp" {
		t.Errorf("Expected joined entity texts [Example Corp], got %v", events[1].Entities)
	}
	if events[1].Sentiment != "neutral" {
		t.Errorf("Expected joined sentiment neutral, got %q", events[1].Sentiment)
	}
	if events[0].Sentiment != "" {
		t.Errorf("Expected empty sentiment for unannotated article, got %q", events[0].Sentiment)
	}
}

func TestListUserEventsRespectsCap(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC().Truncate(time.Second)
	userID := uuid.New().String()
	article := insertTestArticle(t, db, "busy", timePtr(now.Add(-time.Hour)))

	for i := 0; i < 5; i++ {
		insertTestEvent(t, db, userID, article.ID, models.EventClick, now.Add(-time.Duration(i)*time.Minute))
	}

	events, err := db.ListUserEvents(context.Background(), userID, now.Add(-24*time.Hour), 3)
	if err != nil {
		t.Fatalf("Failed to list user events: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("Expected cap of 3 events, got %d", len(events))
	}
}

func TestConsumedArticleIDs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	userID := uuid.New().String()

	readArticle := insertTestArticle(t, db, "read-one", timePtr(now))
	bookmarked := insertTestArticle(t, db, "bookmarked-one", timePtr(now))
	clicked := insertTestArticle(t, db, "clicked-one", timePtr(now))
	ancient := insertTestArticle(t, db, "ancient-read", timePtr(now))

	insertTestEvent(t, db, userID, readArticle.ID, models.EventRead, now.Add(-time.Hour))
	insertTestEvent(t, db, userID, bookmarked.ID, models.EventBookmark, now.Add(-time.Hour))
	insertTestEvent(t, db, userID, clicked.ID, models.EventClick, now.Add(-time.Hour))
	// Consumption never expires: a read from a year ago still counts.
	insertTestEvent(t, db, userID, ancient.ID, models.EventRead, now.Add(-365*24*time.Hour))

	consumed, err := db.ConsumedArticleIDs(ctx, userID)
	if err != nil {
		t.Fatalf("Failed to get consumed articles: %v", err)
	}
	if len(consumed) != 3 {
		t.Fatalf("Expected 3 consumed articles, got %d", len(consumed))
	}
	if _, ok := consumed[readArticle.ID]; !ok {
		t.Error("Expected read article to be consumed")
	}
	if _, ok := consumed[bookmarked.ID]; !ok {
		t.Error("Expected bookmarked article to be consumed")
	}
	if _, ok := consumed[ancient.ID]; !ok {
		t.Error("Expected year-old read to still count as consumed")
	}
	if _, ok := consumed[clicked.ID]; ok {
		t.Error("Expected clicked-only article to not be consumed")
	}
}

func TestCountEventsSince(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	hot := insertTestArticle(t, db, "hot", timePtr(now))
	warm := insertTestArticle(t, db, "warm", timePtr(now))
	cold := insertTestArticle(t, db, "cold", timePtr(now))

	for i := 0; i < 4; i++ {
		insertTestEvent(t, db, uuid.New().String(), hot.ID, models.EventClick, now.Add(-time.Duration(i+1)*time.Hour))
	}
	insertTestEvent(t, db, uuid.New().String(), warm.ID, models.EventRead, now.Add(-2*time.Hour))
	// Only activity outside the window.
	insertTestEvent(t, db, uuid.New().String(), cold.ID, models.EventClick, now.Add(-48*time.Hour))

	counts, err := db.CountEventsSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Failed to count events: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("Expected counts for 2 articles, got %d", len(counts))
	}
	if counts[hot.ID] != 4 {
		t.Errorf("Expected 4 events for hot article, got %d", counts[hot.ID])
	}
	if counts[warm.ID] != 1 {
		t.Errorf("Expected 1 event for warm article, got %d", counts[warm.ID])
	}
	if _, ok := counts[cold.ID]; ok {
		t.Error("Expected article with only stale events to be absent")
	}
}

func TestCountRecentByArticle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	popular := insertTestArticle(t, db, "popular", timePtr(now))
	quiet := insertTestArticle(t, db, "quiet", timePtr(now))

	for i := 0; i < 3; i++ {
		insertTestEvent(t, db, uuid.New().String(), popular.ID, models.EventClick, now.Add(-time.Duration(i+1)*time.Hour))
	}
	// Outside the 24h window.
	insertTestEvent(t, db, uuid.New().String(), popular.ID, models.EventClick, now.Add(-30*time.Hour))

	counts, err := db.CountRecentByArticle(ctx, []string{popular.ID, quiet.ID}, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Failed to count interactions: %v", err)
	}
	if counts[popular.ID] != 3 {
		t.Errorf("Expected 3 interactions in window, got %d", counts[popular.ID])
	}
	if _, ok := counts[quiet.ID]; ok {
		t.Error("Expected article with no interactions to be absent from counts")
	}

	counts, err = db.CountRecentByArticle(ctx, nil, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Failed on empty id list: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("Expected empty counts for empty id list, got %d entries", len(counts))
	}
}
