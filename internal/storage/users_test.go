// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/intellweave/intellweave/internal/models"
)

func TestCreateUserAndLookup(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{
		Email:        "  Reader@Example.COM ",
		DisplayName:  "Avid Reader",
		PasswordHash: "$2a$12$notarealhash",
	}
	if err := db.CreateUser(ctx, user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if user.ID == "" {
		t.Error("Expected create to assign a user id")
	}
	if user.Role != models.RoleReader {
		t.Errorf("Expected default role reader, got %q", user.Role)
	}
	if user.Email != "reader@example.com" {
		t.Errorf("Expected email to be normalized, got %q", user.Email)
	}

	byEmail, err := db.GetUserByEmail(ctx, "READER@example.com")
	if err != nil {
		t.Fatalf("Failed to get user by email: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("Expected user %s, got %s", user.ID, byEmail.ID)
	}
	if byEmail.PasswordHash != user.PasswordHash {
		t.Error("Expected password hash to round-trip for credential checks")
	}

	byID, err := db.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to get user by id: %v", err)
	}
	if byID.Email != "reader@example.com" || byID.DisplayName != "Avid Reader" {
		t.Errorf("Expected stored fields to round-trip, got %q %q", byID.Email, byID.DisplayName)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := &models.User{Email: "taken@example.com", PasswordHash: "hash-a"}
	if err := db.CreateUser(ctx, first); err != nil {
		t.Fatalf("Failed to create first user: %v", err)
	}

	second := &models.User{Email: "Taken@Example.com", PasswordHash: "hash-b"}
	err := db.CreateUser(ctx, second)
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken for duplicate email, got %v", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.GetUserByEmail(ctx, "ghost@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound by email, got %v", err)
	}
	if _, err := db.GetUserByID(ctx, uuid.New().String()); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound by id, got %v", err)
	}
}

func TestCountUsers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	count, err := db.CountUsers(ctx)
	if err != nil {
		t.Fatalf("Failed to count users: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 users initially, got %d", count)
	}

	if err := db.CreateUser(ctx, &models.User{Email: "one@example.com", PasswordHash: "h"}); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	count, err = db.CountUsers(ctx)
	if err != nil {
		t.Fatalf("Failed to count users: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 user, got %d", count)
	}
}

func TestBookmarkLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	userID := uuid.New().String()

	article := insertTestArticle(t, db, "bookmarkable", timePtr(now.Add(-time.Hour)))
	annotateTestArticle(t, db, article.ID, []string{"science"}, floatPtr(70), nil)

	bookmark := &models.Bookmark{UserID: userID, ArticleID: article.ID}
	if err := db.CreateBookmark(ctx, bookmark); err != nil {
		t.Fatalf("Failed to create bookmark: %v", err)
	}
	if bookmark.ID == "" {
		t.Fatal("Expected bookmark id to be assigned")
	}

	// Bookmarking again is idempotent and reports the original row.
	duplicate := &models.Bookmark{UserID: userID, ArticleID: article.ID}
	if err := db.CreateBookmark(ctx, duplicate); err != nil {
		t.Fatalf("Failed on duplicate bookmark: %v", err)
	}
	if duplicate.ID != bookmark.ID {
		t.Errorf("Expected duplicate to return original id %s, got %s", bookmark.ID, duplicate.ID)
	}

	list, err := db.ListBookmarks(ctx, userID)
	if err != nil {
		t.Fatalf("Failed to list bookmarks: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("Expected 1 bookmark, got %d", len(list))
	}
	if list[0].Article.ID != article.ID {
		t.Errorf("Expected hydrated article %s, got %s", article.ID, list[0].Article.ID)
	}
	if len(list[0].Article.Topics) != 1 || list[0].Article.Topics[0] != "science" {
		t.Errorf("Expected hydrated annotation topics [science], got %v", list[0].Article.Topics)
	}
	if list[0].Article.Credibility == nil || *list[0].Article.Credibility != 0.7 {
		t.Error("Expected hydrated credibility normalized to 0.7")
	}

	if err := db.DeleteBookmark(ctx, userID, article.ID); err != nil {
		t.Fatalf("Failed to delete bookmark: %v", err)
	}
	if err := db.DeleteBookmark(ctx, userID, article.ID); !errors.Is(err, ErrBookmarkNotFound) {
		t.Errorf("Expected ErrBookmarkNotFound on second delete, got %v", err)
	}

	list, err = db.ListBookmarks(ctx, userID)
	if err != nil {
		t.Fatalf("Failed to list bookmarks after delete: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected empty bookmark list after delete, got %d", len(list))
	}
}

func TestListBookmarksOrdersNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	userID := uuid.New().String()

	older := insertTestArticle(t, db, "saved-first", timePtr(now))
	newer := insertTestArticle(t, db, "saved-second", timePtr(now))

	first := &models.Bookmark{UserID: userID, ArticleID: older.ID, CreatedAt: now.Add(-2 * time.Hour)}
	if err := db.CreateBookmark(ctx, first); err != nil {
		t.Fatalf("Failed to create bookmark: %v", err)
	}
	second := &models.Bookmark{UserID: userID, ArticleID: newer.ID, CreatedAt: now.Add(-1 * time.Hour)}
	if err := db.CreateBookmark(ctx, second); err != nil {
		t.Fatalf("Failed to create bookmark: %v", err)
	}

	list, err := db.ListBookmarks(ctx, userID)
	if err != nil {
		t.Fatalf("Failed to list bookmarks: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 bookmarks, got %d", len(list))
	}
	if list[0].ArticleID != newer.ID {
		t.Errorf("Expected newest bookmark first, got article %s", list[0].ArticleID)
	}
}

func TestPreferredTopicsDefaultEmpty(t *testing.T) {
	db := setupTestDB(t)

	prefs, err := db.GetPreferredTopics(context.Background(), uuid.New().String())
	if err != nil {
		t.Fatalf("Failed to get preferred topics: %v", err)
	}
	if prefs.Topics == nil || len(prefs.Topics) != 0 {
		t.Errorf("Expected empty topics for a new user, got %v", prefs.Topics)
	}
}

func TestSetPreferredTopicsUpsertAndDedupe(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	userID := uuid.New().String()

	if err := db.SetPreferredTopics(ctx, userID, []string{"tech", "science", "tech"}); err != nil {
		t.Fatalf("Failed to set preferred topics: %v", err)
	}
	prefs, err := db.GetPreferredTopics(ctx, userID)
	if err != nil {
		t.Fatalf("Failed to get preferred topics: %v", err)
	}
	if len(prefs.Topics) != 2 || prefs.Topics[0] != "tech" || prefs.Topics[1] != "science" {
		t.Errorf("Expected deduplicated [tech science], got %v", prefs.Topics)
	}

	if err := db.SetPreferredTopics(ctx, userID, []string{"sports"}); err != nil {
		t.Fatalf("Failed to replace preferred topics: %v", err)
	}
	prefs, err = db.GetPreferredTopics(ctx, userID)
	if err != nil {
		t.Fatalf("Failed to get preferred topics: %v", err)
	}
	if len(prefs.Topics) != 1 || prefs.Topics[0] != "sports" {
		t.Errorf("Expected replacement [sports], got %v", prefs.Topics)
	}
}
