// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package models

import "time"

// User roles. Reader is the default role for registered accounts; admin is
// granted to the bootstrap account and by manual promotion.
const (
	RoleReader = "reader"
	RoleAdmin  = "admin"
)

// User is a registered account. PasswordHash never leaves the storage and
// auth layers.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name,omitempty"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterRequest is the body of POST /api/v1/auth/register.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	DisplayName string `json:"display_name" validate:"omitempty,max=100"`
}

// LoginRequest is the body of POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the signed token and the authenticated user.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

// Bookmark is a saved article reference.
type Bookmark struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ArticleID string    `json:"article_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateBookmarkRequest is the body of POST /api/v1/bookmarks.
type CreateBookmarkRequest struct {
	ArticleID string `json:"article_id" validate:"required,uuid4"`
}

// BookmarkWithArticle is one bookmark list entry hydrated with its article.
type BookmarkWithArticle struct {
	Bookmark
	Article AnnotatedArticle `json:"article"`
}

// PreferredTopics is the explicit topic preference list a user maintains;
// it seeds cold-start retrieval before interaction history accumulates.
type PreferredTopics struct {
	UserID    string    `json:"user_id"`
	Topics    []string  `json:"topics"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdatePreferredTopicsRequest is the body of PUT /api/v1/profile/topics.
type UpdatePreferredTopicsRequest struct {
	Topics []string `json:"topics" validate:"required,max=50,dive,min=1,max=64"`
}
