// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package models

import "time"

// Interaction event types accepted by the events endpoint. Unknown types are
// rejected at validation; the ranking layer carries a separate weight table
// keyed on these values.
const (
	EventClick      = "click"
	EventRead       = "read"
	EventBookmark   = "bookmark"
	EventShare      = "share"
	EventLike       = "like"
	EventComment    = "comment"
	EventDwellTime  = "dwell_time"
	EventImpression = "impression"
	EventSave       = "save"
)

// InteractionEvent is one recorded user interaction with an article.
type InteractionEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ArticleID string    `json:"article_id"`
	EventType string    `json:"event_type"`
	CreatedAt time.Time `json:"created_at"`
}

// UserEvent is an interaction event joined with the article's annotation
// fields the profile builder needs. Topics, entities and sentiment come from
// the article's NLP row and are empty when the article has no annotation.
type UserEvent struct {
	InteractionEvent
	Topics    []string `json:"topics,omitempty"`
	Entities  []string `json:"entities,omitempty"`
	Sentiment string   `json:"sentiment,omitempty"`
}

// RecordEventRequest is the body of POST /api/v1/events.
type RecordEventRequest struct {
	ArticleID string `json:"article_id" validate:"required,uuid4"`
	EventType string `json:"event_type" validate:"required,interaction_type"`
}
