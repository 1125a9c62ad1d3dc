// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package models

import "time"

// ScoreBreakdown exposes the signal components behind one feed item's final
// score. All values are in [0,1] except Final, which reflects the re-ranking
// objective and may dip below a raw component.
type ScoreBreakdown struct {
	Content     float64 `json:"content"`
	Popularity  float64 `json:"popularity"`
	Freshness   float64 `json:"freshness"`
	Credibility float64 `json:"credibility"`
	Final       float64 `json:"final"`
}

// FeedItem is one ranked entry in a personalized feed.
type FeedItem struct {
	Article AnnotatedArticle `json:"article"`
	Score   float64          `json:"score"`
	Scores  *ScoreBreakdown  `json:"scores,omitempty"`
}

// Feed is the ordered result of a feed request. ServedBy records which path
// produced it ("personalized", "fallback", or "recent" for the public
// recency feed); Degraded is set when a retrieval strategy failed and the
// feed was assembled from partial signals.
type Feed struct {
	Items    []FeedItem `json:"items"`
	ServedBy string     `json:"served_by"`
	Degraded bool       `json:"degraded"`
}

// ProfileSummary is the diagnostic view of a user's interest profile served
// by GET /api/v1/profile/summary. ActiveHours counts interactions per hour
// of day (index 0 = midnight UTC).
type ProfileSummary struct {
	UserID        string             `json:"user_id"`
	EventCount    int                `json:"event_count"`
	TopicWeights  map[string]float64 `json:"topic_weights"`
	EntityWeights map[string]float64 `json:"entity_weights"`
	ActiveHours   [24]int            `json:"active_hours"`
	BuiltAt       time.Time          `json:"built_at"`
	Cached        bool               `json:"cached"`
}
