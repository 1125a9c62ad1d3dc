// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package models

// SourceStats is one row of the per-source article breakdown.
type SourceStats struct {
	Source       string `json:"source"`
	ArticleCount int64  `json:"article_count"`
}

// AdminStats is the system-wide snapshot served by GET /api/v1/admin/stats.
type AdminStats struct {
	TotalArticles    int64         `json:"total_articles"`
	EmbeddedArticles int64         `json:"embedded_articles"`
	TotalEvents      int64         `json:"total_events"`
	EventsLast24h    int64         `json:"events_last_24h"`
	TotalUsers       int64         `json:"total_users"`
	TotalBookmarks   int64         `json:"total_bookmarks"`
	TopSources       []SourceStats `json:"top_sources"`
}
