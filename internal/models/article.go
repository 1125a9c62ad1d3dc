// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package models

import "time"

// Article is a stored news article. Body text is capped at ingestion time;
// PublishedAt is nil when the source did not provide a publication date.
type Article struct {
	ID                 string     `json:"id"`
	URL                string     `json:"url"`
	Title              string     `json:"title"`
	Subtitle           string     `json:"subtitle,omitempty"`
	Author             string     `json:"author,omitempty"`
	Source             string     `json:"source,omitempty"`
	BodyText           string     `json:"body_text,omitempty"`
	Language           string     `json:"language,omitempty"`
	ReadingTimeMinutes int        `json:"reading_time_minutes,omitempty"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// KeyEntity is one named entity extracted from an article.
type KeyEntity struct {
	Text       string  `json:"text"`
	Type       string  `json:"type"` // PERSON, ORG, LOC, MISC
	Confidence float64 `json:"confidence"`
}

// ArticleNLP holds the NLP annotation for one article.
//
// Credibility is stored on a 0-100 scale and converted to [0,1] at the
// storage boundary; a nil Credibility means the signal is absent and callers
// substitute the neutral default. Embedding is nil when no vector has been
// computed yet.
type ArticleNLP struct {
	ArticleID   string      `json:"article_id"`
	Topics      []string    `json:"topics"`
	Entities    []KeyEntity `json:"entities"`
	Sentiment   string      `json:"sentiment"` // positive, neutral, negative
	Credibility *float64    `json:"credibility,omitempty"`
	Embedding   []float32   `json:"-"`
}

// AnnotatedArticle is an article joined with its NLP annotation, the unit
// served by article detail and feed endpoints. Credibility is normalized to
// [0,1] here; nil means the signal is absent.
type AnnotatedArticle struct {
	Article
	Topics      []string    `json:"topics"`
	Entities    []KeyEntity `json:"entities,omitempty"`
	Sentiment   string      `json:"sentiment,omitempty"`
	Credibility *float64    `json:"credibility,omitempty"`
}

// TrendingTopic is one row of the trending topics report: how often a topic
// appeared in recent interactions and the average credibility of the articles
// that carried it.
type TrendingTopic struct {
	Topic          string  `json:"topic"`
	Count          int64   `json:"count"`
	AvgCredibility float64 `json:"avg_credibility"`
}
