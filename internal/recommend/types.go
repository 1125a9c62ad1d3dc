// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package recommend

import (
	"context"
	"sort"
	"time"

	"github.com/intellweave/intellweave/internal/models"
	"github.com/intellweave/intellweave/internal/vector"
)

// EventSource supplies the interaction history the pipeline reads.
// *storage.DB satisfies it.
type EventSource interface {
	ListUserEvents(ctx context.Context, userID string, since time.Time, limit int) ([]models.UserEvent, error)
	ConsumedArticleIDs(ctx context.Context, userID string) (map[string]struct{}, error)
}

// ArticleSource supplies candidate and fallback articles. *storage.DB
// satisfies it.
type ArticleSource interface {
	ListRecent(ctx context.Context, since time.Time, exclude map[string]struct{}, limit int) ([]models.AnnotatedArticle, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.AnnotatedArticle, error)
	ListFallback(ctx context.Context, since time.Time, limit int) ([]models.AnnotatedArticle, error)
}

// PreferenceSource supplies the user's explicitly chosen topics.
// *storage.DB satisfies it.
type PreferenceSource interface {
	GetPreferredTopics(ctx context.Context, userID string) (*models.PreferredTopics, error)
}

// Store is the full storage surface the engine needs.
type Store interface {
	EventSource
	ArticleSource
	PreferenceSource
}

// VectorSearcher is the nearest-neighbour lookup used by the vector
// retrieval strategy. *vector.Index satisfies it.
type VectorSearcher interface {
	Search(query []float32, k int, opts vector.SearchOptions) ([]vector.Result, error)
}

// Embedder turns retrieval query text into a vector. *nlp.Service
// satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// PopularityFn reports the trailing-window interaction count for an
// article. ok is false when no counter is available, in which case the
// scorer substitutes the neutral popularity.
type PopularityFn func(articleID string) (count int64, ok bool)

// UserProfile is the weighted interest summary built from a user's recent
// interaction history. Weights are unnormalized sums of event weights; only
// their relative size matters. A cold-start profile has empty maps and
// EventCount zero.
type UserProfile struct {
	UserID           string
	TopicWeights     map[string]float64
	EntityWeights    map[string]float64
	SentimentWeights map[string]float64
	ActiveHours      [24]int
	EventCount       int
	BuiltAt          time.Time
}

// newColdProfile returns an empty profile that scores every candidate on
// non-content signals alone.
func newColdProfile(userID string, builtAt time.Time) UserProfile {
	return UserProfile{
		UserID:           userID,
		TopicWeights:     map[string]float64{},
		EntityWeights:    map[string]float64{},
		SentimentWeights: map[string]float64{},
		BuiltAt:          builtAt,
	}
}

// TopTopics returns up to n topics ordered by descending weight, ties on
// ascending name so the result is stable.
func (p UserProfile) TopTopics(n int) []string {
	return topWeighted(p.TopicWeights, n)
}

func topWeighted(weights map[string]float64, n int) []string {
	if n <= 0 || len(weights) == 0 {
		return nil
	}
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if weights[names[i]] != weights[names[j]] {
			return weights[names[i]] > weights[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

// Candidate is one article under consideration for a feed, tagged with the
// retrieval strategies that produced it. Distance is the cosine distance
// from the vector strategy and is meaningful only when FromVector is set.
type Candidate struct {
	Article     models.AnnotatedArticle
	FromVector  bool
	FromRecency bool
	Distance    float64
}

// RetrievalResult carries the merged candidate set plus per-strategy
// availability. Both flags set with no candidates means retrieval is fully
// down and the caller should serve the fallback feed.
type RetrievalResult struct {
	Candidates        []Candidate
	VectorUnavailable bool
	StoreUnavailable  bool
}

// ScoredArticle pairs a candidate with its signal breakdown. Scores.Final
// starts as the blended score and is overwritten with the re-ranking
// objective value once diversity re-ranking has run.
type ScoredArticle struct {
	Candidate
	Scores models.ScoreBreakdown
}
