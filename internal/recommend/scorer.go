// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package recommend

import (
	"math"
	"time"

	"github.com/intellweave/intellweave/internal/config"
	"github.com/intellweave/intellweave/internal/models"
)

// Scorer blends per-article signals into one relevance score. Every signal
// that cannot be computed substitutes its neutral default, so scoring never
// fails and never needs a context.
type Scorer struct {
	cfg *config.RecommendConfig
	now func() time.Time
}

// NewScorer wires a scorer. now defaults to time.Now when nil.
func NewScorer(cfg *config.RecommendConfig, now func() time.Time) *Scorer {
	if now == nil {
		now = time.Now
	}
	return &Scorer{cfg: cfg, now: now}
}

// ScoreCandidate computes the weighted blend of content match, popularity,
// freshness, and credibility for one candidate, keeping the per-signal
// breakdown for transparency.
func (s *Scorer) ScoreCandidate(c Candidate, profile UserProfile, popularity PopularityFn) ScoredArticle {
	breakdown := models.ScoreBreakdown{
		Content:     contentScore(c.Article, profile),
		Popularity:  s.popularityScore(c.Article.ID, popularity),
		Freshness:   s.freshnessScore(c.Article.PublishedAt),
		Credibility: credibilityScore(c.Article.Credibility),
	}
	breakdown.Final = clamp01(s.cfg.ContentWeight*breakdown.Content +
		s.cfg.PopularityWeight*breakdown.Popularity +
		s.cfg.FreshnessWeight*breakdown.Freshness +
		s.cfg.CredibilityWeight*breakdown.Credibility)

	return ScoredArticle{Candidate: c, Scores: breakdown}
}

// contentScore measures overlap between the article's annotation and the
// profile's accumulated interests. Topic weight counts double the entity
// weight per unit; the sum clamps at 1 so a single obsession cannot blow
// past the scale.
func contentScore(a models.AnnotatedArticle, profile UserProfile) float64 {
	var score float64
	for _, t := range a.Topics {
		score += profile.TopicWeights[t] * topicMatchScale
	}
	for _, e := range a.Entities {
		score += profile.EntityWeights[e.Text] * entityMatchScale
	}
	return clamp01(score)
}

// popularityScore converts the trailing-window interaction count into
// [0,1]. No counter, or a counter that cannot answer, scores neutral.
func (s *Scorer) popularityScore(articleID string, popularity PopularityFn) float64 {
	if popularity == nil {
		return neutralPopularity
	}
	count, ok := popularity(articleID)
	if !ok {
		return neutralPopularity
	}
	denom := s.cfg.PopularityDenominator
	if denom <= 0 {
		return neutralPopularity
	}
	return clamp01(float64(count) / denom)
}

// freshnessScore decays with article age. Articles without a publish date
// score neutral instead of being treated as ancient; a future-dated publish
// time counts as age zero.
func (s *Scorer) freshnessScore(publishedAt *time.Time) float64 {
	if publishedAt == nil {
		return neutralFreshness
	}
	age := s.now().Sub(*publishedAt)
	if age < 0 {
		age = 0
	}

	if s.cfg.FreshnessMode == FreshnessModeHalfLife {
		halfLife := s.cfg.FreshnessHalfLife
		if halfLife <= 0 {
			halfLife = 48 * time.Hour
		}
		return math.Exp(-age.Hours() / halfLife.Hours() * math.Ln2)
	}

	for _, step := range freshnessSteps {
		if age <= step.maxAge {
			return step.score
		}
	}
	return freshnessFloor
}

// credibilityScore passes through the stored [0,1] credibility, neutral
// when the article was never rated.
func credibilityScore(credibility *float64) float64 {
	if credibility == nil {
		return neutralCredibility
	}
	return clamp01(*credibility)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
