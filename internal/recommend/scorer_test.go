// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package recommend

import (
	"math"
	"testing"
	"time"

	"github.com/intellweave/intellweave/internal/models"
)

func scorerProfile() UserProfile {
	profile := newColdProfile("u1", fixedNow)
	profile.TopicWeights["technology"] = 5
	profile.TopicWeights["science"] = 2
	profile.EntityWeights["NASA"] = 2
	return profile
}

func TestScoreCandidateBlend(t *testing.T) {
	article := feedArticle("a1", []string{"technology"}, fixedNow.Add(-30*time.Minute), floatPtr(0.9))
	article.Entities = []models.KeyEntity{{Text: "NASA", Type: "ORG", Confidence: 0.9}}
	candidate := Candidate{Article: article, FromRecency: true}

	scorer := NewScorer(testRecommendConfig(), frozenClock())
	popularity := func(string) (int64, bool) { return 25, true }

	scored := scorer.ScoreCandidate(candidate, scorerProfile(), popularity)

	// content = 5*0.1 + 2*0.05 = 0.6, popularity = 25/50, freshness <=1h,
	// credibility as stored.
	if math.Abs(scored.Scores.Content-0.6) > 1e-9 {
		t.Errorf("Expected content 0.6, got %v", scored.Scores.Content)
	}
	if math.Abs(scored.Scores.Popularity-0.5) > 1e-9 {
		t.Errorf("Expected popularity 0.5, got %v", scored.Scores.Popularity)
	}
	if math.Abs(scored.Scores.Freshness-1.0) > 1e-9 {
		t.Errorf("Expected freshness 1.0, got %v", scored.Scores.Freshness)
	}
	if math.Abs(scored.Scores.Credibility-0.9) > 1e-9 {
		t.Errorf("Expected credibility 0.9, got %v", scored.Scores.Credibility)
	}
	want := 0.4*0.6 + 0.2*0.5 + 0.2*1.0 + 0.2*0.9
	if math.Abs(scored.Scores.Final-want) > 1e-9 {
		t.Errorf("Expected final %v, got %v", want, scored.Scores.Final)
	}
	if scored.Article.ID != "a1" || !scored.FromRecency {
		t.Errorf("Expected candidate carried through, got %+v", scored.Candidate)
	}
}

func TestContentScoreClamps(t *testing.T) {
	profile := newColdProfile("u1", fixedNow)
	profile.TopicWeights["technology"] = 100

	article := feedArticle("a1", []string{"technology"}, fixedNow, nil)
	if got := contentScore(article, profile); got != 1.0 {
		t.Errorf("Expected content clamped to 1.0, got %v", got)
	}
}

func TestContentScoreColdProfile(t *testing.T) {
	article := feedArticle("a1", []string{"technology"}, fixedNow, nil)
	if got := contentScore(article, newColdProfile("u1", fixedNow)); got != 0 {
		t.Errorf("Expected content 0 for cold profile, got %v", got)
	}
}

func TestContentScoreSeparatesByTopicMatch(t *testing.T) {
	profile := newColdProfile("u1", fixedNow)
	profile.TopicWeights["space"] = 5

	matched := feedArticle("a1", []string{"space", "policy"}, fixedNow, nil)
	unmatched := feedArticle("a2", []string{"sports"}, fixedNow, nil)

	got := contentScore(matched, profile)
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Expected content 0.5 for the matching article, got %v", got)
	}
	if other := contentScore(unmatched, profile); other != 0 {
		t.Errorf("Expected content 0 for the unrelated article, got %v", other)
	}
}

func TestFreshnessSeparatesEqualCandidates(t *testing.T) {
	scorer := NewScorer(testRecommendConfig(), frozenClock())
	profile := newColdProfile("u1", fixedNow)
	popularity := func(string) (int64, bool) { return 25, true }

	recent := Candidate{Article: feedArticle("a1", []string{"science"}, fixedNow.Add(-time.Hour), floatPtr(0.9))}
	stale := Candidate{Article: feedArticle("a2", []string{"science"}, fixedNow.Add(-100*time.Hour), floatPtr(0.9))}

	a := scorer.ScoreCandidate(recent, profile, popularity)
	b := scorer.ScoreCandidate(stale, profile, popularity)

	if a.Scores.Final <= b.Scores.Final {
		t.Errorf("Expected the recent article to outscore the stale one, got %v vs %v", a.Scores.Final, b.Scores.Final)
	}
	// All other signals are equal, so the gap is the weighted freshness delta.
	wantGap := 0.2 * (1.0 - 0.3)
	if gap := a.Scores.Final - b.Scores.Final; math.Abs(gap-wantGap) > 1e-9 {
		t.Errorf("Expected score gap %v, got %v", wantGap, gap)
	}
}

func TestPopularityScore(t *testing.T) {
	scorer := NewScorer(testRecommendConfig(), frozenClock())

	if got := scorer.popularityScore("a1", nil); got != neutralPopularity {
		t.Errorf("Expected neutral popularity without a counter, got %v", got)
	}

	missing := func(string) (int64, bool) { return 0, false }
	if got := scorer.popularityScore("a1", missing); got != neutralPopularity {
		t.Errorf("Expected neutral popularity on lookup failure, got %v", got)
	}

	hot := func(string) (int64, bool) { return 500, true }
	if got := scorer.popularityScore("a1", hot); got != 1.0 {
		t.Errorf("Expected popularity clamped to 1.0, got %v", got)
	}

	mild := func(string) (int64, bool) { return 10, true }
	if got := scorer.popularityScore("a1", mild); math.Abs(got-0.2) > 1e-9 {
		t.Errorf("Expected popularity 0.2, got %v", got)
	}

	silent := func(string) (int64, bool) { return 0, true }
	if got := scorer.popularityScore("a1", silent); got != 0 {
		t.Errorf("Expected popularity 0 for a quiet article, got %v", got)
	}
}

func TestFreshnessStepSchedule(t *testing.T) {
	scorer := NewScorer(testRecommendConfig(), frozenClock())

	cases := []struct {
		name string
		age  time.Duration
		want float64
	}{
		{"under an hour", 30 * time.Minute, 1.0},
		{"under six hours", 3 * time.Hour, 0.9},
		{"under a day", 12 * time.Hour, 0.7},
		{"under three days", 48 * time.Hour, 0.5},
		{"older", 100 * time.Hour, 0.3},
		{"future dated", -time.Hour, 1.0},
	}
	for _, tc := range cases {
		published := fixedNow.Add(-tc.age)
		if got := scorer.freshnessScore(&published); got != tc.want {
			t.Errorf("%s: expected freshness %v, got %v", tc.name, tc.want, got)
		}
	}

	if got := scorer.freshnessScore(nil); got != neutralFreshness {
		t.Errorf("Expected neutral freshness without a date, got %v", got)
	}
}

func TestFreshnessHalfLife(t *testing.T) {
	cfg := testRecommendConfig()
	cfg.FreshnessMode = FreshnessModeHalfLife
	scorer := NewScorer(cfg, frozenClock())

	cases := []struct {
		age  time.Duration
		want float64
	}{
		{0, 1.0},
		{48 * time.Hour, 0.5},
		{96 * time.Hour, 0.25},
	}
	for _, tc := range cases {
		published := fixedNow.Add(-tc.age)
		if got := scorer.freshnessScore(&published); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("age %v: expected freshness %v, got %v", tc.age, tc.want, got)
		}
	}

	if got := scorer.freshnessScore(nil); got != neutralFreshness {
		t.Errorf("Expected neutral freshness without a date, got %v", got)
	}
}

func TestCredibilityScore(t *testing.T) {
	if got := credibilityScore(nil); got != neutralCredibility {
		t.Errorf("Expected neutral credibility for unrated article, got %v", got)
	}
	if got := credibilityScore(floatPtr(0.95)); math.Abs(got-0.95) > 1e-9 {
		t.Errorf("Expected credibility 0.95, got %v", got)
	}
	if got := credibilityScore(floatPtr(1.7)); got != 1.0 {
		t.Errorf("Expected credibility clamped to 1.0, got %v", got)
	}
}

func TestClamp01(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.5, 1},
	}
	for _, tc := range cases {
		if got := clamp01(tc.in); got != tc.want {
			t.Errorf("Expected clamp01(%v) = %v, got %v", tc.in, tc.want, got)
		}
	}
}
