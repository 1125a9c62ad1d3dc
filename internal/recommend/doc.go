// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

// Package recommend implements the personalized feed pipeline: build an
// interest profile from interaction history, retrieve candidates from the
// vector index and the recency list concurrently, blend per-article signal
// scores, and re-rank for topical diversity.
//
// The pipeline degrades instead of failing. A user with no usable history
// gets a cold-start profile, a dead vector index leaves the recency strategy
// standing, and an exhausted or timed-out request falls back to a flat
// credibility-ordered feed. PersonalizedFeed therefore returns a Feed in
// every case; Feed.ServedBy and Feed.Degraded tell the caller which path
// produced it.
//
// Engine is the composition root. Sub-stages (ProfileBuilder, Retriever,
// Scorer, FallbackSupplier) are independently constructible for tests but
// share one RecommendConfig so the tunables stay in one place.
package recommend
