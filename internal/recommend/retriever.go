// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/intellweave/intellweave/internal/config"
	"github.com/intellweave/intellweave/internal/logging"
	"github.com/intellweave/intellweave/internal/metrics"
	"github.com/intellweave/intellweave/internal/vector"
)

// Strategy labels used in retrieval metrics.
const (
	strategyVector  = "vector"
	strategyRecency = "recency"
)

// Retriever assembles the candidate set for one feed request by running the
// vector-similarity and recency strategies concurrently and merging their
// results. Either strategy failing degrades the set instead of failing the
// request; RetrievalResult reports which side went dark.
type Retriever struct {
	store    Store
	index    VectorSearcher
	embedder Embedder
	cfg      *config.RecommendConfig
	now      func() time.Time
	log      zerolog.Logger
}

// NewRetriever wires a retriever. index and embedder may be nil, which
// permanently disables the vector strategy. now defaults to time.Now.
func NewRetriever(store Store, index VectorSearcher, embedder Embedder, cfg *config.RecommendConfig, now func() time.Time) *Retriever {
	if now == nil {
		now = time.Now
	}
	return &Retriever{
		store:    store,
		index:    index,
		embedder: embedder,
		cfg:      cfg,
		now:      now,
		log:      logging.WithComponent("recommend"),
	}
}

// Retrieve returns up to retrieval_multiple×n deduplicated candidates the
// user has not already consumed, drawn from both strategies. Each strategy
// runs under its own timeout so one stall cannot eat the whole request
// budget.
func (r *Retriever) Retrieve(ctx context.Context, userID string, profile UserProfile, n int) RetrievalResult {
	fetch := n * r.cfg.RetrievalMultiple
	if fetch < n {
		fetch = n
	}
	since := r.now().Add(-r.cfg.CandidateWindow)
	consumed := r.consumed(ctx, userID)

	var (
		vectorCands   []Candidate
		recencyCands  []Candidate
		vectorFailed  bool
		recencyFailed bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sctx, cancel := context.WithTimeout(gctx, r.cfg.RetrievalTimeout)
		defer cancel()
		cands, err := r.vectorStrategy(sctx, userID, profile, fetch, since, consumed)
		if err != nil {
			vectorFailed = true
			r.log.Warn().Err(err).Str("user_id", userID).Msg("Vector retrieval unavailable")
			return nil
		}
		vectorCands = cands
		return nil
	})
	g.Go(func() error {
		sctx, cancel := context.WithTimeout(gctx, r.cfg.RetrievalTimeout)
		defer cancel()
		rows, err := r.store.ListRecent(sctx, since, consumed, fetch)
		if err != nil {
			recencyFailed = true
			r.log.Warn().Err(err).Str("user_id", userID).Msg("Recency retrieval unavailable")
			return nil
		}
		recencyCands = make([]Candidate, 0, len(rows))
		for _, a := range rows {
			recencyCands = append(recencyCands, Candidate{Article: a, FromRecency: true})
		}
		return nil
	})
	// Strategy goroutines always return nil; failures degrade, never abort.
	_ = g.Wait()

	metrics.RecordRetrieval(strategyVector, len(vectorCands), vectorFailed)
	metrics.RecordRetrieval(strategyRecency, len(recencyCands), recencyFailed)

	merged := mergeByID(vectorCands, recencyCands)
	if len(merged) > fetch {
		merged = merged[:fetch]
	}
	return RetrievalResult{
		Candidates:        merged,
		VectorUnavailable: vectorFailed,
		StoreUnavailable:  recencyFailed,
	}
}

// consumed returns the article ids to exclude. A lookup failure softens to
// an empty set: repeats are better than an empty feed.
func (r *Retriever) consumed(ctx context.Context, userID string) map[string]struct{} {
	ids, err := r.store.ConsumedArticleIDs(ctx, userID)
	if err != nil {
		r.log.Warn().Err(err).Str("user_id", userID).Msg("Consumed-article lookup failed, not excluding history")
		return map[string]struct{}{}
	}
	return ids
}

// vectorStrategy embeds the user's query text, searches the index inside
// the candidate window, and hydrates the hits back into articles in hit
// order.
func (r *Retriever) vectorStrategy(ctx context.Context, userID string, profile UserProfile, limit int, since time.Time, consumed map[string]struct{}) ([]Candidate, error) {
	if r.index == nil || r.embedder == nil {
		return nil, fmt.Errorf("vector strategy not configured")
	}

	query := r.queryText(ctx, userID, profile)
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query text: %w", err)
	}

	hits, err := r.index.Search(vec, limit, vector.SearchOptions{
		PublishedAfter: since,
		Exclude:        consumed,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	ids := make([]string, len(hits))
	distance := make(map[string]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
		distance[h.ID] = h.Distance
	}
	articles, err := r.store.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to hydrate vector hits: %w", err)
	}

	cands := make([]Candidate, 0, len(articles))
	for _, a := range articles {
		cands = append(cands, Candidate{
			Article:    a,
			FromVector: true,
			Distance:   distance[a.ID],
		})
	}
	return cands, nil
}

// queryText picks the text embedded for vector retrieval: the user's
// explicit preferred topics, else the profile's top-weighted topics, else a
// generic seed for users with no signal at all.
func (r *Retriever) queryText(ctx context.Context, userID string, profile UserProfile) string {
	prefs, err := r.store.GetPreferredTopics(ctx, userID)
	if err != nil {
		r.log.Warn().Err(err).Str("user_id", userID).Msg("Preferred topics unavailable, using profile topics")
	} else if len(prefs.Topics) > 0 {
		return strings.Join(prefs.Topics, " ")
	}

	if topics := profile.TopTopics(queryTopicLimit); len(topics) > 0 {
		return strings.Join(topics, " ")
	}
	return defaultQueryText
}

// mergeByID deduplicates candidates by article id. First occurrence wins
// the slot (primary list first, so vector hits keep their rank); duplicate
// sightings OR their provenance flags into the kept entry and a primary
// duplicate contributes its distance.
func mergeByID(primary, secondary []Candidate) []Candidate {
	out := make([]Candidate, 0, len(primary)+len(secondary))
	seen := make(map[string]int, len(primary)+len(secondary))

	add := func(c Candidate) {
		i, dup := seen[c.Article.ID]
		if !dup {
			seen[c.Article.ID] = len(out)
			out = append(out, c)
			return
		}
		if c.FromVector && !out[i].FromVector {
			out[i].FromVector = true
			out[i].Distance = c.Distance
		}
		out[i].FromRecency = out[i].FromRecency || c.FromRecency
	}

	for _, c := range primary {
		add(c)
	}
	for _, c := range secondary {
		add(c)
	}
	return out
}
