// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package recommend

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/intellweave/intellweave/internal/cache"
	"github.com/intellweave/intellweave/internal/config"
	"github.com/intellweave/intellweave/internal/logging"
	"github.com/intellweave/intellweave/internal/metrics"
	"github.com/intellweave/intellweave/internal/models"
)

// Fallback activation reasons exported in metrics.
const (
	fallbackReasonDeadline     = "deadline"
	fallbackReasonNoCandidates = "no_candidates"
	fallbackReasonRetrievalOut = "retrieval_down"
)

// Engine runs the full feed pipeline. It is safe for concurrent use and
// never returns an error from its outward operations: every failure mode
// degrades toward the fallback feed.
type Engine struct {
	cfg        *config.RecommendConfig
	profiles   *ProfileBuilder
	retriever  *Retriever
	scorer     *Scorer
	fallback   *FallbackSupplier
	popularity PopularityFn
	now        func() time.Time
	log        zerolog.Logger
}

// EngineOption customizes engine construction.
type EngineOption func(*engineOptions)

type engineOptions struct {
	now          func() time.Time
	profileCache *cache.LRU[UserProfile]
}

// WithClock injects the time source used for window arithmetic and cache
// expiry. Tests freeze it.
func WithClock(now func() time.Time) EngineOption {
	return func(o *engineOptions) { o.now = now }
}

// WithProfileCache injects a prebuilt profile cache, replacing the one the
// engine would otherwise size from config.
func WithProfileCache(c *cache.LRU[UserProfile]) EngineOption {
	return func(o *engineOptions) { o.profileCache = c }
}

// NewEngine wires the pipeline against its dependencies. popularity may be
// nil, in which case every candidate scores neutral popularity.
func NewEngine(cfg *config.RecommendConfig, store Store, index VectorSearcher, embedder Embedder, popularity PopularityFn, opts ...EngineOption) *Engine {
	o := engineOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.profileCache == nil {
		o.profileCache = cache.NewLRUWithClock[UserProfile](cfg.ProfileCacheSize, cfg.ProfileCacheTTL, o.now)
	}
	return &Engine{
		cfg:        cfg,
		profiles:   NewProfileBuilder(store, o.profileCache, cfg, o.now),
		retriever:  NewRetriever(store, index, embedder, cfg, o.now),
		scorer:     NewScorer(cfg, o.now),
		fallback:   NewFallbackSupplier(store, cfg, o.now),
		popularity: popularity,
		now:        o.now,
		log:        logging.WithComponent("recommend"),
	}
}

// FeedOption customizes one feed request.
type FeedOption func(*feedOptions)

type feedOptions struct {
	diversity *float64
}

// WithDiversityFactor overrides the configured MMR lambda for this request.
// Values outside [0,1] are clamped; 0 disables diversity re-ranking.
func WithDiversityFactor(lambda float64) FeedOption {
	return func(o *feedOptions) { o.diversity = &lambda }
}

// PersonalizedFeed assembles a ranked feed for the user. The pipeline is
// profile, retrieve, score, re-rank; an empty outcome or an expired context
// at any stage boundary reroutes to the fallback feed instead of erroring.
func (e *Engine) PersonalizedFeed(ctx context.Context, userID string, limit int, opts ...FeedOption) models.Feed {
	limit = e.clampLimit(limit)

	lambda := e.cfg.DiversityFactor
	var o feedOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.diversity != nil {
		lambda = *o.diversity
	}
	lambda = clamp01(lambda)

	if ctx.Err() != nil {
		return e.serveFallback(ctx, userID, limit, fallbackReasonDeadline, false)
	}

	t := time.Now()
	profile := e.profiles.BuildProfile(ctx, userID)
	metrics.RecordPipelineStage("profile", time.Since(t))

	if ctx.Err() != nil {
		return e.serveFallback(ctx, userID, limit, fallbackReasonDeadline, false)
	}

	t = time.Now()
	retrieved := e.retriever.Retrieve(ctx, userID, profile, limit)
	metrics.RecordPipelineStage("retrieve", time.Since(t))

	degraded := retrieved.VectorUnavailable || retrieved.StoreUnavailable
	if len(retrieved.Candidates) == 0 {
		reason := fallbackReasonNoCandidates
		if retrieved.VectorUnavailable && retrieved.StoreUnavailable {
			reason = fallbackReasonRetrievalOut
		}
		return e.serveFallback(ctx, userID, limit, reason, degraded)
	}
	if ctx.Err() != nil {
		return e.serveFallback(ctx, userID, limit, fallbackReasonDeadline, degraded)
	}

	t = time.Now()
	scored := make([]ScoredArticle, 0, len(retrieved.Candidates))
	for _, c := range retrieved.Candidates {
		scored = append(scored, e.scorer.ScoreCandidate(c, profile, e.popularity))
	}
	metrics.RecordPipelineStage("score", time.Since(t))

	t = time.Now()
	ranked := Rerank(scored, limit, lambda)
	metrics.RecordPipelineStage("rerank", time.Since(t))

	items := make([]models.FeedItem, 0, len(ranked))
	for _, sa := range ranked {
		breakdown := sa.Scores
		items = append(items, models.FeedItem{
			Article: sa.Article,
			Score:   breakdown.Final,
			Scores:  &breakdown,
		})
	}

	metrics.RecordFeedServed(ServedByPersonalized)
	e.log.Debug().
		Str("user_id", userID).
		Int("candidates", len(retrieved.Candidates)).
		Int("items", len(items)).
		Bool("degraded", degraded).
		Msg("Served personalized feed")
	return models.Feed{Items: items, ServedBy: ServedByPersonalized, Degraded: degraded}
}

// ProfileSummary returns the diagnostic view of the user's profile, trimmed
// to the heaviest weights. Cached reports whether the profile was served
// from cache or built for this call.
func (e *Engine) ProfileSummary(ctx context.Context, userID string) models.ProfileSummary {
	profile, cached := e.profiles.Peek(userID)
	if !cached {
		profile = e.profiles.BuildProfile(ctx, userID)
	}
	return models.ProfileSummary{
		UserID:        userID,
		EventCount:    profile.EventCount,
		TopicWeights:  topWeightMap(profile.TopicWeights, summaryWeightLimit),
		EntityWeights: topWeightMap(profile.EntityWeights, summaryWeightLimit),
		ActiveHours:   profile.ActiveHours,
		BuiltAt:       profile.BuiltAt,
		Cached:        cached,
	}
}

// RefreshProfile rebuilds the user's profile immediately, bypassing the
// cache TTL.
func (e *Engine) RefreshProfile(ctx context.Context, userID string) models.ProfileSummary {
	profile := e.profiles.BuildProfileFresh(ctx, userID)
	return models.ProfileSummary{
		UserID:        userID,
		EventCount:    profile.EventCount,
		TopicWeights:  topWeightMap(profile.TopicWeights, summaryWeightLimit),
		EntityWeights: topWeightMap(profile.EntityWeights, summaryWeightLimit),
		ActiveHours:   profile.ActiveHours,
		BuiltAt:       profile.BuiltAt,
	}
}

// serveFallback produces the non-personalized feed. When the caller's
// context is already dead the query runs on a detached short budget, so an
// expired request deadline still yields a usable response.
func (e *Engine) serveFallback(ctx context.Context, userID string, limit int, reason string, degraded bool) models.Feed {
	fctx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), fallbackBudget)
		defer cancel()
	}

	metrics.RecordFallback(reason)
	items := e.fallback.Fallback(fctx, limit)
	metrics.RecordFeedServed(ServedByFallback)

	e.log.Info().
		Str("user_id", userID).
		Str("reason", reason).
		Int("items", len(items)).
		Msg("Served fallback feed")
	return models.Feed{Items: items, ServedBy: ServedByFallback, Degraded: degraded}
}

func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 {
		if e.cfg.DefaultLimit > 0 {
			return e.cfg.DefaultLimit
		}
		return 20
	}
	if e.cfg.MaxLimit > 0 && limit > e.cfg.MaxLimit {
		return e.cfg.MaxLimit
	}
	return limit
}

// topWeightMap keeps the n heaviest entries of a weight map.
func topWeightMap(weights map[string]float64, n int) map[string]float64 {
	names := topWeighted(weights, n)
	out := make(map[string]float64, len(names))
	for _, name := range names {
		out[name] = weights[name]
	}
	return out
}
