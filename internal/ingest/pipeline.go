// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/intellweave/intellweave/internal/cache"
	"github.com/intellweave/intellweave/internal/logging"
	"github.com/intellweave/intellweave/internal/models"
	"github.com/intellweave/intellweave/internal/nlp"
)

var (
	// ErrDuplicate means the canonical URL was already ingested in the
	// current dedup window.
	ErrDuplicate = errors.New("article already ingested")

	// ErrEmpty means extraction produced neither a title nor body text.
	ErrEmpty = errors.New("article has no text content")
)

const (
	// Dedup window sizing. After the TTL a still-published story is
	// re-annotated once, which refreshes its stored content.
	seenCapacity = 50000
	seenTTL      = 24 * time.Hour
	seenFPRate   = 0.01

	// manualCredibility is the rating for operator-submitted articles whose
	// domain the trust table has no opinion on. A human vouched for the
	// source, which is worth more than no signal.
	manualCredibility = 70.0
)

// ArticleStore persists articles and their annotations, normally *storage.DB.
type ArticleStore interface {
	UpsertArticle(ctx context.Context, article *models.Article) error
	UpsertNLP(ctx context.Context, nlp *models.ArticleNLP) error
}

// Embedder produces article vectors, normally *nlp.Service.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Indexer receives freshly embedded articles, normally *vector.Index.
type Indexer interface {
	Upsert(id string, vec []float32, publishedAt time.Time) error
}

// Pipeline runs one article through annotate, embed, persist and index. Feed
// sweeps and operator URL submissions both end here, so every stored article
// carries the same annotation surface regardless of how it arrived.
type Pipeline struct {
	store     ArticleStore
	annotator *nlp.Annotator
	embedder  Embedder
	index     Indexer
	seen      *cache.SeenFilter
	log       zerolog.Logger

	ingested   atomic.Int64
	duplicates atomic.Int64
	empty      atomic.Int64
	failures   atomic.Int64
}

// PipelineStats is a snapshot of pipeline counters for the admin surface.
type PipelineStats struct {
	Ingested    int64 `json:"ingested"`
	Duplicates  int64 `json:"duplicates"`
	Empty       int64 `json:"empty"`
	Failures    int64 `json:"failures"`
	TrackedURLs int   `json:"tracked_urls"`
}

// NewPipeline wires the ingestion pipeline. All four collaborators are
// required.
func NewPipeline(store ArticleStore, annotator *nlp.Annotator, embedder Embedder, index Indexer) (*Pipeline, error) {
	if store == nil {
		return nil, errors.New("article store is required")
	}
	if annotator == nil {
		return nil, errors.New("annotator is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if index == nil {
		return nil, errors.New("indexer is required")
	}
	return &Pipeline{
		store:     store,
		annotator: annotator,
		embedder:  embedder,
		index:     index,
		seen:      cache.NewSeenFilter(seenCapacity, seenTTL, seenFPRate),
		log:       logging.WithComponent("ingest"),
	}, nil
}

// Ingest processes one article from a feed sweep. Canonical URLs seen within
// the dedup window return ErrDuplicate without touching storage.
func (p *Pipeline) Ingest(ctx context.Context, article *models.Article) error {
	return p.ingest(ctx, article, false)
}

// IngestManual processes one operator-submitted article. Re-submitting a URL
// refreshes the stored article instead of being dropped as a duplicate, and
// unrated sources get the manual default credibility.
func (p *Pipeline) IngestManual(ctx context.Context, article *models.Article) error {
	return p.ingest(ctx, article, true)
}

func (p *Pipeline) ingest(ctx context.Context, article *models.Article, manual bool) error {
	if article == nil {
		return errors.New("article is required")
	}

	canonical, err := CanonicalURL(article.URL)
	if err != nil {
		p.failures.Add(1)
		return fmt.Errorf("failed to canonicalize %q: %w", article.URL, err)
	}
	article.URL = canonical

	if !manual && p.seen.Contains(canonical) {
		p.duplicates.Add(1)
		return ErrDuplicate
	}

	article.Title = strings.TrimSpace(article.Title)
	article.BodyText = strings.TrimSpace(article.BodyText)
	if article.Title == "" && article.BodyText == "" {
		p.empty.Add(1)
		return ErrEmpty
	}
	if article.Title == "" {
		// A headline-less page still needs a display title.
		article.Title = canonical
	}
	if article.BodyText != "" {
		article.ReadingTimeMinutes = nlp.ReadingTime(article.BodyText)
	}

	if err := p.store.UpsertArticle(ctx, article); err != nil {
		p.failures.Add(1)
		return fmt.Errorf("failed to store article %s: %w", canonical, err)
	}

	// Annotate after the upsert: a URL conflict keeps the existing row id,
	// and the annotation must carry the id actually stored.
	annotation := p.annotator.Annotate(article)
	if manual && annotation.Credibility == nil {
		cred := manualCredibility
		annotation.Credibility = &cred
	}

	text := article.Title
	if article.BodyText != "" {
		text = article.Title + "\n\n" + article.BodyText
	}
	vec, err := p.embedder.Embed(ctx, text)
	if err != nil {
		// The article is stored and keyword-searchable either way; the
		// vector can arrive on a later refresh.
		p.log.Warn().Err(err).Str("article_id", article.ID).Msg("Embedding failed, storing article without a vector")
		vec = nil
	}
	annotation.Embedding = vec

	if err := p.store.UpsertNLP(ctx, annotation); err != nil {
		p.failures.Add(1)
		return fmt.Errorf("failed to store annotation for %s: %w", article.ID, err)
	}

	if len(vec) > 0 {
		publishedAt := article.CreatedAt
		if article.PublishedAt != nil {
			publishedAt = *article.PublishedAt
		}
		if err := p.index.Upsert(article.ID, vec, publishedAt); err != nil {
			p.log.Warn().Err(err).Str("article_id", article.ID).Msg("Vector index update failed")
		}
	}

	// Record only after success so a failed article retries next sweep.
	p.seen.Record(canonical)
	p.ingested.Add(1)
	return nil
}

// CleanupSeen drops expired dedup entries and returns how many were removed.
func (p *Pipeline) CleanupSeen() int {
	return p.seen.CleanupExpired()
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() PipelineStats {
	return PipelineStats{
		Ingested:    p.ingested.Load(),
		Duplicates:  p.duplicates.Load(),
		Empty:       p.empty.Load(),
		Failures:    p.failures.Load(),
		TrackedURLs: p.seen.Len(),
	}
}
