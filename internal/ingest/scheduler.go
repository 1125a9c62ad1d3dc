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
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/intellweave/intellweave/internal/config"
	"github.com/intellweave/intellweave/internal/logging"
	"github.com/intellweave/intellweave/internal/metrics"
	"github.com/intellweave/intellweave/internal/models"
)

const (
	defaultSchedule = "@every 15m"

	// stopTimeout bounds how long Stop waits for an in-flight sweep.
	stopTimeout = 30 * time.Second
)

// Scheduler sweeps the configured RSS/Atom sources on their cron schedules
// and funnels every item through the ingestion pipeline. Sweeps of one source
// never overlap: a slow feed skips ticks instead of piling up.
type Scheduler struct {
	cfg      config.IngestConfig
	fetcher  *Fetcher
	pipeline *Pipeline
	cron     *cron.Cron
	log      zerolog.Logger

	mu      sync.Mutex
	ctx     context.Context
	started bool
}

// NewScheduler registers one cron entry per source, using the source's own
// schedule or the configured default. Invalid schedules fail construction.
func NewScheduler(cfg *config.IngestConfig, fetcher *Fetcher, pipeline *Pipeline) (*Scheduler, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if pipeline == nil {
		return nil, errors.New("pipeline is required")
	}

	log := logging.WithComponent("ingest")
	cl := cronLogger{log: log}
	s := &Scheduler{
		cfg:      *cfg,
		fetcher:  fetcher,
		pipeline: pipeline,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)),
		),
		log: log,
	}

	fallback := cfg.DefaultSchedule
	if fallback == "" {
		fallback = defaultSchedule
	}
	for _, src := range cfg.Sources {
		spec := src.Schedule
		if spec == "" {
			spec = fallback
		}
		src := src
		if _, err := s.cron.AddFunc(spec, func() { s.scheduledSweep(src) }); err != nil {
			return nil, fmt.Errorf("invalid schedule %q for source %q: %w", spec, src.Name, err)
		}
	}

	// Hourly reclaim of expired dedup entries, the scheduler-side analogue
	// of the popularity tracker's bucket cleanup.
	if _, err := s.cron.AddFunc("@hourly", func() {
		if dropped := s.pipeline.CleanupSeen(); dropped > 0 {
			s.log.Debug().Int("dropped", dropped).Msg("Expired dedup entries removed")
		}
	}); err != nil {
		return nil, fmt.Errorf("failed to register cleanup job: %w", err)
	}

	return s, nil
}

// Start launches the cron loop and kicks an immediate sweep of every source
// so a fresh deployment has content before the first tick.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.ctx = ctx
	s.mu.Unlock()

	s.log.Info().
		Int("sources", len(s.cfg.Sources)).
		Str("default_schedule", s.cfg.DefaultSchedule).
		Msg("Ingest scheduler starting")

	s.cron.Start()
	go s.SweepAll(ctx)
}

// Stop halts scheduling and waits for any running sweep, up to stopTimeout.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(stopTimeout):
		s.log.Warn().Msg("Sweep still running at shutdown deadline")
	}
	s.log.Info().Msg("Ingest scheduler stopped")
}

// SweepAll sweeps every configured source once, in order. The admin trigger
// endpoint and the startup warm sweep both come through here.
func (s *Scheduler) SweepAll(ctx context.Context) {
	for _, src := range s.cfg.Sources {
		if ctx.Err() != nil {
			return
		}
		s.sweep(ctx, src)
	}
}

// scheduledSweep is the cron entry point for one source.
func (s *Scheduler) scheduledSweep(src config.FeedSource) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	s.sweep(ctx, src)
}

// sweep fetches one source and ingests its items. Failures never propagate:
// a broken feed costs one error log and an error-outcome metric, nothing
// more.
func (s *Scheduler) sweep(ctx context.Context, src config.FeedSource) {
	start := time.Now()

	feed, err := s.fetcher.FetchFeed(ctx, src.URL)
	if err != nil {
		metrics.RecordIngestSweep(src.Name, time.Since(start), err)
		s.log.Warn().Err(err).Str("source", src.Name).Msg("Feed fetch failed")
		return
	}

	stored, skipped := 0, 0
	for _, item := range feed.Items {
		if ctx.Err() != nil {
			break
		}

		article := feedArticle(src, feed, item, s.cfg.MaxBodyChars)
		if article == nil {
			skipped++
			metrics.IngestArticlesSkipped.WithLabelValues(src.Name, "empty").Inc()
			continue
		}

		switch err := s.pipeline.Ingest(ctx, article); {
		case err == nil:
			stored++
			metrics.IngestArticlesStored.WithLabelValues(src.Name).Inc()
		case errors.Is(err, ErrDuplicate):
			skipped++
			metrics.IngestArticlesSkipped.WithLabelValues(src.Name, "duplicate").Inc()
		case errors.Is(err, ErrEmpty):
			skipped++
			metrics.IngestArticlesSkipped.WithLabelValues(src.Name, "empty").Inc()
		default:
			skipped++
			metrics.IngestArticlesSkipped.WithLabelValues(src.Name, "error").Inc()
			s.log.Warn().Err(err).
				Str("source", src.Name).
				Str("url", article.URL).
				Msg("Article ingest failed")
		}
	}

	metrics.RecordIngestSweep(src.Name, time.Since(start), nil)
	s.log.Info().
		Str("source", src.Name).
		Int("items", len(feed.Items)).
		Int("stored", stored).
		Int("skipped", skipped).
		Dur("took", time.Since(start)).
		Msg("Feed sweep complete")
}

// feedArticle maps one feed item onto an article. Items without a link have
// no canonical identity and map to nil. Full-content feeds win over
// description snippets.
func feedArticle(src config.FeedSource, feed *gofeed.Feed, item *gofeed.Item, maxBody int) *models.Article {
	if item == nil || strings.TrimSpace(item.Link) == "" {
		return nil
	}

	body := item.Content
	if strings.TrimSpace(body) == "" {
		body = item.Description
	}

	article := &models.Article{
		URL:      strings.TrimSpace(item.Link),
		Title:    ExtractText(item.Title),
		Source:   src.Name,
		BodyText: clampText(ExtractText(body), maxBody),
		Language: baseLanguage(feed.Language),
	}
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		article.Author = strings.TrimSpace(item.Authors[0].Name)
	}
	if item.PublishedParsed != nil {
		ts := item.PublishedParsed.UTC()
		article.PublishedAt = &ts
	} else if item.UpdatedParsed != nil {
		ts := item.UpdatedParsed.UTC()
		article.PublishedAt = &ts
	}
	return article
}

// baseLanguage reduces a feed language tag like "en-US" to its base code.
func baseLanguage(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	if len(tag) < 2 || len(tag) > 3 {
		return ""
	}
	return tag
}

// cronLogger adapts the cron library's key/value logging onto zerolog.
// Scheduling chatter lands at debug; job panics and bad specs at error.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.withFields(l.log.Debug(), keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.withFields(l.log.Error().Err(err), keysAndValues).Msg(msg)
}

func (l cronLogger) withFields(e *zerolog.Event, kvs []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(kvs); i += 2 {
		key, ok := kvs[i].(string)
		if !ok {
			key = fmt.Sprint(kvs[i])
		}
		e = e.Interface(key, kvs[i+1])
	}
	return e
}
