// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package main

import (
	"fmt"

	"github.com/intellweave/intellweave/internal/config"
	"github.com/intellweave/intellweave/internal/ingest"
	"github.com/intellweave/intellweave/internal/logging"
	"github.com/intellweave/intellweave/internal/nlp"
	"github.com/intellweave/intellweave/internal/storage"
	"github.com/intellweave/intellweave/internal/vector"
)

// IngestComponents holds the ingestion subsystem.
type IngestComponents struct {
	Fetcher   *ingest.Fetcher
	Pipeline  *ingest.Pipeline
	Scheduler *ingest.Scheduler
	Scraper   *ingest.Scraper
}

// initIngest builds the feed fetcher, article pipeline, cron scheduler and
// URL scraper. Returns nil when ingestion is disabled; the API then answers
// ingestion endpoints with 503 and feed requests from existing data.
func initIngest(cfg *config.Config, db *storage.DB, annotator *nlp.Annotator, embedder *nlp.Service, index *vector.Index) (*IngestComponents, error) {
	if !cfg.Ingest.Enabled {
		logging.Info().Msg("Ingestion disabled (INGEST_ENABLED=false)")
		return nil, nil
	}

	fetcher := ingest.NewFetcher(&cfg.Ingest)

	pipeline, err := ingest.NewPipeline(db, annotator, embedder, index)
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}

	scheduler, err := ingest.NewScheduler(&cfg.Ingest, fetcher, pipeline)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	scraper, err := ingest.NewScraper(&cfg.Ingest, fetcher, pipeline)
	if err != nil {
		return nil, fmt.Errorf("create scraper: %w", err)
	}

	logging.Info().
		Int("sources", len(cfg.Ingest.Sources)).
		Str("default_schedule", cfg.Ingest.DefaultSchedule).
		Msg("Ingestion subsystem initialized")

	return &IngestComponents{
		Fetcher:   fetcher,
		Pipeline:  pipeline,
		Scheduler: scheduler,
		Scraper:   scraper,
	}, nil
}
