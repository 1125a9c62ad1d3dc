// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// WarmFunc loads stored embeddings newer than since into the vector index
// and reports how many arrived. Normally a closure over vector.Warm.
type WarmFunc func(ctx context.Context, since time.Time) (int, error)

// IndexWarmerService keeps the in-memory vector index aligned with storage:
// one warm-up pass at startup, then a periodic reconcile that re-reads the
// candidate window. Ingestion updates the index inline; the reconcile
// exists to repopulate after a restart and to catch rows written while the
// index was briefly down.
type IndexWarmerService struct {
	warm     WarmFunc
	window   time.Duration
	interval time.Duration
	log      zerolog.Logger
	name     string
}

// NewIndexWarmerService creates the wrapper. window is how far back to load
// (the ranking layer's candidate window); interval is the reconcile period,
// zero or negative selects 15m.
func NewIndexWarmerService(warm WarmFunc, window, interval time.Duration, log zerolog.Logger) *IndexWarmerService {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &IndexWarmerService{
		warm:     warm,
		window:   window,
		interval: interval,
		log:      log.With().Str("service", "index-warmer").Logger(),
		name:     "index-warmer",
	}
}

// Serve implements suture.Service. A failed pass is logged and retried on
// the next tick rather than crashing the service; the index serves whatever
// it holds in the meantime and retrieval degrades to the recency strategy.
func (s *IndexWarmerService) Serve(ctx context.Context) error {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *IndexWarmerService) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	since := time.Now().Add(-s.window)
	loaded, err := s.warm(ctx, since)
	if err != nil {
		s.log.Warn().Err(err).Msg("Index warm-up pass failed, retrying on next tick")
		return
	}
	s.log.Debug().Int("loaded", loaded).Msg("Index reconcile pass complete")
}

// String implements fmt.Stringer for supervisor logs.
func (s *IndexWarmerService) String() string {
	return s.name
}
