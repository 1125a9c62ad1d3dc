// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package messaging

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/intellweave/intellweave/internal/cache"
	"github.com/intellweave/intellweave/internal/logging"
	"github.com/intellweave/intellweave/internal/metrics"
)

const (
	// popularityBuckets divides the window so the default 24h window counts
	// in hourly buckets.
	popularityBuckets = 24

	// popularityMaxKeys bounds tracked articles; one counter costs 24 int64s.
	popularityMaxKeys = 50000

	// popularityCleanupInterval is how often fully drained counters are
	// dropped so articles that stopped receiving events free their memory.
	popularityCleanupInterval = time.Hour
)

// SeedStore provides historical counts to warm the window after a restart.
// Implemented by storage.DB.
type SeedStore interface {
	CountEventsSince(ctx context.Context, since time.Time) (map[string]int64, error)
}

// PopularityTracker is the bus subscriber that maintains per-article
// interaction counts over a sliding window. The ranking pipeline reads
// Lookup on every scored candidate, so counts live in memory and the store
// is only touched once, to seed the window at startup.
type PopularityTracker struct {
	counts *cache.SlidingWindowStore
	window time.Duration
	now    func() time.Time
	log    zerolog.Logger

	// ready stays false until Seed has run. Before that, Lookup reports the
	// signal unavailable and the scorer falls back to a neutral popularity.
	ready atomic.Bool
}

// NewPopularityTracker creates a tracker over the given window.
func NewPopularityTracker(window time.Duration, maxKeys int) *PopularityTracker {
	return NewPopularityTrackerWithClock(window, maxKeys, time.Now)
}

// NewPopularityTrackerWithClock creates a tracker with an explicit clock.
func NewPopularityTrackerWithClock(window time.Duration, maxKeys int, now func() time.Time) *PopularityTracker {
	if window <= 0 {
		window = 24 * time.Hour
	}
	if maxKeys <= 0 {
		maxKeys = popularityMaxKeys
	}
	if now == nil {
		now = time.Now
	}
	return &PopularityTracker{
		counts: cache.NewSlidingWindowStoreWithClock(window, popularityBuckets, maxKeys, now),
		window: window,
		now:    now,
		log:    logging.WithComponent("messaging"),
	}
}

// Handle counts one bus message. Malformed payloads are logged and
// acknowledged.
func (t *PopularityTracker) Handle(msg *message.Message) error {
	event, err := decodeEvent(msg)
	if err != nil {
		t.log.Error().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed event payload")
		return nil
	}

	t.counts.Increment(event.ArticleID)
	metrics.RecordEventConsumed("popularity")
	return nil
}

// Seed loads historical counts for the window from the store and marks the
// tracker ready. Seeded counts land in the current bucket, so they expire
// together a full window later; close enough for a popularity signal.
//
// The tracker is marked ready even when the query fails: live events are a
// better signal than staying neutral forever, and the window self-heals
// within one bucket.
func (t *PopularityTracker) Seed(ctx context.Context, store SeedStore) error {
	defer t.ready.Store(true)

	since := t.now().Add(-t.window)
	counts, err := store.CountEventsSince(ctx, since)
	if err != nil {
		t.log.Warn().Err(err).Msg("Popularity seed query failed, window starts cold")
		return err
	}

	for articleID, count := range counts {
		t.counts.IncrementBy(articleID, count)
	}
	t.log.Info().Int("articles", len(counts)).Msg("Popularity window seeded")
	return nil
}

// Lookup returns the windowed interaction count for an article. The second
// return is false until the tracker has been seeded. The signature matches
// the ranking engine's popularity function.
func (t *PopularityTracker) Lookup(articleID string) (int64, bool) {
	if !t.ready.Load() {
		return 0, false
	}
	return t.counts.Count(articleID), true
}

// TrackedArticles returns how many articles currently have counters.
func (t *PopularityTracker) TrackedArticles() int {
	return t.counts.Len()
}

// Start runs the periodic cleanup of drained counters until the context is
// canceled.
func (t *PopularityTracker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(popularityCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := t.counts.CleanupInactive(); removed > 0 {
					t.log.Debug().Int("removed", removed).Msg("Dropped drained popularity counters")
				}
			}
		}
	}()
}
