// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package recommend

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/intellweave/intellweave/internal/cache"
	"github.com/intellweave/intellweave/internal/config"
	"github.com/intellweave/intellweave/internal/logging"
	"github.com/intellweave/intellweave/internal/metrics"
	"github.com/intellweave/intellweave/internal/models"
)

// ProfileBuilder turns a user's recent interaction history into a weighted
// interest profile. Built profiles are cached per process; concurrent
// requests for the same uncached user collapse into a single build.
//
// BuildProfile never fails: a user with no events, or an unreachable event
// store, yields a cold-start profile and the pipeline continues on the
// remaining signals.
type ProfileBuilder struct {
	events   EventSource
	cache    *cache.LRU[UserProfile]
	group    singleflight.Group
	window   time.Duration
	eventCap int
	now      func() time.Time
	log      zerolog.Logger
}

// NewProfileBuilder wires a builder against an event source and an injected
// profile cache. now defaults to time.Now when nil.
func NewProfileBuilder(events EventSource, profileCache *cache.LRU[UserProfile], cfg *config.RecommendConfig, now func() time.Time) *ProfileBuilder {
	if now == nil {
		now = time.Now
	}
	return &ProfileBuilder{
		events:   events,
		cache:    profileCache,
		window:   cfg.ProfileWindow,
		eventCap: cfg.ProfileEventCap,
		now:      now,
		log:      logging.WithComponent("recommend"),
	}
}

// BuildProfile returns the user's interest profile, from cache when fresh.
func (b *ProfileBuilder) BuildProfile(ctx context.Context, userID string) UserProfile {
	if p, ok := b.cache.Get(userID); ok {
		metrics.RecordProfileCache(true)
		return p
	}
	metrics.RecordProfileCache(false)

	v, _, _ := b.group.Do(userID, func() (interface{}, error) {
		// Another collapsed caller may have populated the cache between
		// our miss and this closure running.
		if p, ok := b.cache.Get(userID); ok {
			return p, nil
		}
		p, cacheable := b.build(ctx, userID)
		if cacheable {
			b.cache.Add(userID, p)
		}
		return p, nil
	})
	return v.(UserProfile)
}

// BuildProfileFresh bypasses the cache, rebuilds the profile, and
// repopulates the cache with the result.
func (b *ProfileBuilder) BuildProfileFresh(ctx context.Context, userID string) UserProfile {
	p, cacheable := b.build(ctx, userID)
	if cacheable {
		b.cache.Add(userID, p)
	}
	return p
}

// Peek returns the cached profile without building one on a miss. The
// profile summary endpoint uses it to report cache state honestly.
func (b *ProfileBuilder) Peek(userID string) (UserProfile, bool) {
	return b.cache.Get(userID)
}

// build assembles a profile from the trailing event window. cacheable is
// false when the event source failed, so a transient outage does not pin a
// cold profile for a full cache TTL.
func (b *ProfileBuilder) build(ctx context.Context, userID string) (UserProfile, bool) {
	now := b.now()
	profile := newColdProfile(userID, now)

	events, err := b.events.ListUserEvents(ctx, userID, now.Add(-b.window), b.eventCap)
	if err != nil {
		b.log.Warn().
			Err(err).
			Str("user_id", userID).
			Msg("Event history unavailable, serving cold-start profile")
		return profile, false
	}

	var unknown map[string]struct{}
	for _, e := range events {
		w, ok := eventWeights[e.EventType]
		if !ok {
			w = defaultEventWeight
			// Impression and save intentionally carry the default weight;
			// anything else at default is a type nobody mapped yet.
			if e.EventType != models.EventImpression && e.EventType != models.EventSave {
				if unknown == nil {
					unknown = map[string]struct{}{}
				}
				unknown[e.EventType] = struct{}{}
			}
		}
		for _, t := range e.Topics {
			profile.TopicWeights[t] += w
		}
		for _, entity := range e.Entities {
			profile.EntityWeights[entity] += w
		}
		if e.Sentiment != "" {
			profile.SentimentWeights[e.Sentiment] += w
		}
		profile.ActiveHours[e.CreatedAt.UTC().Hour()]++
	}
	profile.EventCount = len(events)

	if len(unknown) > 0 {
		types := make([]string, 0, len(unknown))
		for t := range unknown {
			types = append(types, t)
		}
		sort.Strings(types)
		b.log.Warn().
			Str("user_id", userID).
			Strs("event_types", types).
			Msg("Unknown event types weighted at default")
	}
	return profile, true
}
