// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package recommend

import (
	"time"

	"github.com/intellweave/intellweave/internal/models"
)

// Feed.ServedBy values.
const (
	ServedByPersonalized = "personalized"
	ServedByFallback     = "fallback"
)

// eventWeights maps an interaction type to its contribution when
// accumulating profile interest weights. Heavier weights mark stronger
// intent: a share says more about a user than a click.
var eventWeights = map[string]float64{
	models.EventClick:     1.0,
	models.EventRead:      2.0,
	models.EventBookmark:  3.0,
	models.EventShare:     4.0,
	models.EventLike:      2.5,
	models.EventComment:   3.5,
	models.EventDwellTime: 1.5,
}

// defaultEventWeight applies to event types missing from eventWeights,
// including impression and save. New event types rank as ordinary signals
// until someone decides otherwise.
const defaultEventWeight = 1.0

// Content score scaling. A profile topic weight of 10 on a matching topic
// saturates the content signal by itself; entities count half as much per
// unit of weight.
const (
	topicMatchScale  = 0.1
	entityMatchScale = 0.05
)

// Neutral substitutes for signals that cannot be computed. An article with
// no popularity counter, no publish date, or no credibility annotation
// scores mid-scale rather than sinking to zero.
const (
	neutralPopularity  = 0.5
	neutralFreshness   = 0.5
	neutralCredibility = 0.5
)

// freshnessSteps is the step-function decay schedule: an article younger
// than maxAge scores score. Ages past the last step score freshnessFloor.
var freshnessSteps = []struct {
	maxAge time.Duration
	score  float64
}{
	{time.Hour, 1.0},
	{6 * time.Hour, 0.9},
	{24 * time.Hour, 0.7},
	{72 * time.Hour, 0.5},
}

const freshnessFloor = 0.3

// FreshnessMode values accepted by RecommendConfig.
const (
	FreshnessModeStep     = "step"
	FreshnessModeHalfLife = "halflife"
)

// defaultQueryText seeds vector retrieval for users with no preferred
// topics and no profile signal at all.
const defaultQueryText = "news"

// queryTopicLimit caps how many top-weighted profile topics feed the
// retrieval query text.
const queryTopicLimit = 5

// fallbackScore is the flat score attached to fallback feed items. It sits
// below a well-matched personalized score and above a poor one, so mixed
// dashboards sort sensibly.
const fallbackScore = 0.6

// fallbackBudget bounds the detached fallback query issued after the
// caller's own deadline has already expired.
const fallbackBudget = 2 * time.Second

// summaryWeightLimit caps how many topic and entity weights the profile
// summary endpoint reports.
const summaryWeightLimit = 10

