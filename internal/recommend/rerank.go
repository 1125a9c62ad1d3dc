// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package recommend

import (
	"math"
	"sort"
)

// Rerank orders scored candidates by maximal marginal relevance and returns
// the top n. Each pick maximizes (1-lambda)*score - lambda*redundancy,
// where redundancy is the mean topic Jaccard similarity to everything
// already selected. lambda 0 reduces to plain descending-score order;
// lambda 1 ranks purely on novelty after the first pick.
//
// Ties on the objective resolve to the higher original score, then the
// lower article id, so output is deterministic. Each returned item's
// Scores.Final is rewritten with its objective value at selection time.
func Rerank(items []ScoredArticle, n int, lambda float64) []ScoredArticle {
	if len(items) == 0 || n <= 0 {
		return nil
	}
	lambda = clamp01(lambda)

	base := make([]ScoredArticle, len(items))
	copy(base, items)
	sort.Slice(base, func(i, j int) bool {
		if base[i].Scores.Final != base[j].Scores.Final {
			return base[i].Scores.Final > base[j].Scores.Final
		}
		return base[i].Article.ID < base[j].Article.ID
	})
	if n > len(base) {
		n = len(base)
	}
	if lambda == 0 {
		return base[:n]
	}

	topicSets := make([]map[string]struct{}, len(base))
	for i := range base {
		topicSets[i] = toSet(base[i].Article.Topics)
	}

	selected := make([]ScoredArticle, 0, n)
	picked := make([]bool, len(base))
	// simSum[i] accumulates topic similarity between candidate i and every
	// selected item, so the mean redundancy is an O(1) read per candidate.
	simSum := make([]float64, len(base))

	for len(selected) < n {
		best := -1
		bestVal := math.Inf(-1)
		// Scanning in base order makes strict improvement resolve objective
		// ties to the higher score, then the lower id.
		for i := range base {
			if picked[i] {
				continue
			}
			var redundancy float64
			if len(selected) > 0 {
				redundancy = simSum[i] / float64(len(selected))
			}
			val := (1-lambda)*base[i].Scores.Final - lambda*redundancy
			if val > bestVal {
				best, bestVal = i, val
			}
		}

		picked[best] = true
		item := base[best]
		item.Scores.Final = bestVal
		selected = append(selected, item)

		for i := range base {
			if !picked[i] {
				simSum[i] += topicJaccard(topicSets[best], topicSets[i])
			}
		}
	}
	return selected
}

// topicJaccard is intersection-over-union of two topic sets. Either side
// empty scores 0: an unannotated article is never penalized as redundant.
func topicJaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	var intersection int
	for t := range small {
		if _, ok := large[t]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

func toSet(topics []string) map[string]struct{} {
	if len(topics) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		set[t] = struct{}{}
	}
	return set
}
