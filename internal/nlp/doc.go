// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

// Package nlp provides ingestion-time article analysis: text embeddings and
// deterministic annotation heuristics.
//
// Embeddings come from an optional external HTTP service guarded by a circuit
// breaker and a client-side rate limit; when the service is absent, erroring,
// or the breaker is open, a deterministic hash-based fallback keeps the
// vector pipeline alive. The composite Service hides the distinction from
// callers entirely.
//
// The Annotator runs pure-Go heuristics (keyword lexicons, a proper-noun
// gazetteer, a capitalized-sequence scan, positive/negative word counting)
// so annotation needs no model runtime and produces identical output for
// identical input. Model-quality inference is expected to live behind the
// embedding service, not here.
package nlp
