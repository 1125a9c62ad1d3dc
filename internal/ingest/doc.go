// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

// Package ingest brings articles into the system: fetch, extract, sanitize,
// annotate, persist, index.
//
// Two entry points feed the shared Pipeline. The Scheduler sweeps configured
// RSS/Atom sources on per-source cron schedules, and the Scraper ingests a
// single page when an operator submits a URL. Both paths dedupe on the
// canonical URL (tracking parameters stripped), throttle fetches per
// publisher host, and leave every stored article fully annotated and, when
// the embedder cooperates, vector-indexed.
package ingest
