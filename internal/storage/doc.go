// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

/*
Package storage provides the embedded DuckDB persistence layer.

All durable state lives here: articles and their NLP annotations, user
accounts, interaction events, bookmarks, and preferred topics. The feed
pipeline reads through this package; in-memory structures (vector index,
popularity counters, profile cache) are projections warmed from it and
rebuilt on restart.

# Tables

  - articles: one row per canonical URL, upserted by the ingestion path
  - article_nlp: annotation row per article (topics, entities, sentiment,
    credibility on a 0-100 scale, embedding as a packed float32 blob)
  - article_topics: normalized topic projection for trending and search
  - interaction_events: append-only user interaction log
  - users, bookmarks, preferred_topics: account state
  - schema_migrations: applied migration versions

# Conventions

Every operation takes a context; operations without a caller deadline get
a 30-second default. Queries wrap errors with their operation name, and
reads that feed JSON responses return empty slices rather than nil. Row
scans go through scan helpers that fold nullable columns into pointer or
zero-value fields.

Credibility is stored on the source 0-100 scale and divided down to the
[0,1] ranking scale at this boundary, so every consumer above storage
sees one scale only.
*/
package storage
