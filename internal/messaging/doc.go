// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

// Package messaging carries interaction events from the API layer to their
// consumers over an in-process watermill gochannel bus.
//
// Every event published to the interactions topic fans out to two
// subscribers: the Writer batches events into the event store so a burst of
// clicks costs one transaction instead of two hundred, and the
// PopularityTracker keeps a sliding per-article interaction window so the
// ranking pipeline can price recent attention without a database query.
//
// The bus never drops an accepted event. Publish failures degrade to a
// synchronous store append, the Writer retains failed batches for retry,
// and shutdown flushes whatever is still buffered.
package messaging
