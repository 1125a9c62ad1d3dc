// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package vector

import (
	"context"
	"fmt"
	"time"

	"github.com/intellweave/intellweave/internal/logging"
	"github.com/intellweave/intellweave/internal/storage"
)

// Source supplies stored embeddings for warm-up, normally *storage.DB.
type Source interface {
	ListEmbedded(ctx context.Context, since time.Time) ([]storage.EmbeddedArticle, error)
}

// Warm loads every stored embedding in the window into the index. Rows whose
// vector width does not match the index are logged and skipped; a restart
// after a dimension change must not wedge on old rows. Returns the number of
// vectors loaded.
func Warm(ctx context.Context, ix *Index, src Source, since time.Time) (int, error) {
	rows, err := src.ListEmbedded(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("failed to load embeddings for warm-up: %w", err)
	}

	loaded := 0
	for _, row := range rows {
		if err := ix.Upsert(row.ID, row.Embedding, row.PublishedAt); err != nil {
			logging.Warn().Err(err).Str("article_id", row.ID).Msg("Skipping stored embedding during warm-up")
			continue
		}
		loaded++
	}

	logging.Info().
		Int("loaded", loaded).
		Int("scanned", len(rows)).
		Msg("Vector index warmed from storage")
	return loaded, nil
}
