// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/intellweave/intellweave/internal/models"
)

// GetStats returns the system-wide row counts served by the admin stats
// endpoint, plus the top article sources by volume.
func (db *DB) GetStats(ctx context.Context) (*models.AdminStats, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	stats := &models.AdminStats{TopSources: []models.SourceStats{}}

	counts := []struct {
		query string
		dest  *int64
		args  []interface{}
	}{
		{`SELECT COUNT(*) FROM articles`, &stats.TotalArticles, nil},
		{`SELECT COUNT(*) FROM article_nlp WHERE embedding IS NOT NULL`, &stats.EmbeddedArticles, nil},
		{`SELECT COUNT(*) FROM interaction_events`, &stats.TotalEvents, nil},
		{`SELECT COUNT(*) FROM interaction_events WHERE created_at >= ?`, &stats.EventsLast24h,
			[]interface{}{time.Now().UTC().Add(-24 * time.Hour)}},
		{`SELECT COUNT(*) FROM users`, &stats.TotalUsers, nil},
		{`SELECT COUNT(*) FROM bookmarks`, &stats.TotalBookmarks, nil},
	}
	for _, c := range counts {
		if err := db.conn.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to query stats count: %w", err)
		}
	}

	rows, err := db.conn.QueryContext(ctx, `
	SELECT COALESCE(NULLIF(source, ''), 'unknown') AS source, COUNT(*) AS article_count
	FROM articles
	GROUP BY 1
	ORDER BY article_count DESC, source ASC
	LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("failed to query top sources: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var s models.SourceStats
		if err := rows.Scan(&s.Source, &s.ArticleCount); err != nil {
			return nil, fmt.Errorf("failed to scan source stats: %w", err)
		}
		stats.TopSources = append(stats.TopSources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source stats: %w", err)
	}

	return stats, nil
}

// LastIngestedAt returns the created_at of the most recently stored article,
// or nil when the articles table is empty. Surfaces in readiness reporting
// so operators can spot a stalled ingest loop.
func (db *DB) LastIngestedAt(ctx context.Context) (*time.Time, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var last sql.NullTime
	err := db.conn.QueryRowContext(ctx, `SELECT MAX(created_at) FROM articles`).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("failed to get last ingested time: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}
	t := last.Time
	return &t, nil
}
