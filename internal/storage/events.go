// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/intellweave/intellweave/internal/logging"
	"github.com/intellweave/intellweave/internal/models"
)

// AppendEvent records a single interaction event. ID and CreatedAt are
// populated when missing. ON CONFLICT DO NOTHING makes redelivery after a
// bus retry idempotent.
func (db *DB) AppendEvent(ctx context.Context, event *models.InteractionEvent) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("append", "interaction_events", start, err) }(time.Now())

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO interaction_events (id, user_id, article_id, event_type, created_at)
		VALUES (?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		event.ID, event.UserID, event.ArticleID, event.EventType, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// AppendEvents atomically records a batch of interaction events and returns
// the number of rows actually inserted. Events redelivered with an id already
// present are skipped, so the writer subscriber can retry whole batches.
func (db *DB) AppendEvents(ctx context.Context, events []models.InteractionEvent) (inserted int, err error) {
	if len(events) == 0 {
		return 0, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("append_batch", "interaction_events", start, err) }(time.Now())

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().Err(rbErr).AnErr("original_error", err).Msg("Event batch rollback failed")
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO interaction_events (id, user_id, article_id, event_type, created_at)
		VALUES (?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer closeWithLog(stmt, "statement")

	for i := range events {
		event := &events[i]
		if event.ID == "" {
			event.ID = uuid.New().String()
		}
		if event.CreatedAt.IsZero() {
			event.CreatedAt = time.Now().UTC()
		}

		result, execErr := stmt.ExecContext(ctx,
			event.ID, event.UserID, event.ArticleID, event.EventType, event.CreatedAt)
		if execErr != nil {
			err = fmt.Errorf("failed to insert event %d (article=%s): %w", i, event.ArticleID, execErr)
			return 0, err
		}
		if affected, raErr := result.RowsAffected(); raErr == nil && affected > 0 {
			inserted++
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit event batch: %w", err)
	}

	logging.Debug().Int("inserted", inserted).Int("total", len(events)).Msg("Event batch committed")
	return inserted, nil
}

// ListUserEvents returns a user's interaction events since the given time,
// newest first, each joined with the interacted article's topics and entity
// texts. The join happens here so profile building is one query, not N+1.
func (db *DB) ListUserEvents(ctx context.Context, userID string, since time.Time, limit int) (events []models.UserEvent, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("list_by_user", "interaction_events", start, err) }(time.Now())

	query := `SELECT e.id, e.user_id, e.article_id, e.event_type, e.created_at,
		COALESCE(n.topics, '[]'), COALESCE(n.entities, '[]'), COALESCE(n.sentiment, '')
	FROM interaction_events e
	LEFT JOIN article_nlp n ON n.article_id = e.article_id
	WHERE e.user_id = ? AND e.created_at >= ?
	ORDER BY e.created_at DESC, e.id ASC
	LIMIT ?`

	rows, err := db.conn.QueryContext(ctx, query, userID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query user events: %w", err)
	}
	defer closeWithLog(rows, "rows")

	events = []models.UserEvent{}
	for rows.Next() {
		var (
			e            models.UserEvent
			topicsJSON   string
			entitiesJSON string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.ArticleID, &e.EventType, &e.CreatedAt,
			&topicsJSON, &entitiesJSON, &e.Sentiment); err != nil {
			return nil, fmt.Errorf("failed to scan user event: %w", err)
		}
		if err := json.Unmarshal([]byte(topicsJSON), &e.Topics); err != nil {
			return nil, fmt.Errorf("failed to parse topics for event %s: %w", e.ID, err)
		}
		var entities []models.KeyEntity
		if err := json.Unmarshal([]byte(entitiesJSON), &entities); err != nil {
			return nil, fmt.Errorf("failed to parse entities for event %s: %w", e.ID, err)
		}
		for _, entity := range entities {
			e.Entities = append(e.Entities, entity.Text)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user events: %w", err)
	}
	return events, nil
}

// ConsumedArticleIDs returns every article id the user has read or
// bookmarked, with no time bound. Consumption is permanent: once read or
// bookmarked, an article never reappears in the personalized feed.
func (db *DB) ConsumedArticleIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT DISTINCT article_id FROM interaction_events
	WHERE user_id = ? AND event_type IN (?, ?)`

	rows, err := db.conn.QueryContext(ctx, query, userID, models.EventRead, models.EventBookmark)
	if err != nil {
		return nil, fmt.Errorf("failed to query consumed articles: %w", err)
	}
	defer closeWithLog(rows, "rows")

	consumed := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan consumed article id: %w", err)
		}
		consumed[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating consumed articles: %w", err)
	}
	return consumed, nil
}

// CountEventsSince returns interaction counts for every article with at
// least one event in the window. The popularity tracker uses this to seed
// its sliding window after a restart.
func (db *DB) CountEventsSince(ctx context.Context, since time.Time) (map[string]int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT article_id, COUNT(*)
	FROM interaction_events
	WHERE created_at >= ?
	GROUP BY article_id`

	rows, err := db.conn.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count events since %s: %w", since.Format(time.RFC3339), err)
	}
	defer closeWithLog(rows, "rows")

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			id    string
			count int64
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event counts: %w", err)
	}
	return counts, nil
}

// CountRecentByArticle returns per-article interaction counts within the
// window for the given ids. Articles with no interactions are absent from
// the result map.
func (db *DB) CountRecentByArticle(ctx context.Context, articleIDs []string, since time.Time) (map[string]int64, error) {
	counts := make(map[string]int64, len(articleIDs))
	if len(articleIDs) == 0 {
		return counts, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT article_id, COUNT(*)
	FROM interaction_events
	WHERE created_at >= ? AND article_id IN (` + placeholders(len(articleIDs)) + `)
	GROUP BY article_id`

	args := make([]interface{}, 0, len(articleIDs)+1)
	args = append(args, since)
	for _, id := range articleIDs {
		args = append(args, id)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count article interactions: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var (
			id    string
			count int64
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("failed to scan interaction count: %w", err)
		}
		counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interaction counts: %w", err)
	}
	return counts, nil
}
