// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/intellweave/intellweave/internal/logging"
	"github.com/intellweave/intellweave/internal/models"
)

// annotatedColumns is the shared SELECT list for article+annotation reads.
// Every query that feeds scanAnnotatedRows must produce exactly these columns
// in exactly this order.
const annotatedColumns = `
	a.id, a.url, a.title, a.subtitle, a.author, a.source, a.body_text,
	a.language, a.reading_time_minutes, a.published_at, a.created_at,
	COALESCE(n.topics, '[]'), COALESCE(n.entities, '[]'), n.sentiment, n.credibility`

// UpsertArticle inserts an article or refreshes an existing row with the same
// canonical URL. On conflict the identity columns (id, url, created_at) are
// preserved and the content columns are updated; the caller's article.ID is
// overwritten with the row's actual id either way.
func (db *DB) UpsertArticle(ctx context.Context, article *models.Article) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("upsert", "articles", start, err) }(time.Now())

	if article.ID == "" {
		article.ID = uuid.New().String()
	}
	if article.CreatedAt.IsZero() {
		article.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO articles (
		id, url, title, subtitle, author, source, body_text, language,
		reading_time_minutes, published_at, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (url) DO UPDATE SET
		title = excluded.title,
		subtitle = excluded.subtitle,
		author = excluded.author,
		source = excluded.source,
		body_text = excluded.body_text,
		language = excluded.language,
		reading_time_minutes = excluded.reading_time_minutes,
		published_at = COALESCE(excluded.published_at, articles.published_at)
	RETURNING id`

	err = db.conn.QueryRowContext(ctx, query,
		article.ID, article.URL, article.Title, article.Subtitle,
		article.Author, article.Source, article.BodyText, article.Language,
		article.ReadingTimeMinutes, article.PublishedAt, article.CreatedAt,
	).Scan(&article.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert article: %w", err)
	}
	return nil
}

// UpsertNLP stores the annotation for an article and rewrites its topic
// projection rows in one transaction. Credibility arrives on the source 0-100
// scale and is stored as-is. A nil embedding never clears a previously stored
// one, so re-annotation without the embedder keeps vector search working.
func (db *DB) UpsertNLP(ctx context.Context, nlp *models.ArticleNLP) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("upsert", "article_nlp", start, err) }(time.Now())

	topics := dedupeStrings(nlp.Topics)
	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return fmt.Errorf("failed to marshal topics: %w", err)
	}
	entities := nlp.Entities
	if entities == nil {
		entities = []models.KeyEntity{}
	}
	entitiesJSON, err := json.Marshal(entities)
	if err != nil {
		return fmt.Errorf("failed to marshal entities: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().Err(rbErr).AnErr("original_error", err).Msg("Annotation rollback failed")
			}
		}
	}()

	_, err = tx.ExecContext(ctx, `INSERT INTO article_nlp (
		article_id, topics, entities, sentiment, credibility, embedding, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT (article_id) DO UPDATE SET
		topics = excluded.topics,
		entities = excluded.entities,
		sentiment = excluded.sentiment,
		credibility = excluded.credibility,
		embedding = COALESCE(excluded.embedding, article_nlp.embedding),
		updated_at = CURRENT_TIMESTAMP`,
		nlp.ArticleID, string(topicsJSON), string(entitiesJSON),
		nullableString(nlp.Sentiment), nlp.Credibility, encodeEmbedding(nlp.Embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert annotation: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM article_topics WHERE article_id = ?`, nlp.ArticleID); err != nil {
		return fmt.Errorf("failed to clear topic projection: %w", err)
	}
	for _, topic := range topics {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO article_topics (article_id, topic) VALUES (?, ?)`,
			nlp.ArticleID, topic,
		); err != nil {
			return fmt.Errorf("failed to insert topic projection %q: %w", topic, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit annotation: %w", err)
	}
	return nil
}

// GetArticle returns one article joined with its annotation, or
// ErrArticleNotFound.
func (db *DB) GetArticle(ctx context.Context, id string) (*models.AnnotatedArticle, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + annotatedColumns + `
	FROM articles a
	LEFT JOIN article_nlp n ON n.article_id = a.id
	WHERE a.id = ?`

	article, err := scanAnnotatedRow(db.conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return article, nil
}

// ListByIDs hydrates annotated articles for a set of ids in one query.
// Results follow the order of ids; unknown ids are skipped, not errors. The
// candidate retriever uses this to turn vector search hits back into
// articles without losing their ranking.
func (db *DB) ListByIDs(ctx context.Context, ids []string) (articles []models.AnnotatedArticle, err error) {
	if len(ids) == 0 {
		return []models.AnnotatedArticle{}, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("list_by_ids", "articles", start, err) }(time.Now())

	query := `SELECT ` + annotatedColumns + `
	FROM articles a
	LEFT JOIN article_nlp n ON n.article_id = a.id
	WHERE a.id IN (` + placeholders(len(ids)) + `)`

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles by id: %w", err)
	}
	defer closeWithLog(rows, "rows")

	fetched, err := scanAnnotatedRows(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.AnnotatedArticle, len(fetched))
	for _, a := range fetched {
		byID[a.ID] = a
	}

	articles = make([]models.AnnotatedArticle, 0, len(fetched))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			articles = append(articles, a)
		}
	}
	return articles, nil
}

// ListRecent returns annotated articles published (or, lacking a publish
// date, ingested) within the window, newest first, skipping any ids in
// exclude. Ordering ties break on ascending id so pages are stable.
func (db *DB) ListRecent(ctx context.Context, since time.Time, exclude map[string]struct{}, limit int) (articles []models.AnnotatedArticle, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("list_recent", "articles", start, err) }(time.Now())

	var sb strings.Builder
	sb.WriteString(`SELECT ` + annotatedColumns + `
	FROM articles a
	LEFT JOIN article_nlp n ON n.article_id = a.id
	WHERE COALESCE(a.published_at, a.created_at) >= ?`)

	args := []interface{}{since}
	if len(exclude) > 0 {
		sb.WriteString(` AND a.id NOT IN (` + placeholders(len(exclude)) + `)`)
		for id := range exclude {
			args = append(args, id)
		}
	}
	sb.WriteString(`
	ORDER BY COALESCE(a.published_at, a.created_at) DESC, a.id ASC
	LIMIT ?`)
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent articles: %w", err)
	}
	defer closeWithLog(rows, "rows")

	return scanAnnotatedRows(rows)
}

// ListFallback returns the cold-start ordering: highest credibility first
// (missing credibility ranks as the neutral 50), then newest, then id.
func (db *DB) ListFallback(ctx context.Context, since time.Time, limit int) (articles []models.AnnotatedArticle, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("list_fallback", "articles", start, err) }(time.Now())

	query := `SELECT ` + annotatedColumns + `
	FROM articles a
	LEFT JOIN article_nlp n ON n.article_id = a.id
	WHERE COALESCE(a.published_at, a.created_at) >= ?
	ORDER BY COALESCE(n.credibility, 50.0) DESC, COALESCE(a.published_at, a.created_at) DESC, a.id ASC
	LIMIT ?`

	rows, err := db.conn.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query fallback articles: %w", err)
	}
	defer closeWithLog(rows, "rows")

	return scanAnnotatedRows(rows)
}

// EmbeddedArticle is the slim row the vector index warms up from.
// PublishedAt is the effective timestamp, created_at when the article
// carries no publication date.
type EmbeddedArticle struct {
	ID          string
	Embedding   []float32
	PublishedAt time.Time
}

// ListEmbedded returns id+embedding for every article in the window that has
// a stored vector. Rows with undecodable blobs are logged and skipped rather
// than failing the whole warm-up.
func (db *DB) ListEmbedded(ctx context.Context, since time.Time) ([]EmbeddedArticle, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT a.id, n.embedding, COALESCE(a.published_at, a.created_at)
	FROM articles a
	JOIN article_nlp n ON n.article_id = a.id
	WHERE n.embedding IS NOT NULL
	  AND COALESCE(a.published_at, a.created_at) >= ?`

	rows, err := db.conn.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query embedded articles: %w", err)
	}
	defer closeWithLog(rows, "rows")

	out := []EmbeddedArticle{}
	for rows.Next() {
		var (
			e    EmbeddedArticle
			blob []byte
		)
		if err := rows.Scan(&e.ID, &blob, &e.PublishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan embedded article: %w", err)
		}
		e.Embedding, err = decodeEmbedding(blob)
		if err != nil {
			logging.Warn().Err(err).Str("article_id", e.ID).Msg("Skipping article with corrupt embedding")
			continue
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating embedded articles: %w", err)
	}
	return out, nil
}

// Search performs a case-insensitive substring match over title, subtitle and
// body, newest first. LIKE metacharacters in the query are matched literally.
func (db *DB) Search(ctx context.Context, query string, limit int) (articles []models.AnnotatedArticle, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("search", "articles", start, err) }(time.Now())

	pattern := "%" + escapeLike(query) + "%"
	sqlQuery := `SELECT ` + annotatedColumns + `
	FROM articles a
	LEFT JOIN article_nlp n ON n.article_id = a.id
	WHERE a.title ILIKE ? ESCAPE '\'
	   OR COALESCE(a.subtitle, '') ILIKE ? ESCAPE '\'
	   OR COALESCE(a.body_text, '') ILIKE ? ESCAPE '\'
	ORDER BY COALESCE(a.published_at, a.created_at) DESC, a.id ASC
	LIMIT ?`

	rows, err := db.conn.QueryContext(ctx, sqlQuery, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search articles: %w", err)
	}
	defer closeWithLog(rows, "rows")

	return scanAnnotatedRows(rows)
}

// TrendingTopics counts topic occurrences across interaction events in the
// window via the article_topics projection, with the average credibility of
// the articles carrying each topic (neutral 50 when unrated, normalized to
// [0,1] on the way out). Ties order alphabetically for stable output.
func (db *DB) TrendingTopics(ctx context.Context, since time.Time, limit int) (topics []models.TrendingTopic, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("trending", "article_topics", start, err) }(time.Now())

	query := `SELECT t.topic, COUNT(*) AS interactions,
		AVG(COALESCE(n.credibility, 50.0)) / 100.0 AS avg_credibility
	FROM interaction_events e
	JOIN article_topics t ON t.article_id = e.article_id
	LEFT JOIN article_nlp n ON n.article_id = e.article_id
	WHERE e.created_at >= ?
	GROUP BY t.topic
	ORDER BY interactions DESC, t.topic ASC
	LIMIT ?`

	rows, err := db.conn.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trending topics: %w", err)
	}
	defer closeWithLog(rows, "rows")

	topics = []models.TrendingTopic{}
	for rows.Next() {
		var t models.TrendingTopic
		if err := rows.Scan(&t.Topic, &t.Count, &t.AvgCredibility); err != nil {
			return nil, fmt.Errorf("failed to scan trending topic: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trending topics: %w", err)
	}
	return topics, nil
}

// scanAnnotatedRow scans a single annotatedColumns row.
func scanAnnotatedRow(row *sql.Row) (*models.AnnotatedArticle, error) {
	var (
		a            models.AnnotatedArticle
		subtitle     sql.NullString
		author       sql.NullString
		source       sql.NullString
		bodyText     sql.NullString
		language     sql.NullString
		readingTime  sql.NullInt32
		topicsJSON   string
		entitiesJSON string
		sentiment    sql.NullString
		credibility  sql.NullFloat64
	)
	err := row.Scan(
		&a.ID, &a.URL, &a.Title, &subtitle, &author, &source, &bodyText,
		&language, &readingTime, &a.PublishedAt, &a.CreatedAt,
		&topicsJSON, &entitiesJSON, &sentiment, &credibility,
	)
	if err != nil {
		return nil, err
	}
	applyNullableColumns(&a, subtitle, author, source, bodyText, language, readingTime)
	if err := applyAnnotation(&a, topicsJSON, entitiesJSON, sentiment, credibility); err != nil {
		return nil, err
	}
	return &a, nil
}

// scanAnnotatedRows scans every annotatedColumns row into a slice.
// Returns an empty slice (never nil) so handlers serialize [] not null.
func scanAnnotatedRows(rows *sql.Rows) ([]models.AnnotatedArticle, error) {
	articles := []models.AnnotatedArticle{}
	for rows.Next() {
		var (
			a            models.AnnotatedArticle
			subtitle     sql.NullString
			author       sql.NullString
			source       sql.NullString
			bodyText     sql.NullString
			language     sql.NullString
			readingTime  sql.NullInt32
			topicsJSON   string
			entitiesJSON string
			sentiment    sql.NullString
			credibility  sql.NullFloat64
		)
		err := rows.Scan(
			&a.ID, &a.URL, &a.Title, &subtitle, &author, &source, &bodyText,
			&language, &readingTime, &a.PublishedAt, &a.CreatedAt,
			&topicsJSON, &entitiesJSON, &sentiment, &credibility,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		applyNullableColumns(&a, subtitle, author, source, bodyText, language, readingTime)
		if err := applyAnnotation(&a, topicsJSON, entitiesJSON, sentiment, credibility); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating articles: %w", err)
	}
	return articles, nil
}

func applyNullableColumns(a *models.AnnotatedArticle, subtitle, author, source, bodyText, language sql.NullString, readingTime sql.NullInt32) {
	a.Subtitle = subtitle.String
	a.Author = author.String
	a.Source = source.String
	a.BodyText = bodyText.String
	a.Language = language.String
	a.ReadingTimeMinutes = int(readingTime.Int32)
}

// applyAnnotation parses the JSON annotation columns and normalizes
// credibility from the stored 0-100 scale to [0,1].
func applyAnnotation(a *models.AnnotatedArticle, topicsJSON, entitiesJSON string, sentiment sql.NullString, credibility sql.NullFloat64) error {
	if err := json.Unmarshal([]byte(topicsJSON), &a.Topics); err != nil {
		return fmt.Errorf("failed to parse topics for article %s: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(entitiesJSON), &a.Entities); err != nil {
		return fmt.Errorf("failed to parse entities for article %s: %w", a.ID, err)
	}
	if a.Topics == nil {
		a.Topics = []string{}
	}
	a.Sentiment = sentiment.String
	if credibility.Valid {
		normalized := credibility.Float64 / 100.0
		a.Credibility = &normalized
	}
	return nil
}

// placeholders returns n comma-separated SQL parameter markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// escapeLike escapes LIKE metacharacters so user input matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// nullableString maps "" to NULL for optional text columns.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// dedupeStrings returns the unique values of in, preserving first-seen order.
func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
