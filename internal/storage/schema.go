// Intell Weave - News Aggregation and Personalized Feed Ranking
// Copyright 2026 Intell Weave contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/intellweave/intellweave

/*
schema.go - Database Schema Management

This file manages the DuckDB schema: table creation, index management,
and versioned migrations.

Tables:
  - articles: canonical article rows keyed by UUID with a unique URL
  - article_nlp: one annotation row per article
  - article_topics: normalized (article_id, topic) projection
  - interaction_events: append-only interaction log
  - users / bookmarks / preferred_topics: account state
  - schema_migrations: migration bookkeeping

Schema Strategy:
All columns are defined in the initial CREATE TABLE statements; the
migration table exists so post-release changes can ship as versioned
ALTER statements without losing data. Migrations are append-only.

Index Strategy:
Indexes cover the feed pipeline's hot paths: recency-ordered article
scans, per-user and per-article event lookups, and the topic projection.
*/

package storage

import (
	"context"
	"fmt"
	"os"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// tableCreationQueries returns the table creation SQL statements.
func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id UUID PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			subtitle TEXT,
			author TEXT,
			source TEXT,
			body_text TEXT,
			language TEXT,
			reading_time_minutes INTEGER,
			published_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		// credibility is kept on the source 0-100 scale; NULL means the
		// signal is absent. embedding is a packed little-endian float32
		// blob, NULL until the embedder has run.
		`CREATE TABLE IF NOT EXISTS article_nlp (
			article_id UUID PRIMARY KEY,
			topics TEXT NOT NULL DEFAULT '[]',
			entities TEXT NOT NULL DEFAULT '[]',
			sentiment TEXT,
			credibility DOUBLE,
			embedding BLOB,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		// Query-side projection of article_nlp.topics, rewritten on every
		// annotation upsert. Powers trending and topic filters without
		// JSON unnesting.
		`CREATE TABLE IF NOT EXISTS article_topics (
			article_id UUID NOT NULL,
			topic TEXT NOT NULL,
			PRIMARY KEY (article_id, topic)
		);`,

		`CREATE TABLE IF NOT EXISTS interaction_events (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			article_id UUID NOT NULL,
			event_type TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			display_name TEXT,
			role TEXT NOT NULL DEFAULT 'reader',
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		`CREATE TABLE IF NOT EXISTS bookmarks (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			article_id UUID NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, article_id)
		);`,

		`CREATE TABLE IF NOT EXISTS preferred_topics (
			user_id UUID PRIMARY KEY,
			topics TEXT NOT NULL DEFAULT '[]',
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
	}
}

// createIndexes creates indexes for the feed pipeline's hot paths.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source);`,

		`CREATE INDEX IF NOT EXISTS idx_article_topics_topic ON article_topics(topic);`,

		`CREATE INDEX IF NOT EXISTS idx_events_user_created ON interaction_events(user_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_events_article_created ON interaction_events(article_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_events_type ON interaction_events(event_type);`,

		`CREATE INDEX IF NOT EXISTS idx_bookmarks_user_created ON bookmarks(user_id, created_at DESC);`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}
	return nil
}

// Migration represents a versioned database migration.
type Migration struct {
	Version     int
	Name        string
	Description string
	SQL         string
	AppliedAt   time.Time
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// getMigrations returns all versioned migrations in order.
//
// The initial schema ships complete in tableCreationQueries, so this
// starts empty. Post-release changes are appended here starting from
// version 1 and MUST never be modified or removed once released.
func (db *DB) getMigrations() []Migration {
	return []Migration{
		// Example:
		// {Version: 1, Name: "add_articles_image_url",
		//  Description: "Add image_url for feed cards",
		//  SQL: `ALTER TABLE articles ADD COLUMN IF NOT EXISTS image_url TEXT;`},
	}
}

// runVersionedMigrations executes only migrations not yet applied.
func (db *DB) runVersionedMigrations() error {
	ctx, cancel := schemaContext()
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.appliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	newMigrations := 0
	for _, m := range db.getMigrations() {
		if _, exists := applied[m.Version]; exists {
			continue
		}

		if _, err := db.conn.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
		}

		_, err := db.conn.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name, description) VALUES (?, ?, ?)`,
			m.Version, m.Name, m.Description)
		if err != nil {
			return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
		}

		newMigrations++
	}

	if newMigrations > 0 && os.Getenv("BENCHMARK_MODE") != "1" {
		fmt.Printf("Applied %d new database migrations\n", newMigrations)
	}

	return nil
}

// appliedMigrations returns a map of version -> Migration for all applied
// migrations.
func (db *DB) appliedMigrations(ctx context.Context) (map[int]Migration, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT version, name, description, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]Migration)
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[m.Version] = m
	}
	return applied, rows.Err()
}

// SchemaVersion returns the highest applied migration version.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var version int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
