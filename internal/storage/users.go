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

// CreateUser inserts a new account, or returns ErrEmailTaken when the email
// is already registered. The existence check and insert run in one
// transaction; this process is the only writer, so that is sufficient.
func (db *DB) CreateUser(ctx context.Context, user *models.User) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.RoleReader
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logging.Error().Err(rbErr).AnErr("original_error", err).Msg("User create rollback failed")
			}
		}
	}()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, user.Email).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		err = ErrEmailTaken
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name, role, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.DisplayName, user.Role, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user create: %w", err)
	}
	return nil
}

// GetUserByEmail returns the account for an email, or ErrUserNotFound.
// Lookup is case-insensitive; emails are stored lowercased.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	email = strings.ToLower(strings.TrimSpace(email))
	return db.scanUserRow(db.conn.QueryRowContext(ctx,
		`SELECT id, email, display_name, role, password_hash, created_at
		FROM users WHERE email = ?`, email))
}

// GetUserByID returns the account for an id, or ErrUserNotFound.
func (db *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	return db.scanUserRow(db.conn.QueryRowContext(ctx,
		`SELECT id, email, display_name, role, password_hash, created_at
		FROM users WHERE id = ?`, id))
}

// CountUsers returns the total number of registered accounts. Used at boot
// to decide whether to create the bootstrap admin.
func (db *DB) CountUsers(ctx context.Context) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (db *DB) scanUserRow(row *sql.Row) (*models.User, error) {
	var (
		u           models.User
		displayName sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &displayName, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	u.DisplayName = displayName.String
	return &u, nil
}

// CreateBookmark saves an article for a user. Bookmarking the same article
// twice is idempotent: the existing row's id and timestamp are returned.
func (db *DB) CreateBookmark(ctx context.Context, bookmark *models.Bookmark) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if bookmark.ID == "" {
		bookmark.ID = uuid.New().String()
	}
	if bookmark.CreatedAt.IsZero() {
		bookmark.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO bookmarks (id, user_id, article_id, created_at)
		VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		bookmark.ID, bookmark.UserID, bookmark.ArticleID, bookmark.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create bookmark: %w", err)
	}

	// Read back so a duplicate create reports the original row.
	err = db.conn.QueryRowContext(ctx,
		`SELECT id, created_at FROM bookmarks WHERE user_id = ? AND article_id = ?`,
		bookmark.UserID, bookmark.ArticleID,
	).Scan(&bookmark.ID, &bookmark.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to read back bookmark: %w", err)
	}
	return nil
}

// DeleteBookmark removes a user's bookmark on an article, or returns
// ErrBookmarkNotFound when none exists.
func (db *DB) DeleteBookmark(ctx context.Context, userID, articleID string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE user_id = ? AND article_id = ?`, userID, articleID)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrBookmarkNotFound
	}
	return nil
}

// ListBookmarks returns a user's bookmarks newest first, each hydrated with
// the bookmarked article and its annotation.
func (db *DB) ListBookmarks(ctx context.Context, userID string) ([]models.BookmarkWithArticle, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT b.id, b.user_id, b.article_id, b.created_at, ` + annotatedColumns + `
	FROM bookmarks b
	JOIN articles a ON a.id = b.article_id
	LEFT JOIN article_nlp n ON n.article_id = a.id
	WHERE b.user_id = ?
	ORDER BY b.created_at DESC, b.id ASC`

	rows, err := db.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookmarks: %w", err)
	}
	defer closeWithLog(rows, "rows")

	bookmarks := []models.BookmarkWithArticle{}
	for rows.Next() {
		var (
			b            models.BookmarkWithArticle
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
			&b.ID, &b.UserID, &b.ArticleID, &b.CreatedAt,
			&b.Article.ID, &b.Article.URL, &b.Article.Title, &subtitle, &author,
			&source, &bodyText, &language, &readingTime,
			&b.Article.PublishedAt, &b.Article.CreatedAt,
			&topicsJSON, &entitiesJSON, &sentiment, &credibility,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		applyNullableColumns(&b.Article, subtitle, author, source, bodyText, language, readingTime)
		if err := applyAnnotation(&b.Article, topicsJSON, entitiesJSON, sentiment, credibility); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookmarks: %w", err)
	}
	return bookmarks, nil
}

// GetPreferredTopics returns a user's explicit topic preferences. A user who
// never set any gets an empty list, not an error.
func (db *DB) GetPreferredTopics(ctx context.Context, userID string) (*models.PreferredTopics, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var (
		prefs      = models.PreferredTopics{UserID: userID, Topics: []string{}}
		topicsJSON string
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT topics, updated_at FROM preferred_topics WHERE user_id = ?`, userID,
	).Scan(&topicsJSON, &prefs.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &prefs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferred topics: %w", err)
	}
	if err := json.Unmarshal([]byte(topicsJSON), &prefs.Topics); err != nil {
		return nil, fmt.Errorf("failed to parse preferred topics: %w", err)
	}
	if prefs.Topics == nil {
		prefs.Topics = []string{}
	}
	return &prefs, nil
}

// SetPreferredTopics replaces a user's topic preference list.
func (db *DB) SetPreferredTopics(ctx context.Context, userID string, topics []string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	topicsJSON, err := json.Marshal(dedupeStrings(topics))
	if err != nil {
		return fmt.Errorf("failed to marshal preferred topics: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO preferred_topics (user_id, topics, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET
			topics = excluded.topics,
			updated_at = CURRENT_TIMESTAMP`,
		userID, string(topicsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to set preferred topics: %w", err)
	}
	return nil
}
