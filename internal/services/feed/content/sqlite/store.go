// Package sqlite provides the reference SQLite content index adapter.
//
// Production deployments point the feed at the real content store; this
// adapter implements the same port surface over a local index so the composed
// service and its tests run without one.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/marlizel/socialcore/internal/platform/storage/sqlitemigrate"
	"github.com/marlizel/socialcore/internal/services/feed/content/sqlite/migrations"
	"github.com/marlizel/socialcore/internal/services/feed/storage"
	_ "modernc.org/sqlite"
)

// Store persists the content index in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite content index and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutContentItem inserts one content index row.
func (s *Store) PutContentItem(ctx context.Context, item storage.ContentItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	item.ID = strings.TrimSpace(item.ID)
	item.AuthorID = strings.TrimSpace(item.AuthorID)
	item.Title = strings.TrimSpace(item.Title)
	if item.ID == "" {
		return fmt.Errorf("content id is required")
	}
	if item.AuthorID == "" {
		return fmt.Errorf("author id is required")
	}
	if item.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO content_items (id, author_id, title, created_at)
		 VALUES (?, ?, ?, ?)`,
		item.ID,
		item.AuthorID,
		item.Title,
		toMillis(item.CreatedAt),
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
			return storage.ErrConflict
		}
		return fmt.Errorf("put content item: %w", err)
	}
	return nil
}

// GetContentItem returns one content index row.
func (s *Store) GetContentItem(ctx context.Context, contentID string) (storage.ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return storage.ContentItem{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ContentItem{}, fmt.Errorf("storage is not configured")
	}
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return storage.ContentItem{}, fmt.Errorf("content id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, author_id, title, created_at
		 FROM content_items
		 WHERE id = ?`,
		contentID,
	)
	var item storage.ContentItem
	var createdAt int64
	if err := row.Scan(&item.ID, &item.AuthorID, &item.Title, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ContentItem{}, storage.ErrNotFound
		}
		return storage.ContentItem{}, fmt.Errorf("get content item: %w", err)
	}
	item.CreatedAt = fromMillis(createdAt)
	return item, nil
}

// AuthorOf resolves the author account for one content id.
func (s *Store) AuthorOf(ctx context.Context, contentID string) (string, error) {
	item, err := s.GetContentItem(ctx, contentID)
	if err != nil {
		return "", err
	}
	return item.AuthorID, nil
}

// ListByAuthors lists content authored by any account in authorIDs, newest
// first with cursor pagination. The (created_at DESC, id DESC) order keeps
// page boundaries stable while new content is inserted mid-traversal.
func (s *Store) ListByAuthors(ctx context.Context, authorIDs []string, pageSize int, pageToken string) (storage.ContentPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.ContentPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ContentPage{}, fmt.Errorf("storage is not configured")
	}
	if pageSize <= 0 {
		return storage.ContentPage{}, fmt.Errorf("page size must be greater than zero")
	}
	pageToken = strings.TrimSpace(pageToken)

	authors := make([]string, 0, len(authorIDs))
	for _, authorID := range authorIDs {
		authorID = strings.TrimSpace(authorID)
		if authorID != "" {
			authors = append(authors, authorID)
		}
	}
	if len(authors) == 0 {
		return storage.ContentPage{Items: []storage.ContentItem{}}, nil
	}

	placeholders := strings.Repeat("?, ", len(authors)-1) + "?"
	args := make([]any, 0, len(authors)+4)
	for _, authorID := range authors {
		args = append(args, authorID)
	}

	query := `SELECT id, author_id, title, created_at
	 FROM content_items
	 WHERE author_id IN (` + placeholders + `)`
	if pageToken != "" {
		tokenCreatedAt, err := s.contentCreatedAtByID(ctx, pageToken)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return storage.ContentPage{Items: []storage.ContentItem{}}, nil
			}
			return storage.ContentPage{}, err
		}
		query += ` AND (created_at < ? OR (created_at = ? AND id < ?))`
		args = append(args, tokenCreatedAt, tokenCreatedAt, pageToken)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	limit := pageSize + 1
	args = append(args, limit)

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return storage.ContentPage{}, fmt.Errorf("list content by authors: %w", err)
	}
	defer rows.Close()

	page := storage.ContentPage{
		Items: make([]storage.ContentItem, 0, pageSize),
	}
	for rows.Next() {
		var item storage.ContentItem
		var createdAt int64
		if err := rows.Scan(&item.ID, &item.AuthorID, &item.Title, &createdAt); err != nil {
			return storage.ContentPage{}, fmt.Errorf("scan content row: %w", err)
		}
		item.CreatedAt = fromMillis(createdAt)
		page.Items = append(page.Items, item)
	}
	if err := rows.Err(); err != nil {
		return storage.ContentPage{}, fmt.Errorf("iterate content rows: %w", err)
	}
	if len(page.Items) > pageSize {
		page.NextPageToken = page.Items[pageSize-1].ID
		page.Items = page.Items[:pageSize]
	}
	return page, nil
}

func (s *Store) contentCreatedAtByID(ctx context.Context, contentID string) (int64, error) {
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT created_at FROM content_items WHERE id = ?`,
		contentID,
	)
	var createdAt int64
	if err := row.Scan(&createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, storage.ErrNotFound
		}
		return 0, fmt.Errorf("lookup content cursor: %w", err)
	}
	return createdAt, nil
}
